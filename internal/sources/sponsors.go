package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alimgiray/backers/internal/models"
)

const sponsorsQuery = `query ($login: String!, $after: String) {
  user(login: $login) {
    sponsors(first: 100, after: $after) {
      pageInfo { hasNextPage endCursor }
      nodes {
        ... on User { ` + profileFields + ` }
        ... on Organization { login name email url websiteUrl location description }
      }
    }
  }
}`

// Sponsors cursor-paginates the sponsor connection for a username until no
// further page is indicated. The API carries no separate donor signal, so
// callers classify every returned fragment as both sponsor and donor.
func (s *GitHubSource) Sponsors(ctx context.Context, login string) ([]models.Fragment, error) {
	var fragments []models.Fragment
	var after *string
	for {
		vars := map[string]any{"login": login}
		if after != nil {
			vars["after"] = *after
		}
		data, err := s.engine.GraphQL(ctx, sponsorsQuery, vars)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch sponsors for %s: %w", login, err)
		}

		var payload struct {
			User *struct {
				Sponsors struct {
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []profileNode `json:"nodes"`
				} `json:"sponsors"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse sponsors for %s: %w", login, err)
		}
		if payload.User == nil {
			return fragments, nil
		}

		for _, node := range payload.User.Sponsors.Nodes {
			if node.Login == "" && node.Name == "" {
				continue
			}
			fragments = append(fragments, node.Fragment())
		}

		info := payload.User.Sponsors.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			return fragments, nil
		}
		cursor := info.EndCursor
		after = &cursor
	}
}
