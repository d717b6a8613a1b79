package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	"github.com/alimgiray/backers/pkg/logger"
	gh "github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"
)

// Contribution is one repository contributor with their commit count.
type Contribution struct {
	Fragment models.Fragment
	Count    int
}

// Contributors fetches the contributor list for a repository, excluding bot
// accounts and enriching each contributor with a full profile fetch. Profile
// fetches run concurrently; the engine's pool gate bounds them.
func (s *GitHubSource) Contributors(ctx context.Context, slug string, size, pages int) ([]Contribution, error) {
	if size <= 0 {
		size = 100
	}
	raws, err := s.engine.FetchPaged(ctx, query.Request{
		Pathname: "repos/" + slug + "/contributors",
		Size:     size,
		Pages:    pages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributors for %s: %w", slug, err)
	}

	var contributors []*gh.Contributor
	for _, raw := range raws {
		var c gh.Contributor
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("failed to parse contributor for %s: %w", slug, err)
		}
		if isBot(&c) {
			continue
		}
		contributors = append(contributors, &c)
	}

	results := make([]Contribution, len(contributors))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range contributors {
		i, c := i, c
		g.Go(func() error {
			frag := models.Fragment{
				Username:   c.GetLogin(),
				ProfileURL: c.GetHTMLURL(),
			}
			// Contributor records carry login only; the full profile adds
			// name, email, and the rest.
			full, err := s.RESTProfile(gctx, c.GetLogin())
			if err != nil {
				logger.WithError(err).WithField("login", c.GetLogin()).Warnf("failed to enrich contributor profile")
			} else {
				frag = full
			}
			mu.Lock()
			results[i] = Contribution{Fragment: frag, Count: c.GetContributions()}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// isBot reports whether a contributor record denotes an automation account.
func isBot(c *gh.Contributor) bool {
	if c.GetType() == "Bot" {
		return true
	}
	login := strings.ToLower(c.GetLogin())
	return strings.Contains(login, "[bot]") || strings.HasSuffix(login, "-bot") || login == "bot"
}
