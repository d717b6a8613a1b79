// Package sources maps raw external payloads (hosting platform, financial
// platforms, manifest, funding file) into identity fragments consumable by
// the registry.
package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	gh "github.com/google/go-github/v57/github"
)

// GitHubProfileHost is the public profile host used when deriving profile
// URLs from usernames. A variable so tests can point it at a local server.
var GitHubProfileHost = "https://github.com"

const profileFields = `login name email url websiteUrl company location bio isHireable`

const userProfileQuery = `query ($login: String!) {
  user(login: $login) { ` + profileFields + ` }
}`

const orgProfileQuery = `query ($login: String!) {
  organization(login: $login) { login name email url websiteUrl location description }
}`

// profileNode is the GraphQL shape shared by user and organization profiles.
type profileNode struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	URL         string `json:"url"`
	WebsiteURL  string `json:"websiteUrl"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
	Description string `json:"description"`
	IsHireable  bool   `json:"isHireable"`
}

// Fragment converts a profile node into an identity fragment.
func (n profileNode) Fragment() models.Fragment {
	desc := n.Bio
	if desc == "" {
		desc = n.Description
	}
	return models.Fragment{
		Name:        n.Name,
		Email:       n.Email,
		Username:    n.Login,
		ProfileURL:  n.URL,
		WebsiteURL:  n.WebsiteURL,
		Company:     n.Company,
		Location:    n.Location,
		Description: desc,
		Hireable:    n.IsHireable,
	}
}

// GitHubSource adapts hosting-platform REST and GraphQL responses.
type GitHubSource struct {
	engine *query.Engine
}

// NewGitHubSource creates a hosting-platform source over the given engine.
func NewGitHubSource(engine *query.Engine) *GitHubSource {
	return &GitHubSource{engine: engine}
}

// Profile fetches a profile by login, falling back from user to organization
// lookup. An error is returned only when both lookups fail.
func (s *GitHubSource) Profile(ctx context.Context, login string) (models.Fragment, error) {
	vars := map[string]any{"login": login}

	data, userErr := s.engine.GraphQL(ctx, userProfileQuery, vars)
	if userErr == nil {
		var payload struct {
			User *profileNode `json:"user"`
		}
		if err := json.Unmarshal(data, &payload); err == nil && payload.User != nil {
			return payload.User.Fragment(), nil
		}
	}

	data, orgErr := s.engine.GraphQL(ctx, orgProfileQuery, vars)
	if orgErr == nil {
		var payload struct {
			Organization *profileNode `json:"organization"`
		}
		if err := json.Unmarshal(data, &payload); err == nil && payload.Organization != nil {
			return payload.Organization.Fragment(), nil
		}
	}

	if userErr != nil {
		return models.Fragment{}, fmt.Errorf("failed to fetch profile for %s: %w", login, userErr)
	}
	if orgErr != nil {
		return models.Fragment{}, fmt.Errorf("failed to fetch profile for %s: %w", login, orgErr)
	}
	return models.Fragment{}, fmt.Errorf("no user or organization profile found for %s", login)
}

// RESTProfile fetches a user profile over REST, used when GraphQL is not an
// option for the credential shape.
func (s *GitHubSource) RESTProfile(ctx context.Context, login string) (models.Fragment, error) {
	raw, err := s.engine.Fetch(ctx, query.Request{Pathname: "users/" + login})
	if err != nil {
		return models.Fragment{}, err
	}
	var user gh.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return models.Fragment{}, fmt.Errorf("failed to parse profile for %s: %w", login, err)
	}
	return userFragment(&user), nil
}

// userFragment converts a REST user record into an identity fragment.
func userFragment(user *gh.User) models.Fragment {
	return models.Fragment{
		Name:        user.GetName(),
		Email:       user.GetEmail(),
		Username:    user.GetLogin(),
		ProfileURL:  user.GetHTMLURL(),
		WebsiteURL:  user.GetBlog(),
		Company:     user.GetCompany(),
		Location:    user.GetLocation(),
		Description: user.GetBio(),
		Hireable:    user.GetHireable(),
	}
}
