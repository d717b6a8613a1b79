package models

import (
	"strings"

	"github.com/google/uuid"
)

// Role identifies the relationship a backer has with a repository.
type Role string

const (
	// RoleActiveAuthor marks the short-lived "active" author subset fed by
	// the manifest's author field; RoleAuthor is the eternal superset.
	RoleActiveAuthor Role = "active-author"
	RoleAuthor       Role = "author"
	RoleMaintainer   Role = "maintainer"
	RoleContributor  Role = "contributor"
	RoleFunder       Role = "funder"
	RoleSponsor      Role = "sponsor"
	RoleDonor        Role = "donor"
)

// Roles lists every repository role in display order.
var Roles = []Role{RoleAuthor, RoleMaintainer, RoleContributor, RoleFunder, RoleSponsor, RoleDonor}

// Fragment is a partial set of identity attributes observed from a single
// source call (a manifest person string, a GraphQL user node, a donor record).
// Fragments are immutable once received; they are only ever merged into a Fellow.
type Fragment struct {
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	Username          string `json:"username,omitempty"`
	ProfileURL        string `json:"profile_url,omitempty"`
	WebsiteURL        string `json:"website_url,omitempty"`
	ThanksDevURL      string `json:"thanksdev_url,omitempty"`
	OpenCollectiveURL string `json:"opencollective_url,omitempty"`
	Company           string `json:"company,omitempty"`
	Description       string `json:"description,omitempty"`
	Location          string `json:"location,omitempty"`
	Hireable          bool   `json:"hireable,omitempty"`
	// Years is the raw copyright-year range from a manifest person string,
	// e.g. "2013+" or "2011-2017".
	Years string `json:"years,omitempty"`
}

// IsEmpty reports whether the fragment carries no identifying attribute at all.
func (f Fragment) IsEmpty() bool {
	return f.Name == "" && f.Email == "" && f.Username == "" &&
		f.ProfileURL == "" && f.WebsiteURL == "" && f.ThanksDevURL == "" && f.OpenCollectiveURL == ""
}

// URLs returns the non-empty profile URLs of the fragment.
func (f Fragment) URLs() []string {
	var urls []string
	for _, u := range []string{f.ProfileURL, f.WebsiteURL, f.ThanksDevURL, f.OpenCollectiveURL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Fellow is the deduplicated record representing one real-world person or
// organization backing a project. It is created on the first observation of
// any identity fragment and progressively enriched as more fragments arrive.
type Fellow struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	Username          string `json:"username,omitempty"`
	ProfileURL        string `json:"profile_url,omitempty"`
	WebsiteURL        string `json:"website_url,omitempty"`
	ThanksDevURL      string `json:"thanksdev_url,omitempty"`
	OpenCollectiveURL string `json:"opencollective_url,omitempty"`
	Company           string `json:"company,omitempty"`
	Description       string `json:"description,omitempty"`
	Location          string `json:"location,omitempty"`
	Hireable          bool   `json:"hireable,omitempty"`
	Years             string `json:"years,omitempty"`

	// Repos holds the repository slugs associated with the fellow per role.
	// Set semantics: associating the same slug twice is a no-op.
	Repos map[Role]map[string]bool `json:"repos,omitempty"`

	// Contributions maps repository slug to the fellow's commit contribution count.
	Contributions map[string]int `json:"contributions,omitempty"`

	// ProfileFetched marks that a full hosting-platform profile has been
	// merged in, so enrichment passes do not fetch it twice.
	ProfileFetched bool `json:"-"`
}

// NewFellow creates an empty Fellow with a generated UUID.
func NewFellow() *Fellow {
	return &Fellow{
		ID:            uuid.New().String(),
		Repos:         make(map[Role]map[string]bool),
		Contributions: make(map[string]int),
	}
}

// Absorb merges a fragment into the fellow. Existing attributes win, so the
// first source to report a field keeps it; empty fields are filled in.
func (f *Fellow) Absorb(frag Fragment) {
	fill(&f.Name, frag.Name)
	fill(&f.Email, frag.Email)
	fill(&f.Username, frag.Username)
	fill(&f.ProfileURL, frag.ProfileURL)
	fill(&f.WebsiteURL, frag.WebsiteURL)
	fill(&f.ThanksDevURL, frag.ThanksDevURL)
	fill(&f.OpenCollectiveURL, frag.OpenCollectiveURL)
	fill(&f.Company, frag.Company)
	fill(&f.Description, frag.Description)
	fill(&f.Location, frag.Location)
	if frag.Hireable {
		f.Hireable = true
	}
	fill(&f.Years, frag.Years)
}

// Merge moves every attribute and repository association of other onto f.
// Merging a fellow into itself is a no-op.
func (f *Fellow) Merge(other *Fellow) {
	if f == other {
		return
	}
	f.Absorb(other.Fragment())
	for role, slugs := range other.Repos {
		for slug := range slugs {
			f.Associate(role, slug)
		}
	}
	for slug, count := range other.Contributions {
		if count > f.Contributions[slug] {
			f.Contributions[slug] = count
		}
	}
	if other.ProfileFetched {
		f.ProfileFetched = true
	}
}

// Fragment returns the fellow's identity attributes as a fragment.
func (f *Fellow) Fragment() Fragment {
	return Fragment{
		Name:              f.Name,
		Email:             f.Email,
		Username:          f.Username,
		ProfileURL:        f.ProfileURL,
		WebsiteURL:        f.WebsiteURL,
		ThanksDevURL:      f.ThanksDevURL,
		OpenCollectiveURL: f.OpenCollectiveURL,
		Company:           f.Company,
		Description:       f.Description,
		Location:          f.Location,
		Hireable:          f.Hireable,
		Years:             f.Years,
	}
}

// Associate adds a repository slug to the fellow's role-specific set. An
// empty slug is a valid key: manifest-only resolutions have no repository.
func (f *Fellow) Associate(role Role, slug string) {
	if f.Repos == nil {
		f.Repos = make(map[Role]map[string]bool)
	}
	if f.Repos[role] == nil {
		f.Repos[role] = make(map[string]bool)
	}
	f.Repos[role][slug] = true
}

// AssociatedWith reports whether the fellow holds the given role for the slug.
func (f *Fellow) AssociatedWith(role Role, slug string) bool {
	return f.Repos[role][slug]
}

// URLs returns the non-empty profile URLs of the fellow.
func (f *Fellow) URLs() []string {
	return f.Fragment().URLs()
}

// DisplayName returns the best human-readable identifier for the fellow:
// name, then username, then the first known URL.
func (f *Fellow) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	if f.Username != "" {
		return f.Username
	}
	if urls := f.URLs(); len(urls) > 0 {
		return urls[0]
	}
	return ""
}

// SortKey returns the case-insensitive key used for the stable ordering of
// backer lists.
func (f *Fellow) SortKey() string {
	return strings.ToLower(f.DisplayName())
}

func fill(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = strings.TrimSpace(src)
	}
}
