package models

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// personPattern matches manifest person strings of the shape
// "2013+ Jane Doe <jane@example.com> (https://example.com)".
var personPattern = regexp.MustCompile(`^\s*(?:([0-9]{4}(?:[-+][0-9]{0,4})?)\s+)?([^<(]+?)?\s*(?:<([^>]+)>)?\s*(?:\(([^)]+)\))?\s*$`)

// Person is a manifest person field, which may appear either as a structured
// object or as a "Name <email> (url)" string.
type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
	// GitHub and related fields are recognized extensions carried by some
	// manifests alongside the standard triple.
	GitHub         string `json:"githubUsername,omitempty"`
	ThanksDev      string `json:"thanksdevUrl,omitempty"`
	OpenCollective string `json:"opencollectiveUrl,omitempty"`
	Years          string `json:"years,omitempty"`
}

// UnmarshalJSON accepts both string and object person representations.
func (p *Person) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParsePerson(s)
		return nil
	}
	type alias Person
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Person(a)
	return nil
}

// ParsePerson parses a "Years Name <email> (url)" person string. Missing
// segments yield empty fields.
func ParsePerson(s string) Person {
	m := personPattern.FindStringSubmatch(s)
	if m == nil {
		return Person{Name: strings.TrimSpace(s)}
	}
	return Person{
		Years: m[1],
		Name:  strings.TrimSpace(m[2]),
		Email: strings.TrimSpace(m[3]),
		URL:   strings.TrimSpace(m[4]),
	}
}

// Fragment converts the person into an identity fragment.
func (p Person) Fragment() Fragment {
	frag := Fragment{
		Name:              p.Name,
		Email:             p.Email,
		Username:          p.GitHub,
		WebsiteURL:        p.URL,
		ThanksDevURL:      p.ThanksDev,
		OpenCollectiveURL: p.OpenCollective,
		Years:             p.Years,
	}
	if p.GitHub != "" {
		frag.ProfileURL = "https://github.com/" + p.GitHub
	}
	return frag
}

// PersonList is a manifest field holding either one person or a list of them.
type PersonList []Person

// UnmarshalJSON accepts a single person (string or object) or an array.
func (l *PersonList) UnmarshalJSON(data []byte) error {
	var many []Person
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one Person
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = PersonList{one}
	return nil
}

// Repository is a manifest repository field: a plain string or a {type,url}
// object.
type Repository struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// UnmarshalJSON accepts both forms.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	type alias Repository
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Repository(a)
	return nil
}

// BadgesConfig is the badge-configuration sub-object of a manifest, from
// which financial-platform usernames can be resolved.
type BadgesConfig struct {
	Config struct {
		GitHubSponsorsUsername  string `json:"githubSponsorsUsername,omitempty"`
		ThanksDevGitHubUsername string `json:"thanksdevGithubUsername,omitempty"`
		OpenCollectiveUsername  string `json:"opencollectiveUsername,omitempty"`
	} `json:"config"`
}

// Manifest is the project package descriptor. Raw preserves the full decoded
// document so render formats can merge results back without losing fields.
type Manifest struct {
	Name         string       `json:"name,omitempty"`
	Title        string       `json:"title,omitempty"`
	Homepage     string       `json:"homepage,omitempty"`
	Repository   Repository   `json:"repository,omitempty"`
	Author       PersonList   `json:"author,omitempty"`
	Authors      PersonList   `json:"authors,omitempty"`
	Maintainers  PersonList   `json:"maintainers,omitempty"`
	Contributors PersonList   `json:"contributors,omitempty"`
	Funders      PersonList   `json:"funders,omitempty"`
	Sponsors     PersonList   `json:"sponsors,omitempty"`
	Donors       PersonList   `json:"donors,omitempty"`
	Badges       BadgesConfig `json:"badges,omitempty"`

	Raw map[string]any `json:"-"`
}

// ParseManifest decodes a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m.Raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ProjectName returns the manifest's display name, preferring the title.
func (m *Manifest) ProjectName() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// People returns the manifest's person list for a role. The author role maps
// to the manifest's author field; donors include only the donors field here,
// category invariants are applied later by the resolver.
func (m *Manifest) People(role Role) PersonList {
	switch role {
	case RoleAuthor:
		return m.Author
	case RoleMaintainer:
		return m.Maintainers
	case RoleContributor:
		return m.Contributors
	case RoleFunder:
		return m.Funders
	case RoleSponsor:
		return m.Sponsors
	case RoleDonor:
		return m.Donors
	}
	return nil
}
