package registry

import (
	"strings"

	"github.com/alimgiray/backers/internal/models"
)

// matchRule is one predicate of the identity-matching policy. Rules are
// evaluated in priority order; the first rule to match wins.
type matchRule struct {
	name    string
	matches func(a, b models.Fragment) bool
}

// matchRules is the identity-matching policy: two fragments denote the same
// person when any rule matches. Comparison is case-insensitive throughout.
var matchRules = []matchRule{
	{
		name: "username",
		matches: func(a, b models.Fragment) bool {
			return a.Username != "" && equalFold(a.Username, b.Username)
		},
	},
	{
		name: "email",
		matches: func(a, b models.Fragment) bool {
			return a.Email != "" && equalFold(a.Email, b.Email)
		},
	},
	{
		// Same normalized name combined with at least one shared URL.
		name: "name+url",
		matches: func(a, b models.Fragment) bool {
			return sameName(a, b) && sharedURL(a, b)
		},
	},
	{
		// Same normalized name alone, only when neither side carries a
		// conflicting distinguishing identifier.
		name: "bare-name",
		matches: func(a, b models.Fragment) bool {
			if !sameName(a, b) {
				return false
			}
			if a.Username != "" && b.Username != "" && !equalFold(a.Username, b.Username) {
				return false
			}
			if a.Email != "" && b.Email != "" && !equalFold(a.Email, b.Email) {
				return false
			}
			return true
		},
	},
}

// Matches reports whether two fragments denote the same identity under the
// priority-ordered matching policy.
func Matches(a, b models.Fragment) bool {
	for _, rule := range matchRules {
		if rule.matches(a, b) {
			return true
		}
	}
	return false
}

// NormalizeName lowercases a display name and collapses internal whitespace,
// producing the key used for name-based matching.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func equalFold(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sameName(a, b models.Fragment) bool {
	if a.Name == "" || b.Name == "" {
		return false
	}
	return NormalizeName(a.Name) == NormalizeName(b.Name)
}

func sharedURL(a, b models.Fragment) bool {
	urls := make(map[string]bool)
	for _, u := range a.URLs() {
		urls[normalizeURL(u)] = true
	}
	for _, u := range b.URLs() {
		if urls[normalizeURL(u)] {
			return true
		}
	}
	return false
}

func normalizeURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "https://")
	return strings.TrimSuffix(u, "/")
}
