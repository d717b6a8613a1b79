package resolve

import "regexp"

// slugPatterns recognizes the hosting-platform repository references a slug
// can be extracted from. Shortcuts for other hosts (gist:, bitbucket:,
// gitlab:) intentionally yield no match.
var slugPatterns = []*regexp.Regexp{
	// bare owner/name
	regexp.MustCompile(`^([A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+)$`),
	// github:owner/name
	regexp.MustCompile(`^github:([A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+)$`),
	// git@github.com:owner/name.git
	regexp.MustCompile(`^git@github\.com:([A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+?)(?:\.git)?$`),
	// https://github.com/owner/name[.git][#commit-ish], plus ssh://, git://
	// and git+ prefixed forms
	regexp.MustCompile(`^(?:git\+)?(?:https?|ssh|git)://(?:[^@/]+@)?github\.com/([A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+?)(?:\.git)?(?:#.*)?$`),
}

// ExtractSlug extracts an owner/repository slug from a repository reference.
func ExtractSlug(ref string) (string, bool) {
	for _, pattern := range slugPatterns {
		if m := pattern.FindStringSubmatch(ref); m != nil {
			return m[1], true
		}
	}
	return "", false
}
