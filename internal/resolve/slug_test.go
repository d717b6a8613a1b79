package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSlug(t *testing.T) {
	matching := []string{
		"bevry/github-api",
		"github:bevry/github-api",
		"git@github.com:bevry/github-api.git",
		"https://github.com/bevry/github-api",
		"https://github.com/bevry/github-api.git",
		"ssh://github.com/bevry/github-api.git",
		"git+https://github.com/bevry/github-api.git#commit-ish",
	}
	for _, input := range matching {
		t.Run(input, func(t *testing.T) {
			slug, ok := ExtractSlug(input)
			assert.True(t, ok)
			assert.Equal(t, "bevry/github-api", slug)
		})
	}

	nonMatching := []string{
		"gist:11081aaa281",
		"bitbucket:bb/repo",
		"gitlab:gl/repo",
		"",
		"not a slug at all",
	}
	for _, input := range nonMatching {
		t.Run("reject "+input, func(t *testing.T) {
			_, ok := ExtractSlug(input)
			assert.False(t, ok)
		})
	}
}
