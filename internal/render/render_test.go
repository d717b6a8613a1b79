package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimgiray/backers/internal/models"
)

func fellow(name, email, username, profile, website string) *models.Fellow {
	f := models.NewFellow()
	f.Absorb(models.Fragment{Name: name, Email: email, Username: username, ProfileURL: profile, WebsiteURL: website})
	return f
}

func sampleBackers() *models.Backers {
	alice := fellow("Alice", "a@x.com", "alice", "https://github.com/alice", "https://alice.dev")
	alice.Years = "2013+"
	bob := fellow("Bob", "", "bob", "https://github.com/bob", "")
	bob.Contributions["bevry/github-api"] = 12
	carol := fellow("Carol", "", "", "", "https://carol.dev")
	carol.Description = "Makes great tools"

	return &models.Backers{
		Author:       []*models.Fellow{alice},
		Authors:      []*models.Fellow{alice},
		Maintainers:  []*models.Fellow{bob},
		Contributors: []*models.Fellow{bob},
		Sponsors:     []*models.Fellow{carol},
		Donors:       []*models.Fellow{carol},
	}
}

func TestRenderString(t *testing.T) {
	result, err := Render(sampleBackers(), FormatString, Options{})
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)

	// The author category collapses to one comma-joined string with years.
	assert.Equal(t, "2013+ Alice <a@x.com> (https://alice.dev)", out["author"])
	assert.Equal(t, []string{"2013+ Alice <a@x.com> (https://alice.dev)"}, out["authors"])
	assert.Equal(t, []string{"Bob"}, out["maintainers"])
	assert.Equal(t, []string{"Carol (https://carol.dev)"}, out["sponsors"])

	// Empty categories are omitted entirely.
	_, present := out["funders"]
	assert.False(t, present)
}

func TestRenderStringMultipleAuthors(t *testing.T) {
	backers := sampleBackers()
	backers.Author = append(backers.Author, fellow("Dan", "", "", "", ""))

	result, err := Render(backers, FormatString, Options{})
	require.NoError(t, err)
	out := result.(map[string]any)
	assert.Equal(t, "2013+ Alice <a@x.com> (https://alice.dev), Dan", out["author"])
}

func TestRenderText(t *testing.T) {
	result, err := Render(sampleBackers(), FormatText, Options{ProjectName: "GitHub API"})
	require.NoError(t, err)

	text := result.(string)
	assert.Contains(t, text, "Thank you to GitHub API author Alice <a@x.com> (https://alice.dev)")
	assert.Contains(t, text, "Thank you to GitHub API sponsor ♡ Carol (https://carol.dev)")
	assert.Contains(t, text, "Thank you to GitHub API maintainer Bob")
	// The active-author category never produces greeting lines of its own.
	assert.Equal(t, 1, countOccurrences(text, "author Alice"))
}

func TestRenderTextPrefixOverride(t *testing.T) {
	result, err := Render(sampleBackers(), FormatText, Options{Prefix: "Cheers to"})
	require.NoError(t, err)
	for _, line := range splitLines(result.(string)) {
		assert.True(t, len(line) > 0)
		assert.Contains(t, line, "Cheers to ")
	}
}

func TestRenderMarkdown(t *testing.T) {
	result, err := Render(sampleBackers(), FormatMarkdown, Options{Slug: "bevry/github-api"})
	require.NoError(t, err)

	md := result.(string)
	assert.Contains(t, md, "### Maintainers")
	assert.Contains(t, md, "- [Bob](https://github.com/bob) — [12 commits](https://github.com/bevry/github-api/commits?author=bob)")
	assert.Contains(t, md, "- [Carol](https://carol.dev) — Makes great tools")
	assert.NotContains(t, md, "### Author\n")
}

func TestRenderHTML(t *testing.T) {
	result, err := Render(sampleBackers(), FormatHTML, Options{Slug: "bevry/github-api"})
	require.NoError(t, err)

	page := result.(string)
	assert.Contains(t, page, "<h3>Maintainers</h3>")
	assert.Contains(t, page, `<a href="https://github.com/bob">Bob</a>`)
	assert.Contains(t, page, `<a href="https://github.com/bevry/github-api/commits?author=bob">12 commits</a>`)
}

func TestRenderPackage(t *testing.T) {
	manifest, err := models.ParseManifest([]byte(`{
		"name": "github-api",
		"version": "1.2.3",
		"author": "Old Author",
		"funders": ["Gone Funder"]
	}`))
	require.NoError(t, err)

	result, err := Render(sampleBackers(), FormatPackage, Options{Manifest: manifest})
	require.NoError(t, err)

	merged := result.(map[string]any)
	assert.Equal(t, "github-api", merged["name"])
	assert.Equal(t, "1.2.3", merged["version"])
	assert.Equal(t, "2013+ Alice <a@x.com> (https://alice.dev)", merged["author"])
	assert.Equal(t, []string{"Bob"}, merged["maintainers"])

	// Categories that resolved empty are removed from the manifest copy.
	_, present := merged["funders"]
	assert.False(t, present)

	// The original manifest document is untouched.
	assert.Equal(t, "Old Author", manifest.Raw["author"])
}

func TestRenderPackageRequiresManifest(t *testing.T) {
	_, err := Render(sampleBackers(), FormatPackage, Options{})
	assert.Error(t, err)
}

func TestRenderCopyright(t *testing.T) {
	result, err := Render(sampleBackers(), FormatCopyright, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Copyright © 2013+ Alice <a@x.com> (https://alice.dev)", result.(string))
}

func TestRenderShoutout(t *testing.T) {
	result, err := Render(sampleBackers(), FormatShoutout, Options{ProjectName: "GitHub API"})
	require.NoError(t, err)

	text := result.(string)
	assert.Contains(t, text, "Thank you to GitHub API contributor Bob")
	assert.Contains(t, text, "Thank you to GitHub API sponsor ♡ Carol")
	assert.NotContains(t, text, "maintainer")
	assert.NotContains(t, text, "donor")
}

func TestRenderChangelog(t *testing.T) {
	backers := sampleBackers()
	backers.Funders = []*models.Fellow{fellow("Frank", "", "", "", "")}

	release, err := Render(backers, FormatRelease, Options{})
	require.NoError(t, err)
	assert.Equal(t, "- Thank you to the funders: Frank\n- Thank you to the sponsors: Carol", release.(string))

	update, err := Render(backers, FormatUpdate, Options{})
	require.NoError(t, err)
	assert.Equal(t, "- Thank you to the sponsors: Carol", update.(string))

	empty, err := Render(&models.Backers{}, FormatRelease, Options{})
	require.NoError(t, err)
	assert.Empty(t, empty.(string))
}

func TestRenderXLSX(t *testing.T) {
	result, err := Render(sampleBackers(), FormatXLSX, Options{})
	require.NoError(t, err)

	data, ok := result.([]byte)
	require.True(t, ok)
	// An xlsx workbook is a zip archive.
	require.True(t, len(data) > 4)
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}

func TestRenderInvalidFormat(t *testing.T) {
	_, err := Render(sampleBackers(), Format("yaml"), Options{})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
