package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePerson(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Person
	}{
		{
			name:     "Full form",
			input:    "2013+ Jane Doe <jane@example.com> (https://example.com)",
			expected: Person{Years: "2013+", Name: "Jane Doe", Email: "jane@example.com", URL: "https://example.com"},
		},
		{
			name:     "Name and email",
			input:    "Alice <a@x.com>",
			expected: Person{Name: "Alice", Email: "a@x.com"},
		},
		{
			name:     "Name only",
			input:    "Alice",
			expected: Person{Name: "Alice"},
		},
		{
			name:     "Year range",
			input:    "2011-2017 Bob <b@x.com>",
			expected: Person{Years: "2011-2017", Name: "Bob", Email: "b@x.com"},
		},
		{
			name:     "Email only",
			input:    "<a@x.com>",
			expected: Person{Email: "a@x.com"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParsePerson(tc.input))
		})
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"name": "github-api",
		"title": "GitHub API",
		"homepage": "https://github.com/bevry/github-api",
		"repository": {"type": "git", "url": "https://github.com/bevry/github-api.git"},
		"author": "2013+ Alice <a@x.com>",
		"maintainers": ["Bob <b@x.com>", {"name": "Carol", "githubUsername": "carol"}],
		"sponsors": [],
		"badges": {"config": {"githubSponsorsUsername": "bevry", "opencollectiveUsername": "bevry-oc"}},
		"version": "1.2.3"
	}`)

	m, err := ParseManifest(data)
	require.NoError(t, err)

	assert.Equal(t, "GitHub API", m.ProjectName())
	assert.Equal(t, "https://github.com/bevry/github-api.git", m.Repository.URL)

	require.Len(t, m.Author, 1)
	assert.Equal(t, "Alice", m.Author[0].Name)
	assert.Equal(t, "a@x.com", m.Author[0].Email)
	assert.Equal(t, "2013+", m.Author[0].Years)

	require.Len(t, m.Maintainers, 2)
	assert.Equal(t, "Bob", m.Maintainers[0].Name)
	assert.Equal(t, "carol", m.Maintainers[1].GitHub)

	assert.Empty(t, m.Sponsors)
	assert.Equal(t, "bevry", m.Badges.Config.GitHubSponsorsUsername)
	assert.Equal(t, "bevry-oc", m.Badges.Config.OpenCollectiveUsername)

	// The raw document survives for the package render format.
	assert.Equal(t, "1.2.3", m.Raw["version"])
}

func TestRepositoryStringForm(t *testing.T) {
	m, err := ParseManifest([]byte(`{"repository": "github:bevry/github-api"}`))
	require.NoError(t, err)
	assert.Equal(t, "github:bevry/github-api", m.Repository.URL)
}

func TestPersonFragment(t *testing.T) {
	person := Person{Name: "Carol", GitHub: "carol", URL: "https://carol.dev"}
	frag := person.Fragment()
	assert.Equal(t, "carol", frag.Username)
	assert.Equal(t, "https://github.com/carol", frag.ProfileURL)
	assert.Equal(t, "https://carol.dev", frag.WebsiteURL)
	assert.False(t, frag.IsEmpty())

	assert.True(t, Person{}.Fragment().IsEmpty())
}
