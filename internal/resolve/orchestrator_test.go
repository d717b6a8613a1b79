package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	"github.com/alimgiray/backers/internal/sources"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestResolveOffline(t *testing.T) {
	path := writeManifest(t, `{
		"name": "example",
		"author": "Alice <a@x.com>",
		"sponsors": []
	}`)

	engine := query.NewEngine(query.Config{Offline: true})
	resolver := New(models.Options{PackagePath: path, Offline: true}, engine)

	backers := resolver.Resolve(context.Background())

	require.Len(t, backers.Authors, 1)
	assert.Equal(t, "Alice", backers.Authors[0].Name)
	assert.Equal(t, "a@x.com", backers.Authors[0].Email)
	require.Len(t, backers.Author, 1)
	assert.Same(t, backers.Authors[0], backers.Author[0])

	assert.Empty(t, backers.Maintainers)
	assert.Empty(t, backers.Contributors)
	assert.Empty(t, backers.Funders)
	assert.Empty(t, backers.Sponsors)
	assert.Empty(t, backers.Donors)

	// Offline mode must never touch the network.
	assert.Zero(t, engine.Requests())
}

func TestResolveManifestInvariants(t *testing.T) {
	path := writeManifest(t, `{
		"name": "example",
		"repository": "github:bevry/example",
		"author": "Alice <a@x.com>",
		"maintainers": ["Bob <b@x.com>"],
		"funders": ["Frank <f@x.com>"],
		"sponsors": ["Sam <s@x.com>"]
	}`)

	engine := query.NewEngine(query.Config{Offline: true})
	backers := New(models.Options{PackagePath: path, Offline: true}, engine).Resolve(context.Background())

	// Maintainers flow into contributors, funders and sponsors into donors.
	require.Len(t, backers.Contributors, 1)
	assert.Equal(t, "Bob", backers.Contributors[0].Name)
	require.Len(t, backers.Donors, 2)
	assert.Equal(t, "Frank", backers.Donors[0].Name)
	assert.Equal(t, "Sam", backers.Donors[1].Name)
	require.Len(t, backers.Funders, 1)
	require.Len(t, backers.Sponsors, 1)
}

func TestResolvePartialFailure(t *testing.T) {
	// ThanksDev is down entirely; OpenCollective still answers.
	recent := time.Now().AddDate(0, 0, -3).Format("2006-01-02 15:04")
	financial := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/gh/bevry/donors":
			http.Error(w, "upstream down", http.StatusInternalServerError)
		case "/bevry/members/all.json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[
				{"name": "Generous Org", "role": "BACKER", "totalAmountDonated": 500, "lastTransactionAt": %q, "lastTransactionAmount": 50}
			]`, recent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer financial.Close()

	oldThanksDev, oldOpenCollective := sources.ThanksDevHost, sources.OpenCollectiveHost
	sources.ThanksDevHost = financial.URL
	sources.OpenCollectiveHost = financial.URL
	defer func() {
		sources.ThanksDevHost = oldThanksDev
		sources.OpenCollectiveHost = oldOpenCollective
	}()

	path := writeManifest(t, `{"name": "example", "author": "Alice <a@x.com>"}`)
	engine := query.NewEngine(query.Config{})
	opts := models.Options{
		Slug:        "bevry/example",
		PackagePath: path,
		// Explicit usernames everywhere so no FUNDING.yml lookup happens.
		GitHubSponsorsUsername: "bevry",
		ThanksDevUsername:      "bevry",
		OpenCollectiveUsername: "bevry",
	}

	backers := New(opts, engine).Resolve(context.Background())

	// OpenCollective's contribution survives the ThanksDev outage.
	require.Len(t, backers.Donors, 1)
	assert.Equal(t, "Generous Org", backers.Donors[0].Name)
	require.Len(t, backers.Sponsors, 1)
	require.Len(t, backers.Authors, 1)
}

func TestResolveUnresolvedTarget(t *testing.T) {
	engine := query.NewEngine(query.Config{Offline: true})
	backers := New(models.Options{Offline: true}, engine).Resolve(context.Background())
	assert.True(t, backers.IsEmpty())
}

func TestResolveMergesAcrossSources(t *testing.T) {
	financial := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/gh/bevry/donors":
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("period") == "30" {
				w.Write([]byte(`{"donors": []}`))
				return
			}
			w.Write([]byte(`{"donors": [{"name": "Alice", "email": "a@x.com", "githubUsername": "alice", "cents": 400}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer financial.Close()

	oldThanksDev, oldOpenCollective := sources.ThanksDevHost, sources.OpenCollectiveHost
	sources.ThanksDevHost = financial.URL
	sources.OpenCollectiveHost = financial.URL
	defer func() {
		sources.ThanksDevHost = oldThanksDev
		sources.OpenCollectiveHost = oldOpenCollective
	}()

	path := writeManifest(t, `{"name": "example", "author": "Alice <a@x.com>"}`)
	engine := query.NewEngine(query.Config{})
	opts := models.Options{
		Slug:                   "bevry/example",
		PackagePath:            path,
		GitHubSponsorsUsername: "bevry",
		ThanksDevUsername:      "bevry",
		OpenCollectiveUsername: "bevry",
	}

	backers := New(opts, engine).Resolve(context.Background())

	// The donor record shares Alice's email, so it folds into the author
	// entity instead of creating a second fellow.
	require.Len(t, backers.Authors, 1)
	require.Len(t, backers.Donors, 1)
	assert.Same(t, backers.Authors[0], backers.Donors[0])
	assert.Equal(t, "alice", backers.Donors[0].Username)
}

func TestResolveRepositories(t *testing.T) {
	one := writeManifest(t, `{"name": "one", "repository": "github:bevry/one", "author": "Alice <a@x.com>"}`)
	engine := query.NewEngine(query.Config{Offline: true})

	backers := ResolveRepositories(context.Background(),
		[]string{"bevry/one", "bevry/two"},
		models.Options{Offline: true, PackagePath: one}, engine)

	// The same manifest seeds both repositories; the shared registry folds
	// the two Alice observations into one entity.
	require.Len(t, backers.Authors, 1)
	assert.Equal(t, "Alice", backers.Authors[0].Name)
	assert.Zero(t, engine.Requests())
}

func TestResolveRepositoriesBadSlug(t *testing.T) {
	engine := query.NewEngine(query.Config{Offline: true})
	backers := ResolveRepositories(context.Background(),
		[]string{"not a slug at all !!!"}, models.Options{Offline: true}, engine)

	// Unresolvable slugs degrade to empty rather than failing the batch.
	assert.True(t, backers.IsEmpty())
	assert.Zero(t, engine.Requests())
}

func TestResolveBadSlugFallsBackToManifest(t *testing.T) {
	path := writeManifest(t, `{
		"name": "example",
		"repository": "github:bevry/example",
		"author": "Alice <a@x.com>"
	}`)

	engine := query.NewEngine(query.Config{Offline: true})
	opts := models.Options{Slug: "not a slug at all !!!", PackagePath: path, Offline: true}
	backers := New(opts, engine).Resolve(context.Background())

	// The unusable explicit slug is discarded in favor of the manifest's
	// repository field rather than failing the resolution.
	require.Len(t, backers.Authors, 1)
	assert.Equal(t, "Alice", backers.Authors[0].Name)
	assert.Zero(t, engine.Requests())
}

func TestResolveRepositoriesConcurrentBatch(t *testing.T) {
	path := writeManifest(t, `{
		"name": "example",
		"author": "Alice <a@x.com>",
		"maintainers": ["Bob <b@x.com>"],
		"sponsors": ["Sam <s@x.com>"]
	}`)

	slugs := make([]string, 32)
	for i := range slugs {
		slugs[i] = fmt.Sprintf("bevry/repo-%d", i)
	}

	engine := query.NewEngine(query.Config{Offline: true})
	backers := ResolveRepositories(context.Background(), slugs,
		models.Options{Offline: true, PackagePath: path}, engine)

	// Every repository seeds the same three people into the shared registry;
	// the union holds one entity each, associated with all 32 slugs.
	require.Len(t, backers.Authors, 1)
	require.Len(t, backers.Contributors, 1)
	require.Len(t, backers.Donors, 1)
	for _, slug := range slugs {
		assert.True(t, backers.Authors[0].AssociatedWith(models.RoleAuthor, slug))
		assert.True(t, backers.Donors[0].AssociatedWith(models.RoleDonor, slug))
	}
	assert.Zero(t, engine.Requests())
}
