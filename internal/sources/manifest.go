package sources

import (
	"context"
	"fmt"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
)

// rawContentHost serves repository files from the default branch.
var rawContentHost = "https://raw.githubusercontent.com"

// FetchManifest fetches and parses a repository's manifest from its default
// branch.
func FetchManifest(ctx context.Context, engine *query.Engine, slug string) (*models.Manifest, error) {
	raw, err := engine.FetchURL(ctx, fmt.Sprintf("%s/%s/HEAD/package.json", rawContentHost, slug))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for %s: %w", slug, err)
	}
	return models.ParseManifest(raw)
}

// ManifestFragments maps a manifest's person fields for a role into identity
// fragments.
func ManifestFragments(m *models.Manifest, role models.Role) []models.Fragment {
	people := m.People(role)
	fragments := make([]models.Fragment, 0, len(people))
	for _, person := range people {
		frag := person.Fragment()
		if frag.IsEmpty() {
			continue
		}
		fragments = append(fragments, frag)
	}
	return fragments
}
