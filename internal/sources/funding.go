package sources

import (
	"context"
	"fmt"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
)

// FetchFunding fetches and parses a repository's FUNDING.yml from its default
// branch. Used as a fallback source of financial-platform usernames when no
// explicit configuration is present.
func FetchFunding(ctx context.Context, engine *query.Engine, slug string) (*models.FundingConfig, error) {
	raw, err := engine.FetchURL(ctx, fmt.Sprintf("%s/%s/HEAD/.github/FUNDING.yml", rawContentHost, slug))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding config for %s: %w", slug, err)
	}
	return models.ParseFundingConfig(raw)
}
