package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	"github.com/alimgiray/backers/pkg/logger"
)

// OpenCollectiveHost is the financial-backing API host for OpenCollective.
// A variable so tests can point it at a local server.
var OpenCollectiveHost = "https://opencollective.com"

// ocTimeLayout is the timestamp format of the members endpoint.
const ocTimeLayout = "2006-01-02 15:04"

// OpenCollectiveSource adapts the OpenCollective members API.
type OpenCollectiveSource struct {
	engine *query.Engine
	// now is injectable for tests.
	now func() time.Time
}

// NewOpenCollectiveSource creates an OpenCollective source over the given engine.
func NewOpenCollectiveSource(engine *query.Engine) *OpenCollectiveSource {
	return &OpenCollectiveSource{engine: engine, now: time.Now}
}

// ocMember is one record of the members/all.json endpoint. Amounts are in
// currency units, not cents.
type ocMember struct {
	Name                  string  `json:"name"`
	Type                  string  `json:"type"`
	Role                  string  `json:"role"`
	IsActive              bool    `json:"isActive"`
	TotalAmountDonated    float64 `json:"totalAmountDonated"`
	LastTransactionAt     string  `json:"lastTransactionAt"`
	LastTransactionAmount float64 `json:"lastTransactionAmount"`
	Profile               string  `json:"profile"`
	Email                 string  `json:"email"`
	Company               string  `json:"company"`
	Description           string  `json:"description"`
	GitHub                string  `json:"github"`
	Website               string  `json:"website"`
}

// Members fetches every member of a collective and classifies them: sponsors
// have a transaction within the last calendar month above the sponsor
// threshold, donors have a lifetime total above the donor threshold.
func (s *OpenCollectiveSource) Members(ctx context.Context, slug string, sponsorCents, donorCents int) (sponsors, donors []models.Fragment, err error) {
	endpoint := fmt.Sprintf("%s/%s/members/all.json", OpenCollectiveHost, url.PathEscape(slug))
	raw, err := s.engine.FetchURL(ctx, endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch opencollective members for %s: %w", slug, err)
	}

	var members []ocMember
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, nil, fmt.Errorf("failed to parse opencollective members for %s: %w", slug, err)
	}

	monthAgo := s.now().AddDate(0, -1, 0)
	for _, member := range members {
		if member.Role != "BACKER" {
			continue
		}
		frag := models.Fragment{
			Name:              member.Name,
			Email:             member.Email,
			Company:           member.Company,
			Description:       member.Description,
			WebsiteURL:        member.Website,
			OpenCollectiveURL: member.Profile,
			ProfileURL:        s.repairGitHubURL(ctx, member),
		}
		if frag.IsEmpty() {
			continue
		}

		if cents(member.TotalAmountDonated) > donorCents {
			donors = append(donors, frag)
		}
		if member.LastTransactionAt != "" && cents(member.LastTransactionAmount) > sponsorCents {
			if at, perr := time.Parse(ocTimeLayout, member.LastTransactionAt); perr == nil && at.After(monthAgo) {
				sponsors = append(sponsors, frag)
			}
		}
	}
	return sponsors, donors, nil
}

// repairGitHubURL verifies the member's hosting-profile URL, deriving a
// candidate from the collective profile slug when none was returned. The
// field is cleared when the candidate does not resolve.
func (s *OpenCollectiveSource) repairGitHubURL(ctx context.Context, member ocMember) string {
	candidate := member.GitHub
	if candidate == "" {
		slug := strings.TrimPrefix(member.Profile, OpenCollectiveHost+"/")
		if slug == "" || strings.Contains(slug, "/") {
			return ""
		}
		candidate = GitHubProfileHost + "/" + slug
	}
	if _, err := s.engine.FetchURL(ctx, candidate); err != nil {
		logger.WithField("url", candidate).Debugf("hosting profile did not resolve, clearing")
		return ""
	}
	return candidate
}

// cents converts a currency-unit amount to whole cents.
func cents(amount float64) int {
	return int(amount * 100)
}
