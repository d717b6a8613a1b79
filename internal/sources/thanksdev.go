package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
)

// ThanksDevHost is the financial-backing API host for the ThanksDev platform.
// A variable so tests can point it at a local server.
var ThanksDevHost = "https://api.thanks.dev"

// ThanksDevSource adapts the ThanksDev donations API. A 30-day window
// classifies sponsors; the all-time window classifies donors.
type ThanksDevSource struct {
	engine *query.Engine
}

// NewThanksDevSource creates a ThanksDev source over the given engine.
func NewThanksDevSource(engine *query.Engine) *ThanksDevSource {
	return &ThanksDevSource{engine: engine}
}

// thanksDevDonor is one donor record from the ThanksDev API. Cents is a
// pointer because the amount is not always disclosed.
type thanksDevDonor struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	GitHubUsername string `json:"githubUsername"`
	URL            string `json:"url"`
	Cents          *int   `json:"cents"`
}

// Sponsors returns donors within the last 30 days that clear the threshold.
func (s *ThanksDevSource) Sponsors(ctx context.Context, username string, centsThreshold int) ([]models.Fragment, error) {
	return s.fetch(ctx, username, "30", centsThreshold)
}

// Donors returns all-time donors that clear the threshold.
func (s *ThanksDevSource) Donors(ctx context.Context, username string, centsThreshold int) ([]models.Fragment, error) {
	return s.fetch(ctx, username, "", centsThreshold)
}

func (s *ThanksDevSource) fetch(ctx context.Context, username, periodDays string, centsThreshold int) ([]models.Fragment, error) {
	endpoint := fmt.Sprintf("%s/v1/gh/%s/donors", ThanksDevHost, url.PathEscape(username))
	if periodDays != "" {
		endpoint += "?period=" + periodDays
	}

	raw, err := s.engine.FetchURL(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thanksdev donors for %s: %w", username, err)
	}

	var payload struct {
		Donors []thanksDevDonor `json:"donors"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse thanksdev donors for %s: %w", username, err)
	}

	var fragments []models.Fragment
	for _, donor := range payload.Donors {
		// Zero-amount records are excluded; the threshold applies only when
		// the amount is disclosed.
		if donor.Cents != nil && (*donor.Cents == 0 || *donor.Cents < centsThreshold) {
			continue
		}
		frag := models.Fragment{
			Name:         donor.Name,
			Email:        donor.Email,
			Username:     donor.GitHubUsername,
			ThanksDevURL: donor.URL,
		}
		if donor.GitHubUsername != "" {
			frag.ProfileURL = GitHubProfileHost + "/" + donor.GitHubUsername
		}
		if frag.IsEmpty() {
			continue
		}
		fragments = append(fragments, frag)
	}
	return fragments, nil
}
