package auth

import (
	"net/url"
	"testing"

	"github.com/alimgiray/backers/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCredentials(t *testing.T) {
	testCases := []struct {
		name     string
		creds    models.Credentials
		expected bool
	}{
		{
			name:     "Empty credentials",
			creds:    models.Credentials{},
			expected: false,
		},
		{
			name:     "Access token only",
			creds:    models.Credentials{AccessToken: "tok"},
			expected: true,
		},
		{
			name:     "Complete client pair",
			creds:    models.Credentials{ClientID: "id", ClientSecret: "secret"},
			expected: true,
		},
		{
			name:     "Client id without secret",
			creds:    models.Credentials{ClientID: "id"},
			expected: false,
		},
		{
			name:     "Client secret without id",
			creds:    models.Credentials{ClientSecret: "secret"},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, HasCredentials(tc.creds))
			if tc.expected {
				assert.NoError(t, Validate(tc.creds))
			} else {
				assert.ErrorIs(t, Validate(tc.creds), ErrInvalidAuth)
			}
		})
	}
}

func TestAuthHeader(t *testing.T) {
	header, err := AuthHeader(models.Credentials{AccessToken: "tok123"})
	require.NoError(t, err)
	assert.Equal(t, "token tok123", header)

	header, err = AuthHeader(models.Credentials{ClientID: "id", ClientSecret: "sec"})
	require.NoError(t, err)
	assert.Equal(t, "Basic id:sec", header)

	_, err = AuthHeader(models.Credentials{ClientID: "id"})
	assert.ErrorIs(t, err, ErrInvalidAuth)

	_, err = AuthHeader(models.Credentials{})
	assert.ErrorIs(t, err, ErrInvalidAuth)
}

func TestAuthorizedURL(t *testing.T) {
	creds := models.Credentials{AccessToken: "tok"}

	u, err := AuthorizedURL("repos/bevry/github-api", nil, creds)
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/repos/bevry/github-api", u.String())

	// Slashes on either side compose correctly.
	creds.APIHost = "https://ghe.example.com/api/v3/"
	u, err = AuthorizedURL("/repos/bevry/github-api/", url.Values{"per_page": {"2"}}, creds)
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/api/v3/repos/bevry/github-api?per_page=2", u.String())

	// Credentials never leak into the URL.
	assert.NotContains(t, u.String(), "tok")

	_, err = AuthorizedURL("repos/a/b", nil, models.Credentials{})
	assert.ErrorIs(t, err, ErrInvalidAuth)
}

func TestRedactSecrets(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Access token parameter",
			input:    "https://api.github.com/user?access_token=abc123&page=2",
			expected: "https://api.github.com/user?access_token=REDACTED&page=2",
		},
		{
			name:     "Mixed casing",
			input:    "CLIENT_ID=abc&Client_Secret=def",
			expected: "CLIENT_ID=REDACTED&Client_Secret=REDACTED",
		},
		{
			name:     "No secrets",
			input:    "plain text with no parameters",
			expected: "plain text with no parameters",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, RedactSecrets(tc.input))
			// Idempotent: redacting again changes nothing.
			assert.Equal(t, tc.expected, RedactSecrets(tc.expected))
		})
	}
}

func TestRedactSecretsLiteralValues(t *testing.T) {
	creds := models.Credentials{AccessToken: "supersecret", ClientID: "clientid"}
	input := "error while calling https://x.test/supersecret/path with clientid"
	redacted := RedactSecrets(input, creds)
	assert.NotContains(t, redacted, "supersecret")
	assert.NotContains(t, redacted, "clientid")
	assert.Contains(t, redacted, "REDACTED")
	assert.Equal(t, redacted, RedactSecrets(redacted, creds))
}
