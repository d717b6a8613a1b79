// Package auth validates hosting-platform credentials and builds authorized
// request material. It performs no network I/O.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/alimgiray/backers/internal/models"
	"golang.org/x/oauth2"
)

// DefaultAPIHost is the public REST API host used when no override is set.
const DefaultAPIHost = "https://api.github.com"

// DefaultGraphQLEndpoint is the public GraphQL endpoint used when no override is set.
const DefaultGraphQLEndpoint = "https://api.github.com/graphql"

// ErrInvalidAuth indicates credentials are missing or incomplete.
var ErrInvalidAuth = errors.New("invalid credentials: supply an access token, or a client id and client secret pair")

var secretParamPattern = regexp.MustCompile(`(?i)(access_token|client_id|client_secret)=([^&\s]*)`)

// HasCredentials reports whether creds carry an access token or a complete
// client id and secret pair.
func HasCredentials(creds models.Credentials) bool {
	return creds.AccessToken != "" || (creds.ClientID != "" && creds.ClientSecret != "")
}

// Validate fails with ErrInvalidAuth when HasCredentials is false.
func Validate(creds models.Credentials) error {
	if !HasCredentials(creds) {
		return ErrInvalidAuth
	}
	return nil
}

// AuthHeader builds the Authorization header value for the credentials:
// "token <access_token>" when a token exists, "Basic <id>:<secret>" otherwise.
func AuthHeader(creds models.Credentials) (string, error) {
	if creds.AccessToken != "" {
		return "token " + creds.AccessToken, nil
	}
	if creds.ClientID != "" && creds.ClientSecret != "" {
		return fmt.Sprintf("Basic %s:%s", creds.ClientID, creds.ClientSecret), nil
	}
	return "", ErrInvalidAuth
}

// APIHost returns the REST host for the credentials, falling back to the
// public default.
func APIHost(creds models.Credentials) string {
	if creds.APIHost != "" {
		return creds.APIHost
	}
	return DefaultAPIHost
}

// GraphQLEndpoint returns the GraphQL endpoint for the credentials, falling
// back to the public default.
func GraphQLEndpoint(creds models.Credentials) string {
	if creds.GraphQLHost != "" {
		return creds.GraphQLHost
	}
	return DefaultGraphQLEndpoint
}

// AuthorizedURL joins the credential host with a pathname and query
// parameters. Leading and trailing slashes on both sides are normalized so
// hosts with or without a trailing path segment compose correctly.
// Credentials are never placed in the URL; callers send them via headers.
func AuthorizedURL(pathname string, params url.Values, creds models.Credentials) (*url.URL, error) {
	if err := Validate(creds); err != nil {
		return nil, err
	}
	base := strings.TrimRight(APIHost(creds), "/")
	pathname = strings.Trim(pathname, "/")
	u, err := url.Parse(base + "/" + pathname)
	if err != nil {
		return nil, fmt.Errorf("failed to build url for %q: %w", pathname, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u, nil
}

// Client builds the HTTP client used for API calls. With an access token the
// client carries an oauth2 static token source; otherwise callers attach the
// AuthHeader value themselves.
func Client(ctx context.Context, creds models.Credentials) *http.Client {
	if creds.AccessToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
		return oauth2.NewClient(ctx, ts)
	}
	return http.DefaultClient
}

// RedactSecrets replaces credential-bearing query parameter values in text
// with REDACTED, case-insensitively. When credentials are supplied their
// literal values are also replaced wherever they appear. Redaction is
// idempotent.
func RedactSecrets(text string, creds ...models.Credentials) string {
	text = secretParamPattern.ReplaceAllString(text, "${1}=REDACTED")
	for _, c := range creds {
		for _, secret := range []string{c.AccessToken, c.ClientID, c.ClientSecret} {
			if secret != "" {
				text = strings.ReplaceAll(text, secret, "REDACTED")
			}
		}
	}
	return text
}
