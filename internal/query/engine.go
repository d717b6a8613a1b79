// Package query issues REST and GraphQL calls against the hosting platform
// and other JSON APIs through a bounded concurrency pool, with rate-limit
// retry and multi-page aggregation.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alimgiray/backers/internal/auth"
	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/pkg/logger"
	"golang.org/x/sync/semaphore"
)

// DefaultRetryDelay is the wait applied after an HTTP 429 before retrying.
// Rate-limit windows are externally fixed, so the delay does not grow.
const DefaultRetryDelay = 60 * time.Second

// Cache stores raw response bodies keyed by URL. Offline requests are
// answered from the cache instead of the network.
type Cache interface {
	Get(url string) ([]byte, bool)
	Put(url string, body []byte) error
}

// RemoteError is any HTTP, GraphQL, or payload failure, chained with the
// originating cause and the offending URL.
type RemoteError struct {
	URL string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote request to %s failed: %v", e.URL, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func remoteErr(u string, format string, args ...any) error {
	return &RemoteError{URL: u, Err: fmt.Errorf(format, args...)}
}

// Config configures an Engine.
type Config struct {
	Credentials models.Credentials
	// Concurrency bounds in-flight requests across the engine; zero means
	// unbounded.
	Concurrency int64
	// RetryDelay is the fixed wait after a 429; zero selects DefaultRetryDelay.
	RetryDelay time.Duration
	// MaxRetries caps 429 retries; zero retries indefinitely, matching the
	// externally fixed rate-limit window behavior.
	MaxRetries int
	// Offline answers every request from Cache and never touches the network.
	Offline bool
	Cache   Cache
	// HTTPClient overrides the default client (with an access token, an
	// oauth2 client carrying the token; otherwise http.DefaultClient).
	HTTPClient *http.Client
}

// Engine is the shared transport for every source adapter.
type Engine struct {
	creds      models.Credentials
	client     *http.Client
	sem        *semaphore.Weighted
	retryDelay time.Duration
	maxRetries int
	offline    bool
	cache      Cache
	requests   atomic.Int64
}

// NewEngine creates a query engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		creds:      cfg.Credentials,
		client:     cfg.HTTPClient,
		retryDelay: cfg.RetryDelay,
		maxRetries: cfg.MaxRetries,
		offline:    cfg.Offline,
		cache:      cfg.Cache,
	}
	if e.client == nil {
		e.client = auth.Client(context.Background(), cfg.Credentials)
	}
	if e.retryDelay <= 0 {
		e.retryDelay = DefaultRetryDelay
	}
	if cfg.Concurrency > 0 {
		e.sem = semaphore.NewWeighted(cfg.Concurrency)
	}
	return e
}

// Requests returns the number of HTTP requests issued so far.
func (e *Engine) Requests() int64 {
	return e.requests.Load()
}

// Request describes one REST-style query against the hosting platform API.
type Request struct {
	// Pathname is the API path, e.g. "repos/owner/name/contributors".
	Pathname string
	Params   url.Values
	// Size enables pagination: pages of Size items are fetched and
	// concatenated until a short page arrives.
	Size int
	// Pages caps the number of pages fetched; zero means no cap.
	Pages int
}

// Fetch performs a single authorized REST call and returns the raw payload.
func (e *Engine) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	u, err := auth.AuthorizedURL(req.Pathname, req.Params, e.creds)
	if err != nil {
		return nil, err
	}
	return e.get(ctx, u.String(), true)
}

// FetchPaged performs an authorized REST call with automatic pagination,
// concatenating page items until a short page or the configured page cap.
func (e *Engine) FetchPaged(ctx context.Context, req Request) ([]json.RawMessage, error) {
	if req.Size <= 0 {
		raw, err := e.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		return items(raw, "")
	}

	var all []json.RawMessage
	for page := 1; ; page++ {
		params := url.Values{}
		for k, v := range req.Params {
			params[k] = v
		}
		params.Set("per_page", strconv.Itoa(req.Size))
		params.Set("page", strconv.Itoa(page))

		u, err := auth.AuthorizedURL(req.Pathname, params, e.creds)
		if err != nil {
			return nil, err
		}
		raw, err := e.get(ctx, u.String(), true)
		if err != nil {
			return nil, err
		}
		pageItems, err := items(raw, u.String())
		if err != nil {
			return nil, err
		}
		all = append(all, pageItems...)
		if len(pageItems) < req.Size {
			break
		}
		if req.Pages > 0 && page >= req.Pages {
			break
		}
	}
	return all, nil
}

// FetchURL performs an unauthenticated GET against an absolute URL, sharing
// the engine's pool, retry, and cache behavior. Used for the financial
// platform APIs and URL verification.
func (e *Engine) FetchURL(ctx context.Context, rawurl string) ([]byte, error) {
	return e.get(ctx, rawurl, false)
}

// GraphQL performs a single-page GraphQL call. Pagination is the caller's
// responsibility via cursor fields in the payload.
func (e *Engine) GraphQL(ctx context.Context, gql string, variables map[string]any) (json.RawMessage, error) {
	endpoint := auth.GraphQLEndpoint(e.creds)
	body, err := json.Marshal(map[string]any{"query": gql, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	raw, err := e.do(ctx, http.MethodPost, endpoint, body, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return json.RawMessage("{}"), remoteErr(endpoint, "failed to parse graphql response: %w", err)
	}
	if len(payload.Errors) > 0 {
		msgs := make([]string, 0, len(payload.Errors))
		for _, ge := range payload.Errors {
			msgs = append(msgs, ge.Message)
		}
		return nil, remoteErr(endpoint, "graphql errors: %s", strings.Join(msgs, "; "))
	}
	if payload.Message != "" {
		return nil, remoteErr(endpoint, "graphql error: %s", payload.Message)
	}
	return payload.Data, nil
}

// get performs a GET through the cache and pool. API-host payloads are
// additionally validated for embedded error fields; raw-content fetches are
// not, since arbitrary documents may legitimately carry a "message" key.
func (e *Engine) get(ctx context.Context, rawurl string, authorized bool) (json.RawMessage, error) {
	raw, err := e.do(ctx, http.MethodGet, rawurl, nil, authorized)
	if err != nil {
		return nil, err
	}
	if authorized {
		if err := embeddedError(raw, rawurl); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// do issues one HTTP request through the semaphore gate, retrying after the
// configured delay on 429.
func (e *Engine) do(ctx context.Context, method, rawurl string, body []byte, authorized bool) ([]byte, error) {
	if e.cache != nil && method == http.MethodGet {
		if cached, ok := e.cache.Get(rawurl); ok && e.offline {
			return cached, nil
		}
	}
	if e.offline {
		return nil, remoteErr(auth.RedactSecrets(rawurl, e.creds), "offline mode and no cached response")
	}

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer e.sem.Release(1)
	}

	redacted := auth.RedactSecrets(rawurl, e.creds)
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, rawurl, bytes.NewReader(body))
		if err != nil {
			return nil, remoteErr(redacted, "failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if authorized && e.creds.AccessToken == "" && auth.HasCredentials(e.creds) {
			header, err := auth.AuthHeader(e.creds)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", header)
		}

		e.requests.Add(1)
		resp, err := e.client.Do(req)
		if err != nil {
			return nil, remoteErr(redacted, "request failed: %w", err)
		}
		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, remoteErr(redacted, "failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if e.maxRetries > 0 && attempt >= e.maxRetries {
				return nil, remoteErr(redacted, "rate limited after %d retries", attempt)
			}
			logger.WithField("url", redacted).Warnf("rate limited, retrying in %s", e.retryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryDelay):
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, remoteErr(redacted, "unexpected status %d: %s", resp.StatusCode, statusMessage(payload))
		}

		if e.cache != nil && method == http.MethodGet {
			if err := e.cache.Put(rawurl, payload); err != nil {
				logger.WithError(err).WithField("url", redacted).Warn("failed to cache response")
			}
		}
		return payload, nil
	}
}

// items interprets a page payload as either a bare array or an object with an
// "items" array. Any other shape when pagination was requested is fatal.
func items(raw json.RawMessage, u string) ([]json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var wrapped struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return nil, remoteErr(u, "paginated payload is neither an array nor an items object")
}

// embeddedError detects error payloads hidden inside successful responses.
func embeddedError(raw json.RawMessage, u string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var payload struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return remoteErr(u, "failed to parse response: %w", err)
	}
	if len(payload.Errors) > 0 {
		msgs := make([]string, 0, len(payload.Errors))
		for _, pe := range payload.Errors {
			msgs = append(msgs, pe.Message)
		}
		return remoteErr(u, "error payload: %s", strings.Join(msgs, "; "))
	}
	if payload.Message != "" {
		return remoteErr(u, "error payload: %s", payload.Message)
	}
	return nil
}

// statusMessage extracts a human-readable message from an error response body.
func statusMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	s := strings.TrimSpace(string(payload))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
