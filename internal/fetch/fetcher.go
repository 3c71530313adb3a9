// Package fetch performs the remote story search.
//
// The endpoint is the HN Algolia search API (or anything that speaks its
// response shape): GET <endpoint>?query=<q> returning {"hits": [...]}.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/abelbrown/stories/internal/stories"
)

// DefaultEndpoint is the public HN Algolia search endpoint.
const DefaultEndpoint = "https://hn.algolia.com/api/v1/search"

var (
	// ErrStatus is returned for any non-2xx response.
	ErrStatus = errors.New("unexpected status")
	// ErrDecode is returned when the body is not a valid search response.
	ErrDecode = errors.New("malformed response")
)

// searchResponse is the subset of the Algolia response we read.
type searchResponse struct {
	Hits []stories.Story `json:"hits"`
}

// Fetcher runs searches against a remote endpoint.
type Fetcher struct {
	endpoint *url.URL
	client   *http.Client
	limiter  *rate.Limiter
	policy   *bluemonday.Policy
}

// NewFetcher creates a Fetcher for endpoint with the given HTTP client
// timeout. perSecond caps outgoing requests; zero or less means no cap.
func NewFetcher(endpoint string, timeout time.Duration, perSecond float64) (*Fetcher, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse endpoint: unsupported scheme %q", u.Scheme)
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &Fetcher{
		endpoint: u,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
		policy:   bluemonday.StrictPolicy(),
	}, nil
}

// Search returns the hits for query in the order the endpoint sent them.
// Hits without an objectID are dropped. Title and author are stripped of
// markup.
//
// The function respects context cancellation and will return early
// if the context is cancelled.
func (f *Fetcher) Search(ctx context.Context, query string) ([]stories.Story, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stories/0.1 (+https://github.com/abelbrown/stories)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if body.Hits == nil {
		return nil, fmt.Errorf("%w: missing hits", ErrDecode)
	}

	items := make([]stories.Story, 0, len(body.Hits))
	for _, hit := range body.Hits {
		if hit.ObjectID == "" {
			continue
		}
		hit.Title = f.clean(hit.Title)
		hit.Author = f.clean(hit.Author)
		items = append(items, hit)
	}
	return items, nil
}

// searchURL returns the endpoint with query set, keeping any parameters
// already present on the endpoint.
func (f *Fetcher) searchURL(query string) string {
	u := *f.endpoint
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()
	return u.String()
}

// clean strips markup and decodes entities so the text is safe to draw in
// a terminal.
func (f *Fetcher) clean(s string) string {
	if s == "" {
		return s
	}
	return html.UnescapeString(f.policy.Sanitize(s))
}
