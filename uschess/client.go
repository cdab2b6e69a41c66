// Package uschess fetches member ratings from US Chess. The ratings API
// is the primary source; the legacy MSA member page is scraped as a
// fallback when the API is unavailable.
package uschess

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
)

const userAgent = "chess-tournaments/1.0"

// Client queries US Chess member data. Responses are cached in memory so
// a roster-wide refresh does not hammer the origin; ratings change at
// most a few times a month.
type Client struct {
	httpClient *http.Client
	apiBase    string
	msaBase    string
}

type Option func(*Client)

// WithBaseURLs overrides the API and MSA endpoints, used by tests.
func WithBaseURLs(apiBase, msaBase string) Option {
	return func(c *Client) {
		c.apiBase = apiBase
		c.msaBase = msaBase
	}
}

// WithHTTPClient replaces the cached default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(opts ...Option) *Client {
	transport := httpcache.NewMemoryCacheTransport()
	transport.Transport = &ttlTransport{wrapped: http.DefaultTransport, maxAge: 24 * time.Hour}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: 30 * time.Second},
		apiBase:    "https://ratings-api.uschess.org/api/v1",
		msaBase:    "https://www.uschess.org/msa",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ttlTransport rewrites origin cache headers so responses are cached for
// a fixed TTL regardless of what the server says.
type ttlTransport struct {
	wrapped http.RoundTripper
	maxAge  time.Duration
}

func (t *ttlTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Header.Del("Pragma")
	resp.Header.Del("Expires")
	resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(t.maxAge/time.Second)))
	return resp, nil
}
