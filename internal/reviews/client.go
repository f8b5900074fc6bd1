// Package reviews fetches the consultancy's Sheets-backed review feed.
// The feed is decoration for the marketing pages: fetches are
// best-effort, responses are cached, and on failure the client serves
// the last good snapshot or an empty list, never an error.
package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const cacheTTL = 5 * time.Minute

// Review is one published client testimonial.
type Review struct {
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
	Date    string `json:"date,omitempty"`
}

// Client polls the feed URL and caches the parsed result.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	cached    []Review
	fetchedAt time.Time
}

// NewClient returns a client. With an empty baseURL, Fetch always
// returns an empty list.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Fetch returns the review feed. A fresh cache short-circuits the
// request; a failed refresh falls back to the stale cache, then to an
// empty list.
func (c *Client) Fetch(ctx context.Context) []Review {
	if c.baseURL == "" {
		return []Review{}
	}
	c.mu.Lock()
	if time.Since(c.fetchedAt) < cacheTTL && c.cached != nil {
		out := c.cached
		c.mu.Unlock()
		return out
	}
	c.mu.Unlock()

	fresh, err := c.refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reviews: refresh failed, serving cache")
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cached != nil {
			return c.cached
		}
		return []Review{}
	}

	c.mu.Lock()
	c.cached = fresh
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return fresh
}

func (c *Client) refresh(ctx context.Context) ([]Review, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}
	var out []Review
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Review{}
	}
	return out, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.code)
}
