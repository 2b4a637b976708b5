// Package catalog queries the Google Books volumes API and turns its responses
// into candidate book records. Every failure is logged and degrades to an empty
// result; callers never see a transport error.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Google Books API root.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	defaultMaxResults = 12
	maxMaxResults     = 40 // catalog rejects larger pages

	defaultRPS   = 2.0
	defaultBurst = 5

	maxResponseBytes = 8 << 20
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	// Timeout bounds each request. Zero leaves requests unbounded apart from ctx.
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
}

// Client is a rate-limited catalog client.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	userAgent  string
	maxResults int
}

// New creates a catalog client.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ReadingNook/1.0"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		logger:     logger,
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		userAgent:  opts.UserAgent,
		maxResults: opts.MaxResults,
	}
}

// Close releases resources. Currently a no-op but included for interface consistency.
func (c *Client) Close() {}

// Ping checks that the catalog answers at all. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("q", "isbn:0000000000")
	q.Set("maxResults", "1")
	_, err := c.get(ctx, "/volumes", q)
	return err
}

// statusError is a non-200 catalog response.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog returned status %d", e.status)
}

// get performs one rate-limited GET against the catalog and returns the body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("catalog request", "path", path, "q", query.Get("q"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &statusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
