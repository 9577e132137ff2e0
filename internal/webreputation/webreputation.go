// Package webreputation proxies URL reputation lookups to an external
// scoring service. The gateway adds auth, rate limiting, and metrics in
// front of the upstream but does not reinterpret its verdicts.
package webreputation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/circuitbreaker"
)

const breakerKey = "webreputation"

// Errors reported by the client.
var (
	ErrNotConfigured = errors.New("web reputation upstream not configured")
	ErrInvalidURL    = errors.New("a valid http(s) URL is required")
	ErrUpstream      = errors.New("web reputation upstream unavailable")
)

// Verdict is the upstream's opinion about one URL, passed through as-is.
type Verdict map[string]any

// ClientConfig holds the upstream settings.
type ClientConfig struct {
	// BaseURL is the upstream lookup endpoint. Empty disables the feature.
	BaseURL string
	// Timeout bounds a single lookup.
	Timeout time.Duration
	// UserAgent optionally overrides the outbound User-Agent header.
	UserAgent string
}

// Client performs URL reputation lookups.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a reputation client. Returns nil when no upstream is
// configured so callers can branch on feature availability.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		breaker:    circuitbreaker.New(5, 30*time.Second),
	}
}

// Lookup fetches the upstream verdict for a URL. Consecutive upstream
// failures trip a circuit breaker that sheds lookups until the upstream
// has had time to recover.
func (c *Client) Lookup(ctx context.Context, target string) (Verdict, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}

	target = strings.TrimSpace(target)
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidURL
	}

	if !c.breaker.Allow(breakerKey) {
		return nil, fmt.Errorf("%w: circuit open", ErrUpstream)
	}

	verdict, err := c.lookup(ctx, target)
	if err != nil {
		c.breaker.RecordFailure(breakerKey)
		return nil, err
	}
	c.breaker.RecordSuccess(breakerKey)
	return verdict, nil
}

func (c *Client) lookup(ctx context.Context, target string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad upstream URL: %v", ErrUpstream, err)
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("%w: decode verdict: %v", ErrUpstream, err)
	}
	return verdict, nil
}
