package tron

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/retry"
)

const (
	fetchAttempts  = 3
	fetchBaseDelay = 150 * time.Millisecond
)

// ClientConfig holds the explorer API settings.
type ClientConfig struct {
	// AccountURL is the account endpoint, queried with ?address=<addr>.
	AccountURL string
	// Timeout bounds a single telemetry fetch.
	Timeout time.Duration
	// UserAgent optionally overrides the outbound User-Agent header.
	UserAgent string
}

// Client fetches account telemetry from the explorer API.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates an explorer API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	return &Client{cfg: cfg, httpClient: &http.Client{}}
}

// FetchAccount retrieves the raw telemetry document for an address.
// Transient transport failures and 5xx responses are retried with backoff.
// All failures wrap ErrTelemetryUnavailable so callers can report upstream
// unavailability without crashing.
func (c *Client) FetchAccount(ctx context.Context, address string) (Telemetry, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrInvalidAddress
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.AccountURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad account URL: %v", ErrTelemetryUnavailable, err)
	}
	q := u.Query()
	q.Set("address", address)
	u.RawQuery = q.Encode()

	var payload Telemetry
	err = retry.Do(ctx, fetchAttempts, fetchBaseDelay, func() error {
		p, err := c.fetchOnce(ctx, u.String())
		if err != nil {
			return err
		}
		payload = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) fetchOnce(ctx context.Context, fetchURL string) (Telemetry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %v", ErrTelemetryUnavailable, err))
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTelemetryUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: unexpected status %d", ErrTelemetryUnavailable, resp.StatusCode)
		// Client errors won't improve on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var payload Telemetry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: decode payload: %v", ErrTelemetryUnavailable, err))
	}
	return payload, nil
}
