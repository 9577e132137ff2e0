package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config holds the configuration for connecting to the screening gateway.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
	APIKey string // API key, e.g. "sk_..."
}

// ScreeningClient is a pure HTTP client for the screening gateway API.
type ScreeningClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewScreeningClient creates a new client for the screening gateway.
func NewScreeningClient(cfg Config) *ScreeningClient {
	return &ScreeningClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// apiError represents an error response from the gateway.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the gateway and returns the response body.
func (c *ScreeningClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// SearchSanctions runs a fuzzy name search against the sanctions dataset.
func (c *ScreeningClient) SearchSanctions(ctx context.Context, query string, limit, minScore int, dob string) (json.RawMessage, error) {
	body := map[string]any{"query": query}
	if limit > 0 {
		body["limit"] = limit
	}
	if minScore > 0 {
		body["min_score"] = minScore
	}
	if dob != "" {
		body["dob"] = dob
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/sanctions/search", nil, body)
}

// AssessAddress scores a Tron account by live explorer telemetry.
func (c *ScreeningClient) AssessAddress(ctx context.Context, address string, includeRaw bool) (json.RawMessage, error) {
	body := map[string]any{"address": address}
	if includeRaw {
		body["include_raw"] = true
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/tron/reputation", nil, body)
}

// ScreeningStatus returns subsystem readiness and dataset freshness.
func (c *ScreeningClient) ScreeningStatus(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/screening/status", nil, nil)
}

// EnqueueTask submits a screening task for asynchronous processing.
func (c *ScreeningClient) EnqueueTask(ctx context.Context, taskType string, payload map[string]any) (json.RawMessage, error) {
	body := map[string]any{
		"type":    taskType,
		"payload": payload,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/tasks", nil, body)
}

// GetTask returns the state of a queued screening task.
func (c *ScreeningClient) GetTask(ctx context.Context, taskID string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID), nil, nil)
}
