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

	"github.com/tmnguyen/scamshield/internal/retry"
)

// Config holds the configuration for connecting to the ScamShield API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
	UserID string // Optional user id forwarded as X-User-ID
}

// Client is a pure HTTP client for the ScamShield API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
// Network failures get one retry with backoff; API errors do not, since the
// server already gave its answer.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	var data []byte
	if body != nil {
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var out json.RawMessage
	err = retry.Do(ctx, 2, 200*time.Millisecond, func() error {
		var reqBody io.Reader
		if data != nil {
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}

		if c.cfg.UserID != "" {
			req.Header.Set("X-User-ID", c.cfg.UserID)
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message))
			}
			return retry.Permanent(fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody)))
		}

		out = json.RawMessage(respBody)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckNumber looks a number up in the reputation store.
func (c *Client) CheckNumber(ctx context.Context, number string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/reputation/"+url.PathEscape(number), nil)
}

// ReportNumber submits a community report.
func (c *Client) ReportNumber(ctx context.Context, number, category, label string) (json.RawMessage, error) {
	body := map[string]string{
		"number":   number,
		"category": category,
		"label":    label,
	}
	return c.doRequest(ctx, http.MethodPost, "/v1/reputation/report", body)
}
