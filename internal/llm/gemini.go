package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type geminiRequest struct {
	Contents []content `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com",
		http:    &http.Client{},
	}
}

// WithBaseURL overrides the API endpoint. For tests.
func (c *GeminiClient) WithBaseURL(url string) *GeminiClient {
	c.baseURL = url
	return c
}

func (c *GeminiClient) SourceName() string {
	return "Gemini"
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := []part{{Text: req.Prompt}}
	if len(req.Media) > 0 {
		mime := req.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: mime,
				Data:     base64.StdEncoding.EncodeToString(req.Media),
			},
		})
	}

	body := geminiRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
	return c.generateContent(ctx, body)
}

func (c *GeminiClient) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Single attempt per endpoint, v1beta first then v1. A failed or slow
	// model call falls through to the offline classifier, so retries only
	// add latency.
	endpoints := []string{
		fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey),
		fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey),
	}

	var lastErr error
	for _, ep := range endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
			continue
		}

		var parsed geminiResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			lastErr = fmt.Errorf("failed to parse response: %w", err)
			continue
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrNoContent
			continue
		}
		return parsed.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", lastErr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
