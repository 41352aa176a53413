package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tmnguyen/scamshield/internal/classify"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *Client
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *Client) *Handlers {
	return &Handlers{client: client}
}

// lookupResponse mirrors the API's reputation payload.
type lookupResponse struct {
	Record struct {
		Number      string   `json:"number"`
		Carrier     string   `json:"carrier"`
		Tags        []string `json:"tags"`
		ReportCount int      `json:"reportCount"`
		Score       int      `json:"score"`
		Label       string   `json:"label"`
	} `json:"record"`
	Risky bool `json:"risky"`
}

// HandleCheckNumber looks up a number's community reputation.
func (h *Handlers) HandleCheckNumber(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number := req.GetString("number", "")
	if number == "" {
		return mcp.NewToolResultError("number is required"), nil
	}

	raw, err := h.client.CheckNumber(ctx, number)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check number: %v", err)), nil
	}

	var resp lookupResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse lookup: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Number: %s\n", resp.Record.Number)
	fmt.Fprintf(&sb, "Trust score: %d/100\n", resp.Record.Score)
	if resp.Risky {
		sb.WriteString("Verdict: RISKY - warn the user before they engage\n")
	} else {
		sb.WriteString("Verdict: no known risk\n")
	}
	if len(resp.Record.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(resp.Record.Tags, ", "))
	}
	fmt.Fprintf(&sb, "Reports: %d\n", resp.Record.ReportCount)
	if resp.Record.Label != "" {
		fmt.Fprintf(&sb, "Label: %s\n", resp.Record.Label)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleClassifyMessage classifies a message with the offline heuristics.
// Deliberately does not call the API or the generative model so the tool
// works without any network or key.
func (h *Handlers) HandleClassifyMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	verdict := classify.FallbackClassify(classify.Sanitize(text))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Verdict: %s\n", verdict.Verdict)
	fmt.Fprintf(&sb, "Explanation: %s\n", verdict.Explanation)

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleReportNumber submits a community report.
func (h *Handlers) HandleReportNumber(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number := req.GetString("number", "")
	if number == "" {
		return mcp.NewToolResultError("number is required"), nil
	}
	category := req.GetString("category", "")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	label := req.GetString("label", "")

	raw, err := h.client.ReportNumber(ctx, number, category, label)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to report number: %v", err)), nil
	}

	var resp struct {
		Record struct {
			Number string `json:"number"`
			Score  int    `json:"score"`
		} `json:"record"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse report result: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Report recorded for %s (category: %s). New trust score: %d/100.",
		resp.Record.Number, category, resp.Record.Score)), nil
}
