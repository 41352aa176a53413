package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the ScamShield MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolCheckNumber = mcp.NewTool("check_number",
	mcp.WithDescription(
		"Look up a phone number in the ScamShield community reputation database. "+
			"Returns the trust score (0-100), community tags, report count, and whether "+
			"the number is considered risky. Unknown numbers get a neutral default."),
	mcp.WithString("number",
		mcp.Required(),
		mcp.Description("The phone number to check (e.g. '+84912345678' or a local form like '0912 345 678')")),
)

var ToolClassifyMessage = mcp.NewTool("classify_message",
	mcp.WithDescription(
		"Classify a text message as safe, suspicious, or scam using ScamShield's "+
			"offline keyword heuristics. Works without network access. Returns the "+
			"verdict and a short explanation suitable for showing to the user."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The message text to classify")),
)

var ToolReportNumber = mcp.NewTool("report_number",
	mcp.WithDescription(
		"Report a phone number to the ScamShield community database. "+
			"The report replaces the number's current record: 'safe' reports set a "+
			"high trust score, 'scam' and 'spam' reports set a low one."),
	mcp.WithString("number",
		mcp.Required(),
		mcp.Description("The phone number being reported")),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Report category"),
		mcp.Enum("scam", "spam", "safe")),
	mcp.WithString("label",
		mcp.Description("Optional short description, e.g. 'Fake bank call'")),
)
