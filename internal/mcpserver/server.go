package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all ScamShield tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("scamshield", "0.1.0")
	client := NewClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolCheckNumber, h.HandleCheckNumber)
	s.AddTool(ToolClassifyMessage, h.HandleClassifyMessage)
	s.AddTool(ToolReportNumber, h.HandleReportNumber)

	return s
}
