package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all screening tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("instakyc-screening", "1.0.0")
	client := NewScreeningClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolSearchSanctions, h.HandleSearchSanctions)
	s.AddTool(ToolAssessAddress, h.HandleAssessAddress)
	s.AddTool(ToolScreeningStatus, h.HandleScreeningStatus)
	s.AddTool(ToolEnqueueScreening, h.HandleEnqueueScreening)
	s.AddTool(ToolGetTask, h.HandleGetTask)

	return s
}
