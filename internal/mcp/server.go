// Package mcp serves the issue parser over the Model Context Protocol so
// agents can parse, validate and classify issue bodies as tools.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/steveyegge/triage/internal/parser"
)

// ServerName is the name reported to MCP clients.
const ServerName = "triage"

// Server wraps the MCP server with the parser options tool calls start from.
type Server struct {
	mcp  *server.MCPServer
	base parser.Options
}

// NewServer creates a server whose tools parse with base unless a call
// overrides individual options. A nil base means parser.DefaultOptions.
func NewServer(version string, base *parser.Options) *Server {
	if base == nil {
		base = parser.DefaultOptions()
	}
	s := &Server{
		mcp:  server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		base: *base,
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio until stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(parseIssueTool(), s.handleParseIssue)
	s.mcp.AddTool(validateIssueTool(), s.handleValidateIssue)
	s.mcp.AddTool(classifyIssueTool(), s.handleClassifyIssue)
}
