// Package mcp implements the Model Context Protocol server for the tool catalog.
//
// The MCP server exposes the same reads as the HTTP API through MCP tools,
// resources and prompts, so MCP-compatible agents can look up AI tools
// without scraping the JSON endpoints.
package mcp

import (
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/aitools/internal/service/catalog"
)

// Server wraps the MCP server with the catalog service.
type Server struct {
	mcpServer *mcpserver.MCPServer
	svc       *catalog.Service
	logger    *slog.Logger
}

// New creates and configures a new MCP server with all resources, tools and prompts.
func New(svc *catalog.Service, logger *slog.Logger, version string) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"aitools",
		version,
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
	)

	s.registerResources()
	s.registerTools()
	s.registerPrompts()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
