// Package mcp exposes the recipe pipeline as MCP tools so AI agents can
// search, adapt and select recipes on a user's behalf.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/plateful/platefinder/internal/pipeline"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes recipe search tools.
type Server struct {
	orch *pipeline.Orchestrator
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server over the given orchestrator.
func NewServer(orch *pipeline.Orchestrator) *Server {
	s := &Server{orch: orch}

	s.mcp = server.NewMCPServer(
		"platefinder",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(findRecipesTool, s.handleFindRecipes)
	s.mcp.AddTool(selectRecipeTool, s.handleSelectRecipe)
	s.mcp.AddTool(adaptRecipeTool, s.handleAdaptRecipe)
	s.mcp.AddTool(resetSessionTool, s.handleResetSession)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
