// Package mcp exposes client scores and session history to MCP clients.
package mcp

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCoach training server. Look up clients, their FitScore and its components, and the sessions they have trained."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListClients, Handler: h.listClients},
		server.ServerTool{Tool: toolGetFitScore, Handler: h.getFitScore},
		server.ServerTool{Tool: toolGetClientSessions, Handler: h.getClientSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
	)

	s.AddResources(
		server.ServerResource{Resource: resScoreCategories, Handler: h.scoreCategories},
		server.ServerResource{Resource: resClientRoster, Handler: h.clientRoster},
	)

	return s
}

// ServeStdio runs s on stdin/stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}
