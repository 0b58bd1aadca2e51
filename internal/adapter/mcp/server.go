// Package mcp exposes the ranking engine and swarm history as Model Context
// Protocol tools over streamable HTTP.
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
)

// Ranker runs one synchronous orchestration.
type Ranker interface {
	Orchestrate(ctx context.Context, octx *orchestration.Context) (*orchestration.Output, error)
}

// SnapshotReader returns the recorded history of a swarm run.
type SnapshotReader interface {
	Snapshot(ctx context.Context, runID string) (*swarm.Snapshot, error)
}

// ServerConfig names the server in the MCP handshake.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps are the collaborators behind the tools. A nil dependency makes
// its tool answer with an error result.
type ServerDeps struct {
	Ranker    Ranker
	Snapshots SnapshotReader
	Agents    *agent.Registry
}

// Server wraps an mcp-go server with the ActionForge tools registered.
type Server struct {
	mcpServer *mcpserver.MCPServer
	deps      ServerDeps
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		deps: deps,
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP transport for mounting on a router.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer, mcpserver.WithStateLess(true))
}
