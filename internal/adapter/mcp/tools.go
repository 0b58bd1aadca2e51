package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/event"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.rankActionsTool(),
		s.getSwarmSnapshotTool(),
		s.listAgentsTool(),
	)
}

func (s *Server) rankActionsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("rank_actions",
		mcplib.WithDescription("Rank the next-best actions for a business event and materialize tasks and drafts"),
		mcplib.WithObject("context",
			mcplib.Required(),
			mcplib.Description("Orchestration context: event, optional customer, active offers and objectives"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleRankActions}
}

func (s *Server) getSwarmSnapshotTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_swarm_snapshot",
		mcplib.WithDescription("Get the recorded steps, messages and handoffs of a swarm run"),
		mcplib.WithString("run_id",
			mcplib.Required(),
			mcplib.Description("The swarm run ID"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetSwarmSnapshot}
}

func (s *Server) listAgentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_agents",
		mcplib.WithDescription("List the registered agents, optionally only those handling an event type"),
		mcplib.WithString("event_type",
			mcplib.Description("Restrict the list to specialists supporting this event type"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListAgents}
}

func (s *Server) handleRankActions(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Ranker == nil {
		return mcplib.NewToolResultError("ranker not configured"), nil
	}
	raw, ok := req.GetArguments()["context"]
	if !ok {
		return mcplib.NewToolResultError("context is required"), nil
	}
	// Arguments arrive as generic JSON values; round-trip them into the typed context.
	data, err := json.Marshal(raw)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("invalid context", err), nil
	}
	var octx orchestration.Context
	if err := json.Unmarshal(data, &octx); err != nil {
		return mcplib.NewToolResultErrorFromErr("invalid context", err), nil
	}

	out, err := s.deps.Ranker.Orchestrate(ctx, &octx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("ranking failed", err), nil
	}
	return toolResultJSON(out)
}

func (s *Server) handleGetSwarmSnapshot(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Snapshots == nil {
		return mcplib.NewToolResultError("snapshot reader not configured"), nil
	}
	runID, ok := req.GetArguments()["run_id"].(string)
	if !ok || runID == "" {
		return mcplib.NewToolResultError("run_id is required"), nil
	}
	snap, err := s.deps.Snapshots.Snapshot(ctx, runID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get swarm run %s", runID), err), nil
	}
	return toolResultJSON(snap)
}

func (s *Server) handleListAgents(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Agents == nil {
		return mcplib.NewToolResultError("agent registry not configured"), nil
	}
	profiles := s.deps.Agents.Profiles()
	if raw, _ := req.GetArguments()["event_type"].(string); raw != "" {
		t := event.Type(raw)
		if !t.Valid() {
			return mcplib.NewToolResultError("unknown event_type " + raw), nil
		}
		profiles = s.deps.Agents.Supporting(t)
	}
	if profiles == nil {
		profiles = []agent.Profile{}
	}
	return toolResultJSON(profiles)
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
