// Package tools registers the MCP tools exposed to the agent. Every tool
// validates its arguments, translates them into a named editor command plus
// a parameter mapping, and renders the reply as a human-readable string.
// Tool failures are returned as error results, never as Go errors.
package tools

import (
	"context"
	"time"

	"github.com/hkaya/unity_mcp_bridge/internal/asset"
	"github.com/hkaya/unity_mcp_bridge/internal/telemetry"
	"github.com/hkaya/unity_mcp_bridge/internal/unity"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handler holds the collaborators the tools delegate to.
type Handler struct {
	sender    unity.CommandSender
	importer  *asset.Importer
	telemetry *telemetry.Telemetry
}

// NewHandler creates a tool handler.
func NewHandler(sender unity.CommandSender, importer *asset.Importer, tel *telemetry.Telemetry) *Handler {
	return &Handler{
		sender:    sender,
		importer:  importer,
		telemetry: tel,
	}
}

// Register adds every tool to the MCP server.
func (h *Handler) Register(s *server.MCPServer) {
	h.registerAssetTools(s)
	h.registerMaterialTools(s)
}

// instrument wraps a tool handler with per-call telemetry.
func (h *Handler) instrument(name string, fn server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		result, err := fn(ctx, req)

		status := "success"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		if h.telemetry != nil {
			h.telemetry.RecordToolCall(name, status, time.Since(start))
		}

		return result, err
	}
}
