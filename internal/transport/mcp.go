// Package transport exposes the Tool Executor over the Model Context
// Protocol's line-delimited JSON-RPC stdio transport, grounded on
// ormasoftchile-gert/pkg/ecosystem/mcp/server.go and
// ormasoftchile-gert/cmd/gert-mcp/main.go's use of
// github.com/mark3labs/mcp-go. Unlike gert's fixed, hand-declared tool set,
// every tool here is generated from the live Tool Registry so the catalog
// and the wire surface can never drift apart. As in
// Hardonian-Reach/services/runner/internal/mcpserver/server.go's callEcho,
// a call's arguments are read straight off the flat CallToolRequest object
// the advertised inputSchema describes, with no nested wrapper.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/executor"
	"github.com/opsgate/opsgate/internal/telemetry"
)

// Server wires the Tool Executor's registered tools onto an MCP stdio
// server. One Server is built per process, after every handler has been
// registered with the Tool Registry.
type Server struct {
	mcp *server.MCPServer
	log *telemetry.Logger
}

// New builds the MCP server and registers one mcp.Tool per catalog entry,
// each one's raw JSON Schema taken straight from the registry Descriptor
// (spec §4.8's inputSchema convention).
func New(version string, cat *catalog.Catalog, exec *executor.Executor, log *telemetry.Logger) (*Server, error) {
	s := server.NewMCPServer("opsgate", version, server.WithToolCapabilities(true))

	for _, entry := range cat.Entries() {
		schema, err := json.Marshal(entry.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("transport: marshal schema for %s: %w", entry.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(entry.Name, entry.Description, schema)
		s.AddTool(tool, toolHandler(entry.Name, exec))
	}

	return &Server{mcp: s, log: log.WithComponent("transport")}, nil
}

// toolHandler adapts one catalog entry into an MCP CallToolRequest handler
// that runs every invocation through the Tool Executor, so JSON-RPC callers
// get the same audit, redaction, and policy treatment as any other caller
// (spec §4.4's "single path" invariant). The call's arguments are exactly
// what the advertised inputSchema describes: a flat object, with no nested
// wrapper. action and deadline_ms are pulled out of that same flat object
// as meta fields; everything else passes through as the tool's args.
func toolHandler(toolName string, exec *executor.Executor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := toToolCall(toolName, req.GetArguments())
		env := exec.Execute(ctx, call)
		data, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("transport: marshal envelope: %w", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(data))},
			IsError: !env.Success,
		}, nil
	}
}

// toToolCall splits a flat tools/call arguments map into an envelope.ToolCall:
// action and deadline_ms are meta fields describing the call, everything
// else is the call's own args. Kept separate from toolHandler so the wire
// shape it assumes can be exercised without an mcp.CallToolRequest.
func toToolCall(toolName string, raw map[string]any) envelope.ToolCall {
	action, _ := raw["action"].(string)
	var deadlineMs int64
	if d, ok := raw["deadline_ms"].(float64); ok {
		deadlineMs = int64(d)
	}

	args := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "action" || k == "deadline_ms" {
			continue
		}
		args[k] = v
	}

	return envelope.ToolCall{Tool: toolName, Action: action, Args: args, DeadlineMs: deadlineMs}
}

// ServeStdio blocks, serving JSON-RPC requests over stdin/stdout until the
// client disconnects. Individual calls still honour per-call deadlines
// through the Tool Executor regardless of this outer loop's lifetime.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
