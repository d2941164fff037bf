// Package runbookhandler implements the `runbook` tool: list/get against
// the persisted runbook catalog, and run to invoke the Runbook Engine as a
// dispatched tool call so its audit/redaction/policy treatment matches any
// other tool (spec §4.4, SPEC_FULL.md §12).
package runbookhandler

import (
	"context"

	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/runbook"
	"github.com/opsgate/opsgate/internal/store"
)

type Handler struct {
	catalog *store.RunbookCatalog
	engine  *runbook.Engine
}

func New(c *store.RunbookCatalog, e *runbook.Engine) *Handler {
	return &Handler{catalog: c, engine: e}
}

func (h *Handler) Call(ctx context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	switch action {
	case "get":
		return h.get(args)
	case "list":
		return h.list(args)
	case "run":
		return h.run(ctx, args)
	default:
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "runbook supports get, list, run")
	}
}

func (h *Handler) get(args map[string]any) (any, *envelope.ToolError) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_name", "runbook.get requires name")
	}
	rb, ok := h.catalog.GetRunbook(name)
	if !ok {
		return nil, envelope.New(envelope.KindNotFound, "runbook_not_found", "no such runbook: "+name)
	}
	return rb, nil
}

func (h *Handler) list(args map[string]any) (any, *envelope.ToolError) {
	all := h.catalog.List()
	items := make([]map[string]any, 0, len(all))
	for _, rb := range all {
		items = append(items, map[string]any{
			"name":        rb.Name,
			"description": rb.Description,
			"tags":        rb.Tags,
			"steps":       len(rb.Steps),
		})
	}
	var la catalog.ListArgs
	if q, ok := args["query"].(string); ok {
		la.Query = q
	}
	if l, ok := args["limit"].(float64); ok {
		n := int(l)
		la.Limit = &n
	}
	if o, ok := args["offset"].(float64); ok {
		la.Offset = int(o)
	}
	page, meta := catalog.Paginate(items, la)
	return map[string]any{"items": page, "meta": meta}, nil
}

func (h *Handler) run(ctx context.Context, args map[string]any) (any, *envelope.ToolError) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_name", "runbook.run requires name")
	}
	rb, ok := h.catalog.GetRunbook(name)
	if !ok {
		return nil, envelope.New(envelope.KindNotFound, "runbook_not_found", "no such runbook: "+name)
	}
	input, _ := args["input"].(map[string]any)

	parent := envelope.Trace{TraceID: envelope.NewID(), SpanID: envelope.NewID()}
	result, _ := h.engine.Run(ctx, rb, input, parent)
	if !result.Success {
		return nil, result.Error
	}
	return result.Result, nil
}
