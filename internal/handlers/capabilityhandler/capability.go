// Package capabilityhandler implements the `capability` tool: list/get
// against the loaded intent capability catalog (spec §4.7, SPEC_FULL.md §12).
package capabilityhandler

import (
	"context"

	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/intent"
)

type Handler struct {
	catalog *intent.Catalog
}

func New(c *intent.Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) Call(_ context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	switch action {
	case "get":
		return h.get(args)
	case "list":
		return h.list(args)
	default:
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "capability supports get, list")
	}
}

func (h *Handler) describe(c intent.Capability) map[string]any {
	plan := c.RunbookName
	if plan == "" {
		plan = "inline"
	}
	return map[string]any{
		"intent_type": c.IntentType,
		"match_expr":  c.MatchExpr,
		"priority":    c.Priority,
		"plan":        plan,
	}
}

func (h *Handler) get(args map[string]any) (any, *envelope.ToolError) {
	intentType, _ := args["intent_type"].(string)
	if intentType == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_intent_type", "capability.get requires intent_type")
	}
	for _, c := range h.catalog.Entries() {
		if c.IntentType == intentType {
			return h.describe(c), nil
		}
	}
	return nil, envelope.New(envelope.KindNotFound, "capability_not_found", "no capability registered for intent_type: "+intentType)
}

func (h *Handler) list(args map[string]any) (any, *envelope.ToolError) {
	entries := h.catalog.Entries()
	items := make([]map[string]any, 0, len(entries))
	for _, c := range entries {
		items = append(items, h.describe(c))
	}
	var la catalog.ListArgs
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
