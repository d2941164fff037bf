// Package help implements the catalog/help tool (spec §4.8): agents use it
// to discover available tools, their schemas, and alias hints without
// needing the JSON-RPC tools/list round trip.
package help

import (
	"context"

	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
)

type Handler struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Handler {
	return &Handler{catalog: c}
}

// Bind swaps in the Catalog after construction. The catalog/help tool's own
// Descriptor must be registered before the Registry it describes can be
// built, so its handler starts with a placeholder and is bound to the real,
// self-inclusive Catalog once the Registry is frozen.
func (h *Handler) Bind(c *catalog.Catalog) {
	h.catalog = c
}

func (h *Handler) Call(_ context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	switch action {
	case "get":
		return h.get(args)
	case "search":
		return h.search(args)
	case "aliases":
		return map[string]any{"aliases": h.catalog.AliasHints()}, nil
	case "", "list":
		return h.list(args)
	default:
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "catalog supports list, get, search, aliases")
	}
}

func (h *Handler) get(args map[string]any) (any, *envelope.ToolError) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_name", "catalog.get requires name")
	}
	entry, ok := h.catalog.Get(name)
	if !ok {
		return nil, envelope.New(envelope.KindNotFound, "tool_not_found", "no such tool: "+name)
	}
	return entry, nil
}

func (h *Handler) search(args map[string]any) (any, *envelope.ToolError) {
	query, _ := args["query"].(string)
	results := h.catalog.Search(query)
	return listResult(results, args), nil
}

func (h *Handler) list(args map[string]any) (any, *envelope.ToolError) {
	return listResult(h.catalog.Entries(), args), nil
}

func listResult(entries []catalog.Entry, args map[string]any) map[string]any {
	var la catalog.ListArgs
	if l, ok := args["limit"].(float64); ok {
		n := int(l)
		la.Limit = &n
	}
	if o, ok := args["offset"].(float64); ok {
		la.Offset = int(o)
	}
	page, meta := catalog.Paginate(entries, la)
	return map[string]any{"items": page, "meta": meta}
}
