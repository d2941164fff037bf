// Package audithandler exposes read access to the Audit Sink so operators
// and agents can inspect the trail the Tool Executor writes on every call
// (spec §4.9, SPEC_FULL.md §12).
package audithandler

import (
	"context"

	"github.com/opsgate/opsgate/internal/audit"
	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
)

type Handler struct {
	sink *audit.Sink
}

func New(s *audit.Sink) *Handler {
	return &Handler{sink: s}
}

func (h *Handler) Call(_ context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	if action != "" && action != "list" {
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "audit supports list")
	}
	records, err := h.sink.List()
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "read_failed", err.Error())
	}

	tool, _ := args["tool"].(string)
	failedOnly, _ := args["failed_only"].(bool)

	filtered := make([]audit.Record, 0, len(records))
	for _, r := range records {
		if tool != "" && r.Tool != tool {
			continue
		}
		if failedOnly && r.Success {
			continue
		}
		filtered = append(filtered, r)
	}

	var la catalog.ListArgs
	if l, ok := args["limit"].(float64); ok {
		n := int(l)
		la.Limit = &n
	}
	if o, ok := args["offset"].(float64); ok {
		la.Offset = int(o)
	}
	page, meta := catalog.Paginate(filtered, la)
	return map[string]any{"items": page, "meta": meta}, nil
}
