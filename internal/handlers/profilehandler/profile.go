// Package profilehandler implements the `profile` tool: per-name JSON
// profile get/set/list, plus an export action gated by the Policy Gate's
// secret-export rule (spec §4.3).
package profilehandler

import (
	"context"

	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/store"
)

type Handler struct {
	store *store.ProfileStore
}

func New(s *store.ProfileStore) *Handler {
	return &Handler{store: s}
}

func (h *Handler) Call(_ context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	switch action {
	case "get":
		return h.get(args)
	case "set":
		return h.set(args)
	case "list":
		return h.list(args)
	case "export":
		return h.export(args)
	default:
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "profile supports get, set, list, export")
	}
}

func (h *Handler) get(args map[string]any) (any, *envelope.ToolError) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_name", "profile.get requires name")
	}
	fields, ok, err := h.store.Get(name)
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "read_failed", err.Error())
	}
	if !ok {
		return nil, envelope.New(envelope.KindNotFound, "profile_not_found", "no such profile: "+name)
	}
	return map[string]any{"name": name, "fields": stripSecrets(fields)}, nil
}

func (h *Handler) set(args map[string]any) (any, *envelope.ToolError) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_name", "profile.set requires name")
	}
	fields, _ := args["fields"].(map[string]any)
	saved, err := h.store.Set(name, fields)
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "write_failed", err.Error())
	}
	return map[string]any{"name": name, "fields": stripSecrets(saved)}, nil
}

func (h *Handler) list(args map[string]any) (any, *envelope.ToolError) {
	names, err := h.store.List()
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "list_failed", err.Error())
	}
	items := make([]map[string]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{"name": n})
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

// export returns a profile's fields including secret-keyed values
// unredacted-at-source; the Executor's redaction pass still applies unless
// the caller explicitly opted into include_secrets and the process-wide
// allow_secret_export flag is set (enforced by the Policy Gate before this
// handler ever runs).
func (h *Handler) export(args map[string]any) (any, *envelope.ToolError) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_name", "profile.export requires name")
	}
	fields, ok, err := h.store.Get(name)
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "read_failed", err.Error())
	}
	if !ok {
		return nil, envelope.New(envelope.KindNotFound, "profile_not_found", "no such profile: "+name)
	}
	return map[string]any{"name": name, "fields": fields}, nil
}

func stripSecrets(fields map[string]any) map[string]any {
	r := envelope.NewRedactor()
	out, _ := r.Redact(fields).(map[string]any)
	return out
}
