// Package artifacthandler exposes the Artifact Store to callers so an
// artifact_uri_json/artifact_uri_context returned in an Envelope is
// actually dereferenceable (spec §3 Artifact lifecycle, SPEC_FULL.md §12).
package artifacthandler

import (
	"context"
	"encoding/json"

	"github.com/opsgate/opsgate/internal/artifact"
	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/envelope"
)

type Handler struct {
	store *artifact.Store
}

func New(s *artifact.Store) *Handler {
	return &Handler{store: s}
}

func (h *Handler) Call(_ context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	switch action {
	case "get":
		return h.get(args)
	case "list":
		return h.list(args)
	default:
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "artifact supports get, list")
	}
}

func (h *Handler) get(args map[string]any) (any, *envelope.ToolError) {
	uri, _ := args["uri"].(string)
	if uri == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_uri", "artifact.get requires uri")
	}
	data, err := h.store.Get(uri)
	if err != nil {
		return nil, envelope.New(envelope.KindNotFound, "artifact_not_found", err.Error())
	}
	var decoded any
	if json.Unmarshal(data, &decoded) == nil {
		return map[string]any{"uri": uri, "content": decoded}, nil
	}
	return map[string]any{"uri": uri, "content": string(data)}, nil
}

func (h *Handler) list(args map[string]any) (any, *envelope.ToolError) {
	kind, _ := args["kind"].(string)
	if kind == "" {
		kind = string(artifact.KindRuns)
	}
	paths, err := h.store.List(artifact.Kind(kind))
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "list_failed", err.Error())
	}
	items := make([]map[string]any, 0, len(paths))
	for _, p := range paths {
		items = append(items, map[string]any{"path": p, "uri": artifact.URI(artifact.Kind(kind), p)})
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
