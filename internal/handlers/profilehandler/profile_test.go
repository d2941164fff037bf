package profilehandler

import (
	"context"
	"testing"

	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/store"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	s, err := store.NewProfileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewProfileStore: %v", err)
	}
	return New(s)
}

func TestSetThenGetStripsSecretsByDefault(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	if _, err := h.Call(ctx, "set", map[string]any{
		"name":   "staging-db",
		"fields": map[string]any{"host": "db-1", "password": "hunter2"},
	}); err != nil {
		t.Fatalf("set: %+v", err)
	}

	result, err := h.Call(ctx, "get", map[string]any{"name": "staging-db"})
	if err != nil {
		t.Fatalf("get: %+v", err)
	}
	fields := result.(map[string]any)["fields"].(map[string]any)
	if fields["host"] != "db-1" {
		t.Fatalf("expected host preserved, got %v", fields["host"])
	}
	if fields["password"] != envelope.RedactedPlaceholder {
		t.Fatalf("expected password stripped, got %v", fields["password"])
	}
}

func TestExportReturnsSecretsUnstripped(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	if _, err := h.Call(ctx, "set", map[string]any{
		"name":   "staging-db",
		"fields": map[string]any{"password": "hunter2"},
	}); err != nil {
		t.Fatalf("set: %+v", err)
	}

	result, err := h.Call(ctx, "export", map[string]any{"name": "staging-db"})
	if err != nil {
		t.Fatalf("export: %+v", err)
	}
	fields := result.(map[string]any)["fields"].(map[string]any)
	if fields["password"] != "hunter2" {
		t.Fatalf("expected export to return raw secret, got %v", fields["password"])
	}
}

func TestGetMissingProfileReturnsNotFound(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.Call(context.Background(), "get", map[string]any{"name": "ghost"})
	if err == nil || err.Kind != envelope.KindNotFound || err.Code != "profile_not_found" {
		t.Fatalf("expected NotFound/profile_not_found, got %+v", err)
	}
}

func TestGetMissingNameIsInvalidArgs(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.Call(context.Background(), "get", map[string]any{})
	if err == nil || err.Code != "missing_name" {
		t.Fatalf("expected missing_name, got %+v", err)
	}
}

func TestListReturnsPaginatedNames(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	if _, err := h.Call(ctx, "set", map[string]any{"name": "a", "fields": map[string]any{}}); err != nil {
		t.Fatalf("set a: %+v", err)
	}
	if _, err := h.Call(ctx, "set", map[string]any{"name": "b", "fields": map[string]any{}}); err != nil {
		t.Fatalf("set b: %+v", err)
	}
	result, err := h.Call(ctx, "list", map[string]any{})
	if err != nil {
		t.Fatalf("list: %+v", err)
	}
	items := result.(map[string]any)["items"].([]map[string]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(items))
	}
}

func TestUnknownActionRejected(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.Call(context.Background(), "delete", map[string]any{})
	if err == nil || err.Code != "unknown_action" {
		t.Fatalf("expected unknown_action, got %+v", err)
	}
}
