package store

import "testing"

func TestProfileSetGetRoundTrip(t *testing.T) {
	s, err := NewProfileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewProfileStore: %v", err)
	}
	if _, err := s.Set("staging-db", map[string]any{"host": "db-1", "port": float64(5432)}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	fields, ok, err := s.Get("staging-db")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || fields["host"] != "db-1" {
		t.Fatalf("unexpected profile: %+v ok=%v", fields, ok)
	}
}

func TestProfileSetMergesRatherThanReplaces(t *testing.T) {
	s, _ := NewProfileStore(t.TempDir())
	if _, err := s.Set("p", map[string]any{"host": "a", "port": float64(1)}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("p", map[string]any{"port": float64(2)}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	fields, _, err := s.Get("p")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fields["host"] != "a" || fields["port"] != float64(2) {
		t.Fatalf("expected merge, got %+v", fields)
	}
}

func TestProfileGetMissingReturnsFalse(t *testing.T) {
	s, _ := NewProfileStore(t.TempDir())
	_, ok, err := s.Get("ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for nonexistent profile")
	}
}

func TestProfilePathRejectsTraversal(t *testing.T) {
	s, _ := NewProfileStore(t.TempDir())
	if _, err := s.Set("../escape", map[string]any{"x": 1}); err == nil {
		t.Fatal("expected path traversal to be rejected")
	}
	if _, err := s.Set("a/b", map[string]any{"x": 1}); err == nil {
		t.Fatal("expected embedded separator to be rejected")
	}
}

func TestProfileListSorted(t *testing.T) {
	s, _ := NewProfileStore(t.TempDir())
	if _, err := s.Set("zeta", map[string]any{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Set("alpha", map[string]any{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}
