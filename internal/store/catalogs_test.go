package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opsgate/opsgate/internal/runbook"
)

func TestLoadRunbookCatalogMissingFileIsEmpty(t *testing.T) {
	c, err := LoadRunbookCatalog(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadRunbookCatalog: %v", err)
	}
	if len(c.List()) != 0 {
		t.Fatalf("expected empty catalog, got %v", c.List())
	}
}

func TestLoadRunbookCatalogParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runbooks.json")
	content := `
runbooks:
  - name: restart_service
    description: restart a service
    steps:
      - id: s1
        tool: ssh_exec
        args:
          cmd: systemctl restart app
  - name: provision
    steps: []
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	c, err := LoadRunbookCatalog(path)
	if err != nil {
		t.Fatalf("LoadRunbookCatalog: %v", err)
	}
	list := c.List()
	if len(list) != 2 || list[0].Name != "restart_service" || list[1].Name != "provision" {
		t.Fatalf("expected insertion order preserved, got %+v", list)
	}
	rb, ok := c.GetRunbook("restart_service")
	if !ok || len(rb.Steps) != 1 || rb.Steps[0].Tool != "ssh_exec" {
		t.Fatalf("unexpected runbook: %+v ok=%v", rb, ok)
	}
	if _, ok := c.GetRunbook("nonexistent"); ok {
		t.Fatal("expected miss for unknown runbook")
	}
}

func TestRunbookCatalogPutOverwritesAndAppends(t *testing.T) {
	c, err := LoadRunbookCatalog(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadRunbookCatalog: %v", err)
	}
	c.Put(runbook.Runbook{Name: "a"})
	c.Put(runbook.Runbook{Name: "b"})
	c.Put(runbook.Runbook{Name: "a"})
	list := c.List()
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("expected stable insertion order without duplication, got %+v", list)
	}
}

func TestLoadCapabilityCatalogMissingFileIsEmpty(t *testing.T) {
	cat, err := LoadCapabilityCatalog(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadCapabilityCatalog: %v", err)
	}
	cap, err := cat.Select("anything", map[string]any{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if cap != nil {
		t.Fatalf("expected no capability in empty catalog, got %+v", cap)
	}
}

func TestLoadCapabilityCatalogParsesAndCompiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.json")
	content := `
capabilities:
  - intent_type: restart_service
    match: input.env == "prod"
    priority: 5
    runbook: restart_service
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cat, err := LoadCapabilityCatalog(path)
	if err != nil {
		t.Fatalf("LoadCapabilityCatalog: %v", err)
	}
	cap, err := cat.Select("restart_service", map[string]any{"env": "prod"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if cap == nil || cap.RunbookName != "restart_service" || cap.Priority != 5 {
		t.Fatalf("unexpected capability: %+v", cap)
	}
}
