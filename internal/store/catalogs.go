// Package store loads and persists the gateway's on-disk catalogs and
// profiles (spec §6 persisted layout), and adapts them for the Runbook and
// Intent engines.
package store

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/opsgate/opsgate/internal/intent"
	"github.com/opsgate/opsgate/internal/runbook"
)

// RunbookCatalog is a name -> Runbook map loaded from MCP_RUNBOOKS_PATH.
// Despite the ".json" name used in the persisted-layout table, the loader
// accepts YAML (a JSON superset) following the teacher's catalog-loading
// convention.
type RunbookCatalog struct {
	mu   sync.RWMutex
	path string
	byName map[string]runbook.Runbook
	order  []string
}

func LoadRunbookCatalog(path string) (*RunbookCatalog, error) {
	c := &RunbookCatalog{path: path, byName: map[string]runbook.Runbook{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("store: read runbook catalog: %w", err)
	}
	var raw struct {
		Runbooks []runbook.Runbook `yaml:"runbooks"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("store: parse runbook catalog: %w", err)
	}
	for _, rb := range raw.Runbooks {
		if _, exists := c.byName[rb.Name]; !exists {
			c.order = append(c.order, rb.Name)
		}
		c.byName[rb.Name] = rb
	}
	return c, nil
}

// GetRunbook implements intent.RunbookLookup.
func (c *RunbookCatalog) GetRunbook(name string) (runbook.Runbook, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rb, ok := c.byName[name]
	return rb, ok
}

// Put registers or replaces a runbook definition (used by tests and by a
// future profile-management handler); it does not persist to disk.
func (c *RunbookCatalog) Put(rb runbook.Runbook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[rb.Name]; !exists {
		c.order = append(c.order, rb.Name)
	}
	c.byName[rb.Name] = rb
}

// List returns every runbook, in catalog insertion order.
func (c *RunbookCatalog) List() []runbook.Runbook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]runbook.Runbook, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// capabilityEntry is the on-disk shape of one entry in
// capabilities.json/.yaml.
type capabilityEntry struct {
	IntentType   string         `yaml:"intent_type"`
	Match        string         `yaml:"match"`
	Priority     int            `yaml:"priority"`
	Runbook      string         `yaml:"runbook,omitempty"`
	InlineSteps  []runbook.Step `yaml:"inline_steps,omitempty"`
	InlineInputs []string       `yaml:"inline_inputs,omitempty"`
}

// LoadCapabilityCatalog reads capabilities.json/.yaml and compiles an
// intent.Catalog.
func LoadCapabilityCatalog(path string) (*intent.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return intent.NewCatalog(nil)
		}
		return nil, fmt.Errorf("store: read capability catalog: %w", err)
	}
	var raw struct {
		Capabilities []capabilityEntry `yaml:"capabilities"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("store: parse capability catalog: %w", err)
	}
	entries := make([]intent.Capability, 0, len(raw.Capabilities))
	for _, e := range raw.Capabilities {
		entries = append(entries, intent.Capability{
			IntentType:   e.IntentType,
			MatchExpr:    e.Match,
			Priority:     e.Priority,
			RunbookName:  e.Runbook,
			InlineSteps:  e.InlineSteps,
			InlineInputs: e.InlineInputs,
		})
	}
	return intent.NewCatalog(entries)
}

// sortedKeys returns the keys of m in ascending order. Nothing in the
// module calls it at present.
func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
