// Package catalog implements the Help/Catalog introspection surface
// (spec §4.8) and the common list-action conventions (spec §4.9).
package catalog

import (
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/opsgate/opsgate/internal/registry"
)

// Entry is one tool's catalog-facing view.
type Entry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags,omitempty"`
	InputSchema any            `json:"inputSchema,omitempty"`
	Example     map[string]any `json:"example,omitempty"`
}

// AliasHint describes one alias -> canonical mapping for Help output.
type AliasHint struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}

// Catalog is a read-only view over a frozen Registry.
type Catalog struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Catalog {
	return &Catalog{reg: reg}
}

// Entries returns every registered tool's catalog entry, sorted by name.
func (c *Catalog) Entries() []Entry {
	descs := c.reg.Descriptors()
	out := make([]Entry, 0, len(descs))
	for _, d := range descs {
		out = append(out, Entry{
			Name:        d.Name,
			Description: d.Description,
			Tags:        d.Tags,
			InputSchema: d.InputSchema,
			Example:     d.Example,
		})
	}
	return out
}

// AliasHints returns sorted alias -> canonical hints for Help output.
func (c *Catalog) AliasHints() []AliasHint {
	aliases := c.reg.Aliases()
	out := make([]AliasHint, 0, len(aliases))
	for a, canon := range aliases {
		out = append(out, AliasHint{Alias: a, Canonical: canon})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Get returns one tool's entry by canonical or alias name.
func (c *Catalog) Get(name string) (Entry, bool) {
	canonical := c.reg.ResolveName(name)
	_, desc, ok := c.reg.Lookup(canonical)
	if !ok {
		return Entry{}, false
	}
	return Entry{Name: desc.Name, Description: desc.Description, Tags: desc.Tags, InputSchema: desc.InputSchema, Example: desc.Example}, true
}

// Search does a case-insensitive substring match over name, description,
// and tags.
func (c *Catalog) Search(query string) []Entry {
	q := strings.ToLower(query)
	var out []Entry
	for _, e := range c.Entries() {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			containsTag(e.Tags, q) {
			out = append(out, e)
		}
	}
	return out
}

func containsTag(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// SchemaFor generates a JSON Schema for a typed request struct, used when
// registering a handler's Descriptor. v must be a pointer to the struct.
func SchemaFor(v any) any {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	return r.Reflect(v)
}

// ListMeta is the pagination metadata shape common to every list-action
// handler (spec §4.9).
type ListMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListArgs is the common argument shape accepted by list actions. Limit is
// a pointer so an omitted limit (default to 50) and an explicit limit=0
// (return zero items) stay distinguishable once Normalize runs.
type ListArgs struct {
	Query  string         `json:"query,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
	Where  map[string]any `json:"where,omitempty"`
	Limit  *int           `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// Normalize applies the default/cap rules: a missing limit defaults to 50,
// an explicit limit is capped at 500 and floored at 0; offset defaults to 0.
func (a ListArgs) Normalize() ListArgs {
	switch {
	case a.Limit == nil:
		a.Limit = intPtr(50)
	case *a.Limit < 0:
		a.Limit = intPtr(0)
	case *a.Limit > 500:
		a.Limit = intPtr(500)
	}
	if a.Offset < 0 {
		a.Offset = 0
	}
	return a
}

func intPtr(n int) *int { return &n }

// Paginate slices items (already filtered and stably ordered by the caller)
// according to a, and returns the page plus ListMeta.
func Paginate[T any](items []T, a ListArgs) ([]T, ListMeta) {
	a = a.Normalize()
	limit := *a.Limit
	total := len(items)
	start := a.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	page := items[start:end]
	return page, ListMeta{Total: total, Limit: limit, Offset: a.Offset, HasMore: end < total}
}
