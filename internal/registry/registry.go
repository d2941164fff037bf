// Package registry implements the Tool Registry: a static, post-construction
// name -> Handler map plus the alias and preset tables described in
// spec §4.2.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/opsgate/opsgate/internal/envelope"
)

// Handler executes one resolved tool call. args is the merged, preset- and
// alias-resolved argument map; the returned value becomes Envelope.Result on
// success, or the returned *envelope.ToolError marks failure. ctx carries
// the call's deadline.
type Handler interface {
	Call(ctx context.Context, action string, args map[string]any) (any, *envelope.ToolError)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, action string, args map[string]any) (any, *envelope.ToolError)

func (f HandlerFunc) Call(ctx context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	return f(ctx, action, args)
}

// Descriptor is the registry's metadata about one canonical tool, used by
// the Help/Catalog view.
type Descriptor struct {
	Name         string
	Description  string
	Tags         []string
	LocalExec    bool // member of the "local execution" class gated by Policy
	SecretExport bool // profile-export calls that may return secret material
	InputSchema  any  // JSON Schema, generated at construction (internal/catalog)
	Example      map[string]any
}

// presetKey identifies a (canonical tool, action) pair in the preset table.
type presetKey struct {
	tool   string
	action string
}

// Registry is frozen after Build returns; the read path needs no locking.
type Registry struct {
	handlers    map[string]Handler
	descriptors map[string]Descriptor
	aliases     map[string]string
	presets     map[presetKey]map[string]any
	order       []string // canonical names sorted by Build, for stable catalog listing
}

// Builder accumulates registrations before Build freezes them.
type Builder struct {
	mu          sync.Mutex
	handlers    map[string]Handler
	descriptors map[string]Descriptor
	aliases     map[string]string
	presets     map[presetKey]map[string]any
	order       []string
}

func NewBuilder() *Builder {
	return &Builder{
		handlers:    map[string]Handler{},
		descriptors: map[string]Descriptor{},
		aliases:     map[string]string{},
		presets:     map[presetKey]map[string]any{},
	}
}

// Register adds a canonical tool and its handler.
func (b *Builder) Register(desc Descriptor, h Handler) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[desc.Name]; !exists {
		b.order = append(b.order, desc.Name)
	}
	b.handlers[desc.Name] = h
	b.descriptors[desc.Name] = desc
	return b
}

// Alias registers alias -> canonical. Resolution is idempotent: aliasing an
// alias to itself, or re-registering the same pair, is a no-op; aliasing to
// a different canonical overwrites.
func (b *Builder) Alias(alias, canonical string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aliases[alias] = canonical
	return b
}

// Preset registers a default-args overlay for (canonical tool, action).
// Presets never override caller-supplied keys; only fill absent ones.
func (b *Builder) Preset(tool, action string, defaults map[string]any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presets[presetKey{tool, action}] = defaults
	return b
}

// Build freezes the builder into a read-only Registry.
func (b *Builder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	order := append([]string(nil), b.order...)
	sort.Strings(order)
	return &Registry{
		handlers:    b.handlers,
		descriptors: b.descriptors,
		aliases:     b.aliases,
		presets:     b.presets,
		order:       order,
	}
}

// ResolveName applies the alias table idempotently: resolving an
// already-canonical name, or an alias pointing at itself, returns the same
// name.
func (r *Registry) ResolveName(name string) string {
	seen := map[string]bool{}
	cur := name
	for {
		next, ok := r.aliases[cur]
		if !ok || next == cur || seen[next] {
			return cur
		}
		seen[cur] = true
		cur = next
	}
}

// ApplyPreset fills absent keys in args from the (tool, action) preset,
// without mutating the caller's map.
func (r *Registry) ApplyPreset(tool, action string, args map[string]any) map[string]any {
	defaults, ok := r.presets[presetKey{tool, action}]
	if !ok {
		return args
	}
	merged := make(map[string]any, len(args)+len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	return merged
}

// Lookup returns the handler and descriptor for a canonical tool name.
func (r *Registry) Lookup(canonical string) (Handler, Descriptor, bool) {
	h, ok := r.handlers[canonical]
	if !ok {
		return nil, Descriptor{}, false
	}
	return h, r.descriptors[canonical], true
}

// Descriptors returns all descriptors, sorted by name, for catalog listing.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Aliases returns a copy of the alias -> canonical map, for Help output.
// Being a map, the copy carries no order.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}
