// Package intent implements the Intent Engine (spec §4.7): it never
// executes tools directly, always delegating through the Runbook Engine.
package intent

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/runbook"
)

// Capability maps an intent type (+ predicate) to a runbook plan.
type Capability struct {
	IntentType string
	MatchExpr  string // compiled via expr-lang/expr against {input: map[string]any}
	Priority   int
	// Exactly one of RunbookName or InlineSteps is set.
	RunbookName string
	InlineSteps []runbook.Step
	InlineInputs []string

	program  *vm.Program
	sequence int // catalog insertion order, for stable tie-break
}

// Catalog is the frozen-after-load capability catalog.
type Catalog struct {
	caps []Capability
}

// NewCatalog compiles every capability's match predicate once.
func NewCatalog(entries []Capability) (*Catalog, error) {
	caps := make([]Capability, len(entries))
	for i, c := range entries {
		c.sequence = i
		if c.MatchExpr == "" {
			c.MatchExpr = "true"
		}
		prog, err := expr.Compile(c.MatchExpr, expr.Env(map[string]any{"input": map[string]any{}}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("intent: capability %q: compile match expr: %w", c.IntentType, err)
		}
		c.program = prog
		caps[i] = c
	}
	return &Catalog{caps: caps}, nil
}

// Select returns the highest-priority Capability whose predicate matches
// input, ties broken by catalog insertion order.
func (c *Catalog) Select(intentType string, input map[string]any) (*Capability, error) {
	var candidates []Capability
	for _, cap := range c.caps {
		if cap.IntentType != intentType {
			continue
		}
		out, err := expr.Run(cap.program, map[string]any{"input": input})
		if err != nil {
			return nil, fmt.Errorf("intent: evaluate match for %q: %w", cap.IntentType, err)
		}
		matched, _ := out.(bool)
		if matched {
			candidates = append(candidates, cap)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].sequence < candidates[j].sequence
	})
	return &candidates[0], nil
}

// Entries returns the catalog's capabilities in insertion order.
func (c *Catalog) Entries() []Capability {
	out := make([]Capability, len(c.caps))
	copy(out, c.caps)
	return out
}

// RunbookLookup resolves a named runbook, used when a capability's plan is a
// reference rather than an inline step sequence.
type RunbookLookup interface {
	GetRunbook(name string) (runbook.Runbook, bool)
}

// Engine synthesises a runbook from an intent and delegates to the Runbook
// Engine.
type Engine struct {
	catalog  *Catalog
	runbooks RunbookLookup
	engine   *runbook.Engine
}

func New(catalog *Catalog, runbooks RunbookLookup, engine *runbook.Engine) *Engine {
	return &Engine{catalog: catalog, runbooks: runbooks, engine: engine}
}

// Handle routes one intent to a concrete runbook and executes it.
func (e *Engine) Handle(ctx context.Context, intentType string, input map[string]any, trace envelope.Trace) envelope.Envelope {
	cap, err := e.catalog.Select(intentType, input)
	if err != nil {
		toolErr := envelope.New(envelope.KindInternal, "intent_match_failed", err.Error())
		return envelope.NewFailure(intentType, "intent", toolErr, trace, nil)
	}
	if cap == nil {
		toolErr := envelope.New(envelope.KindNotFound, "intent_unroutable",
			fmt.Sprintf("no capability matches intent_type %q", intentType))
		return envelope.NewFailure(intentType, "intent", toolErr, trace, nil)
	}

	var rb runbook.Runbook
	if cap.RunbookName != "" {
		found, ok := e.runbooks.GetRunbook(cap.RunbookName)
		if !ok {
			toolErr := envelope.New(envelope.KindNotFound, "intent_unroutable",
				fmt.Sprintf("capability references unknown runbook %q", cap.RunbookName))
			return envelope.NewFailure(intentType, "intent", toolErr, trace, nil)
		}
		rb = found
	} else {
		rb = runbook.Runbook{
			Name:   "intent:" + intentType,
			Inputs: cap.InlineInputs,
			Steps:  cap.InlineSteps,
		}
	}

	env, _ := e.engine.Run(ctx, rb, input, trace)
	return env
}
