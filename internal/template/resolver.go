// Package template implements the Runbook Engine's "{{ expr }}" substitution
// grammar (spec §4.5): a deliberately narrow three-root resolver, not a
// general templating engine — nested templates in a resolved value are
// never rescanned.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/opsgate/opsgate/internal/envelope"
)

var exprPattern = regexp.MustCompile(`^\{\{\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*\}\}$`)
var embeddedPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*\}\}`)

// StepEnvelope is a prior step's full Envelope: the resolver resolves
// steps.ID.FIELD by marshalling the Envelope to a generic JSON value and
// walking FIELD as a dot-path.
type StepEnvelope = envelope.Envelope

// Context is the {input, steps, env} resolution context for one runbook
// invocation.
type Context struct {
	Input map[string]any
	Steps map[string]StepEnvelope // only steps that have already executed
	// AllStepIDs holds every step id declared in the runbook, executed or
	// not, so resolvePath can tell a forward reference (declared later,
	// just hasn't run yet) apart from a reference to an id that was never
	// declared at all.
	AllStepIDs map[string]bool
}

// Resolve walks v (a JSON-shaped value: map/slice/scalar) and returns a new
// value with every string leaf template-resolved per spec §4.5.
func Resolve(v any, ctx Context) (any, *envelope.ToolError) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			resolved, err := Resolve(val, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			resolved, err := Resolve(val, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return resolveString(t, ctx)
	default:
		return t, nil
	}
}

func resolveString(s string, ctx Context) (any, *envelope.ToolError) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	if m := exprPattern.FindStringSubmatch(s); m != nil {
		// Whole-string template: preserve the resolved value's JSON type.
		val, err := resolvePath(m[1], ctx)
		if err != nil {
			return nil, err
		}
		return val, nil
	}
	// Embedded template(s): string-coerce and interpolate, without
	// re-scanning the substituted text (a resolved value that itself
	// contains "{{" is inserted verbatim).
	var firstErr *envelope.ToolError
	result := embeddedPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := exprPattern.FindStringSubmatch(match)
		if sub == nil {
			// embeddedPattern and exprPattern share the same inner group;
			// re-derive it directly.
			inner := embeddedPattern.FindStringSubmatch(match)
			sub = []string{match, inner[1]}
		}
		val, err := resolvePath(sub[1], ctx)
		if err != nil {
			firstErr = err
			return match
		}
		return stringCoerce(val)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func stringCoerce(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}

func resolvePath(path string, ctx Context) (any, *envelope.ToolError) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, envelope.New(envelope.KindInvalidArgs, "template_invalid_expr",
			fmt.Sprintf("template expression %q has no root.field path", path))
	}
	switch parts[0] {
	case "input":
		key := strings.Join(parts[1:], ".")
		val, ok := ctx.Input[key]
		if !ok {
			// The whole remainder was tried above as one literal key; fall
			// back to walking it segment by segment through nested input
			// maps.
			val, ok = lookupDotted(ctx.Input, parts[1:])
		}
		if !ok {
			return nil, envelope.New(envelope.KindInvalidArgs, "template_missing_input",
				fmt.Sprintf("input key %q is not present", key))
		}
		return val, nil
	case "steps":
		if len(parts) < 3 {
			return nil, envelope.New(envelope.KindInvalidArgs, "template_invalid_expr",
				fmt.Sprintf("template expression %q must be steps.ID.FIELD", path))
		}
		stepID := parts[1]
		field := strings.Join(parts[2:], ".")
		env, ok := ctx.Steps[stepID]
		if !ok {
			if ctx.AllStepIDs[stepID] {
				return nil, envelope.New(envelope.KindInvalidArgs, "template_forward_ref",
					fmt.Sprintf("step %q is declared later in the runbook; templates may only reference steps that already ran", stepID)).
					WithDetail("step_id", stepID)
			}
			return nil, envelope.New(envelope.KindInvalidArgs, "template_missing_step",
				fmt.Sprintf("no step with id %q is declared in this runbook", stepID)).
				WithDetail("step_id", stepID)
		}
		return extractField(env, field)
	case "env":
		name := strings.Join(parts[1:], ".")
		return os.Getenv(name), nil
	default:
		return nil, envelope.New(envelope.KindInvalidArgs, "template_invalid_expr",
			fmt.Sprintf("unknown template root %q", parts[0]))
	}
}

func lookupDotted(m map[string]any, segs []string) (any, bool) {
	var cur any = m
	for _, seg := range segs {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := mm[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func extractField(env StepEnvelope, field string) (any, *envelope.ToolError) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "template_marshal_failed", err.Error())
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, envelope.New(envelope.KindInternal, "template_unmarshal_failed", err.Error())
	}
	segs := strings.Split(field, ".")
	val, ok := lookupDotted(generic, segs)
	if !ok {
		// Also allow reading directly from a result-shaped field, e.g.
		// steps.s1.text when the handler put "text" in result.
		if resultMap, ok2 := generic["result"].(map[string]any); ok2 {
			if v2, ok3 := lookupDotted(resultMap, segs); ok3 {
				return v2, nil
			}
		}
		return nil, envelope.New(envelope.KindInvalidArgs, "template_missing_field",
			fmt.Sprintf("field %q not present on step envelope", field))
	}
	return val, nil
}
