package envelope

import "strings"

// DefaultSecretKeys is the default case-insensitive substring list used to
// decide whether a result leaf should be redacted. Configuration-driven per
// the spec's open question: construct a Redactor with extra keys rather than
// editing this list.
var DefaultSecretKeys = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"authorization",
	"cookie",
}

const RedactedPlaceholder = "<redacted>"

// Redactor walks a decoded JSON value (map[string]any / []any / scalars) and
// replaces string leaves whose key matches a secret pattern.
type Redactor struct {
	keys []string
}

// NewRedactor builds a Redactor from the default key list plus any extra
// case-insensitive substrings supplied by configuration.
func NewRedactor(extra ...string) *Redactor {
	keys := make([]string, 0, len(DefaultSecretKeys)+len(extra))
	keys = append(keys, DefaultSecretKeys...)
	keys = append(keys, extra...)
	return &Redactor{keys: keys}
}

func (r *Redactor) matches(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Redact returns a redacted deep copy of v. Only map keys are consulted:
// array elements are walked (maps inside them are redacted by key), but a
// bare string element, or a scalar at the root, is left unchanged unless an
// enclosing key names a secret.
func (r *Redactor) Redact(v any) any {
	return r.walk(v, false)
}

func (r *Redactor) walk(v any, parentIsSecret bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if r.matches(k) {
				if _, isString := val.(string); isString {
					out[k] = RedactedPlaceholder
					continue
				}
				// Non-string secret-keyed values (nested objects, numbers)
				// are still walked, but the leaf strings within are
				// redacted wholesale since the key itself names a secret.
				out[k] = r.walk(val, true)
				continue
			}
			out[k] = r.walk(val, parentIsSecret)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = r.walk(val, parentIsSecret)
		}
		return out
	case string:
		if parentIsSecret {
			return RedactedPlaceholder
		}
		return t
	default:
		return t
	}
}

// RedactToolError returns a copy of e with Details redacted.
func (r *Redactor) RedactToolError(e *ToolError) *ToolError {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Details != nil {
		cp.Details, _ = r.walk(e.Details, false).(map[string]any)
	}
	return &cp
}
