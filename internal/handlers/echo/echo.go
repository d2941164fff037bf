// Package echo implements the trivial "echo" tool used throughout the
// gateway's own tests and the spec's worked runbook example (spec §8
// scenario 2).
package echo

import (
	"context"

	"github.com/opsgate/opsgate/internal/envelope"
)

// Handler returns its "text" argument verbatim under result.text.
type Handler struct{}

func New() Handler { return Handler{} }

func (Handler) Call(_ context.Context, _ string, args map[string]any) (any, *envelope.ToolError) {
	text, _ := args["text"].(string)
	return map[string]any{"text": text}, nil
}
