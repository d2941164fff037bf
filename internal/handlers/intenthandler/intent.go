// Package intenthandler implements the `intent` tool, giving the Intent
// Engine a uniform entry point through the Tool Executor so intent-routed
// calls get the same audit, redaction, and policy treatment as any other
// tool (spec §4.7).
package intenthandler

import (
	"context"

	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/intent"
)

type Handler struct {
	engine *intent.Engine
}

func New(e *intent.Engine) *Handler {
	return &Handler{engine: e}
}

// Call args: {intent_type: string, input: map[string]any}.
func (h *Handler) Call(ctx context.Context, _ string, args map[string]any) (any, *envelope.ToolError) {
	intentType, _ := args["intent_type"].(string)
	if intentType == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_intent_type", "intent requires intent_type")
	}
	input, _ := args["input"].(map[string]any)

	trace := envelope.Trace{TraceID: envelope.NewID(), SpanID: envelope.NewID()}
	result := h.engine.Handle(ctx, intentType, input, trace)
	if !result.Success {
		return nil, result.Error
	}
	return result.Result, nil
}
