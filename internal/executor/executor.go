// Package executor implements the Tool Executor (spec §4.4): the single
// path through which every tool invocation passes.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opsgate/opsgate/internal/artifact"
	"github.com/opsgate/opsgate/internal/audit"
	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/policy"
	"github.com/opsgate/opsgate/internal/registry"
	"github.com/opsgate/opsgate/internal/telemetry"
)

// MaxEnvelopeBytes is the size bound from spec §4.1: envelopes serialising
// larger than this have their result externalised to an artifact.
const MaxEnvelopeBytes = 256 * 1024

// Clock exists so tests can inject a deterministic time source.
type Clock func() time.Time

// Executor is the central dispatcher. One Executor is constructed per
// process and shared by the transport, Runbook Engine, and Intent Engine.
type Executor struct {
	registry  *registry.Registry
	gate      *policy.Gate
	audit     *audit.Sink
	artifacts *artifact.Store
	redactor  *envelope.Redactor
	log       *telemetry.Logger
	now       Clock
}

func New(reg *registry.Registry, gate *policy.Gate, auditSink *audit.Sink, artifacts *artifact.Store, redactor *envelope.Redactor, log *telemetry.Logger) *Executor {
	return &Executor{
		registry:  reg,
		gate:      gate,
		audit:     auditSink,
		artifacts: artifacts,
		redactor:  redactor,
		log:       log.WithComponent("executor"),
		now:       time.Now,
	}
}

// Execute runs one ToolCall through the full trace -> resolve -> gate ->
// dispatch -> materialise -> wrap -> audit -> return pipeline.
func (e *Executor) Execute(ctx context.Context, call envelope.ToolCall) envelope.Envelope {
	start := e.now()

	trace := envelope.Trace{
		TraceID:      call.TraceID,
		SpanID:       call.SpanID,
		ParentSpanID: call.ParentSpan,
	}
	if trace.TraceID == "" {
		trace.TraceID = envelope.NewID()
	}
	if trace.SpanID == "" {
		trace.SpanID = envelope.NewID()
	}

	canonical := e.registry.ResolveName(call.Tool)
	handler, desc, ok := e.registry.Lookup(canonical)
	if !ok {
		toolErr := envelope.New(envelope.KindNotFound, "tool_unknown",
			fmt.Sprintf("no such tool: %s", call.Tool))
		return e.finish(ctx, call, trace, nil, toolErr, start, false, true)
	}

	args := e.registry.ApplyPreset(canonical, call.Action, call.Args)

	var deadline time.Time
	hasDeadline := call.DeadlineMs != 0
	if hasDeadline {
		deadline = call.Deadline(start)
	}

	gateReq := policy.Request{
		LocalExecClass: desc.LocalExec,
		SecretExport:   desc.SecretExport && isSecretExportRequested(call.Action, args),
		Deadline:       deadline,
		HasDeadline:    hasDeadline,
		Now:            start,
	}
	if toolErr := e.gate.Evaluate(gateReq); toolErr != nil {
		return e.finish(ctx, call, trace, args, toolErr, start, false, true)
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if hasDeadline {
		callCtx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	result, toolErr := e.dispatch(callCtx, handler, call.Action, args)
	// A secret-export request that passed the gate is the one call whose
	// result is returned without the redaction pass.
	return e.finish(ctx, call, trace, args, toolErr, start, toolErr == nil, !gateReq.SecretExport, result)
}

// dispatch invokes the handler, converting a panic into
// Internal/handler_panicked rather than letting it escape (spec §4.4
// "no silent swallow").
func (e *Executor) dispatch(ctx context.Context, h registry.Handler, action string, args map[string]any) (result any, toolErr *envelope.ToolError) {
	defer func() {
		if r := recover(); r != nil {
			toolErr = envelope.New(envelope.KindInternal, "handler_panicked",
				fmt.Sprintf("tool handler panicked: %v", r)).WithRetryable(false)
			result = nil
		}
	}()
	result, toolErr = h.Call(ctx, action, args)
	return
}

func (e *Executor) finish(ctx context.Context, call envelope.ToolCall, trace envelope.Trace, resolvedArgs map[string]any, toolErr *envelope.ToolError, start time.Time, success bool, redactResult bool, result ...any) envelope.Envelope {
	duration := e.now().Sub(start)

	var env envelope.Envelope
	if success {
		var r any
		if len(result) > 0 {
			r = result[0]
		}
		if redactResult {
			r = e.redactor.Redact(r)
		}
		env = envelope.NewSuccess(call.Tool, call.Action, r, trace, duration)
	} else {
		redactedErr := e.redactor.RedactToolError(toolErr.WithDetail("trace_id", trace.TraceID))
		env = envelope.NewFailure(call.Tool, call.Action, redactedErr, trace, &duration)
	}

	env = e.boundSize(env, trace)

	rec := audit.Record{
		Timestamp:    start.UTC(),
		TraceID:      trace.TraceID,
		SpanID:       trace.SpanID,
		ParentSpanID: trace.ParentSpanID,
		Tool:         call.Tool,
		Action:       call.Action,
		Args:         e.redactor.Redact(resolvedArgs).(map[string]any),
		Success:      env.Success,
		Error:        env.Error,
		DurationMs:   env.DurationMs,
		ArtifactJSON: env.ArtifactURIJSON,
		ArtifactCtx:  env.ArtifactURIContext,
	}
	if resolvedArgs == nil {
		rec.Args = map[string]any{}
	}

	if err := e.audit.Write(rec); err != nil {
		e.log.Errorf("audit write failed for trace %s: %v", trace.TraceID, err)
		failErr := envelope.New(envelope.KindInternal, "audit_failed",
			"audit record could not be written; the call result is not returned").
			WithRetryable(false)
		return envelope.NewFailure(call.Tool, call.Action, failErr, trace, &duration)
	}

	return env
}

func (e *Executor) boundSize(env envelope.Envelope, trace envelope.Trace) envelope.Envelope {
	if env.Result == nil {
		return env
	}
	whole, err := json.Marshal(env)
	if err != nil || len(whole) <= MaxEnvelopeBytes {
		return env
	}
	data, err := json.Marshal(env.Result)
	if err != nil {
		return env
	}
	path := fmt.Sprintf("%s/%s.json", trace.TraceID, trace.SpanID)
	uri, err := e.artifacts.Put(artifact.KindCalls, path, data)
	if err != nil {
		e.log.Warnf("failed to externalise oversized result for trace %s: %v", trace.TraceID, err)
		return env
	}
	env.Result = map[string]any{"truncated": true, "artifact_uri_json": uri}
	env.ArtifactURIJSON = &uri
	return env
}

func isSecretExportRequested(action string, args map[string]any) bool {
	if action != "export" {
		return false
	}
	if v, ok := args["include_secrets"].(bool); ok {
		return v
	}
	return false
}
