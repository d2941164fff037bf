// Package envelope defines the gateway's canonical request/response shapes:
// ToolCall, ResolvedCall, Envelope, and the ToolError taxonomy. Every tool
// invocation in the system, whether issued directly over the transport or
// synthesised by the Runbook or Intent engines, is represented by these
// types.
package envelope

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the ToolError taxonomy. The Executor never transforms a
// handler's Kind or Code; it only enriches Details.
type Kind string

const (
	KindInvalidArgs Kind = "InvalidArgs"
	KindNotFound    Kind = "NotFound"
	KindPermission  Kind = "Permission"
	KindUpstream    Kind = "Upstream"
	KindTimeout     Kind = "Timeout"
	KindConflict    Kind = "Conflict"
	KindInternal    Kind = "Internal"
	KindPolicy      Kind = "Policy"
)

// ToolError is the structured error carried by a failed Envelope.
type ToolError struct {
	Kind      Kind           `json:"kind"`
	Code      string         `json:"code"`
	Retryable bool           `json:"retryable"`
	Message   string         `json:"message"`
	Hint      string         `json:"hint,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + "/" + e.Code + ": " + e.Message
}

// WithDetail returns a copy of e with key=value merged into Details.
func (e *ToolError) WithDetail(key string, value any) *ToolError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// New constructs a ToolError. Non-retryable by default; callers opt in via
// WithRetryable for the Upstream/Timeout/Conflict kinds where it applies.
func New(kind Kind, code, message string) *ToolError {
	return &ToolError{Kind: kind, Code: code, Message: message}
}

func (e *ToolError) WithRetryable(r bool) *ToolError {
	cp := *e
	cp.Retryable = r
	return &cp
}

func (e *ToolError) WithHint(hint string) *ToolError {
	cp := *e
	cp.Hint = hint
	return &cp
}

// Trace carries the distributed-tracing identifiers threaded through a call
// and any of its children.
type Trace struct {
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
}

// NewID mints a new lowercase hex identifier suitable for a trace, span, or
// run id.
func NewID() string {
	return uuid.NewString()
}

// ToolCall is the immutable request record accepted by the Tool Executor.
type ToolCall struct {
	Tool       string         `json:"tool"`
	Action     string         `json:"action,omitempty"`
	Args       map[string]any `json:"args"`
	TraceID    string         `json:"trace_id,omitempty"`
	SpanID     string         `json:"span_id,omitempty"`
	ParentSpan string         `json:"parent_span_id,omitempty"`
	DeadlineMs int64          `json:"deadline_ms,omitempty"`
}

// Deadline returns the absolute deadline implied by DeadlineMs, or the zero
// Time if none was set (DeadlineMs == 0). A negative DeadlineMs yields a
// deadline that has already elapsed.
func (c ToolCall) Deadline(now time.Time) time.Time {
	if c.DeadlineMs == 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(c.DeadlineMs) * time.Millisecond)
}

// ResolvedCall is a ToolCall after alias and preset normalisation: the
// canonical tool name, the merged argument map, and the effective deadline.
type ResolvedCall struct {
	Tool       string
	Action     string
	Args       map[string]any
	Trace      Trace
	Deadline   time.Time
	HasDL      bool
}

// Envelope is the single shape every tool call returns.
type Envelope struct {
	Success            bool       `json:"success"`
	Tool               string     `json:"tool"`
	Action             *string    `json:"action"`
	Result             any        `json:"result"`
	DurationMs         *int64     `json:"duration_ms"`
	Trace              Trace      `json:"trace"`
	ArtifactURIContext *string    `json:"artifact_uri_context"`
	ArtifactURIJSON    *string    `json:"artifact_uri_json"`
	Error              *ToolError `json:"error"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewSuccess builds a successful Envelope.
func NewSuccess(tool, action string, result any, trace Trace, duration time.Duration) Envelope {
	ms := duration.Milliseconds()
	return Envelope{
		Success:    true,
		Tool:       tool,
		Action:     strPtr(action),
		Result:     result,
		DurationMs: &ms,
		Trace:      trace,
	}
}

// NewFailure builds a failed Envelope. duration may be nil when the call
// never started (e.g. policy rejection before dispatch).
func NewFailure(tool, action string, toolErr *ToolError, trace Trace, duration *time.Duration) Envelope {
	var ms *int64
	if duration != nil {
		v := duration.Milliseconds()
		ms = &v
	}
	return Envelope{
		Success:    false,
		Tool:       tool,
		Action:     strPtr(action),
		Result:     nil,
		DurationMs: ms,
		Trace:      trace,
		Error:      toolErr,
	}
}
