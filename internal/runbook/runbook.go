// Package runbook implements the Runbook Engine (spec §4.6): deterministic,
// strictly sequential execution of a named procedure composed of tool
// calls, threading templated values between steps.
package runbook

import (
	"context"
	"fmt"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/template"
)

// Step is one entry in a Runbook's step sequence.
type Step struct {
	ID              string         `json:"id" yaml:"id"`
	Tool            string         `json:"tool" yaml:"tool"`
	Action          string         `json:"action,omitempty" yaml:"action,omitempty"`
	Args            map[string]any `json:"args" yaml:"args"`
	ContinueOnError bool           `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`
	TimeoutMs       int64          `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// Runbook is a named, ordered sequence of tool steps.
type Runbook struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Inputs      []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Steps       []Step   `json:"steps" yaml:"steps"`
}

// StepOutcome records what happened for one executed step.
type StepOutcome struct {
	StepID     string            `json:"step_id"`
	Resolved   envelope.ToolCall `json:"resolved_call"`
	Envelope   envelope.Envelope `json:"envelope"`
}

// RunRecord is the full, frozen-after-emission record of one runbook
// invocation.
type RunRecord struct {
	RunID        string         `json:"run_id"`
	RunbookName  string         `json:"runbook_name"`
	Input        map[string]any `json:"input"`
	Steps        []StepOutcome  `json:"steps"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Outcome      string         `json:"outcome"` // ok | failed | aborted
}

// Dispatcher is the subset of the Tool Executor the engine needs. Runbooks
// invoke tools through the same path as any external call: they do not
// bypass policy or audit.
type Dispatcher interface {
	Execute(ctx context.Context, call envelope.ToolCall) envelope.Envelope
}

// RecordSink persists a frozen RunRecord, e.g. to the Artifact Store under
// artifact://runs/<name>/<run_id>/.
type RecordSink interface {
	SaveRun(rec RunRecord) (artifactURI string, err error)
}

// Engine executes Runbooks against a Dispatcher.
type Engine struct {
	dispatcher Dispatcher
	records    RecordSink
	now        func() time.Time
}

func New(dispatcher Dispatcher, records RecordSink) *Engine {
	return &Engine{dispatcher: dispatcher, records: records, now: time.Now}
}

// Run executes rb against input, returning the runbook-level Envelope
// (spec §4.6 steps 1-4) and the RunRecord produced.
func (e *Engine) Run(ctx context.Context, rb Runbook, input map[string]any, parentTrace envelope.Trace) (envelope.Envelope, RunRecord) {
	started := e.now()
	runID := envelope.NewID()

	for _, key := range rb.Inputs {
		if _, ok := input[key]; !ok {
			toolErr := envelope.New(envelope.KindInvalidArgs, "input_missing",
				fmt.Sprintf("required input %q is missing", key)).WithDetail("key", key)
			rec := RunRecord{RunID: runID, RunbookName: rb.Name, Input: input, StartedAt: started, FinishedAt: e.now(), Outcome: "aborted"}
			return envelope.NewFailure(rb.Name, "run", toolErr, parentTrace, nil), rec
		}
	}

	allIDs := make(map[string]bool, len(rb.Steps))
	for _, step := range rb.Steps {
		allIDs[step.ID] = true
	}
	tctx := template.Context{Input: input, Steps: map[string]envelope.Envelope{}, AllStepIDs: allIDs}
	outcomes := make([]StepOutcome, 0, len(rb.Steps))

	for _, step := range rb.Steps {
		resolvedArgsAny, toolErr := template.Resolve(anyMap(step.Args), tctx)
		if toolErr != nil {
			outcome, env := stepFailure(step, toolErr, parentTrace)
			outcomes = append(outcomes, outcome)
			return e.finishFailed(runID, rb, input, started, outcomes, env)
		}
		resolvedArgs, _ := resolvedArgsAny.(map[string]any)

		childCall := envelope.ToolCall{
			Tool:       step.Tool,
			Action:     step.Action,
			Args:       resolvedArgs,
			TraceID:    parentTrace.TraceID,
			SpanID:     envelope.NewID(),
			ParentSpan: parentTrace.SpanID,
			DeadlineMs: step.TimeoutMs,
		}

		childEnv := e.dispatcher.Execute(ctx, childCall)
		outcomes = append(outcomes, StepOutcome{StepID: step.ID, Resolved: childCall, Envelope: childEnv})
		tctx.Steps[step.ID] = childEnv

		if !childEnv.Success && !step.ContinueOnError {
			failEnv := envelope.NewFailure(rb.Name, "run",
				envelope.New(envelope.KindUpstream, "step_failed", fmt.Sprintf("step %q failed", step.ID)).
					WithDetail("step_id", step.ID).
					WithDetail("child_error", childEnv.Error),
				parentTrace, nil)
			return e.finishFailed(runID, rb, input, started, outcomes, failEnv)
		}
	}

	result := map[string]any{"steps": summarize(outcomes)}
	okEnv := envelope.NewSuccess(rb.Name, "run", result, parentTrace, e.now().Sub(started))
	rec := RunRecord{RunID: runID, RunbookName: rb.Name, Input: input, Steps: outcomes, StartedAt: started, FinishedAt: e.now(), Outcome: "ok"}
	if e.records != nil {
		if uri, err := e.records.SaveRun(rec); err == nil {
			okEnv.ArtifactURIJSON = &uri
		}
	}
	return okEnv, rec
}

func (e *Engine) finishFailed(runID string, rb Runbook, input map[string]any, started time.Time, outcomes []StepOutcome, env envelope.Envelope) (envelope.Envelope, RunRecord) {
	rec := RunRecord{RunID: runID, RunbookName: rb.Name, Input: input, Steps: outcomes, StartedAt: started, FinishedAt: e.now(), Outcome: "failed"}
	if e.records != nil {
		if uri, err := e.records.SaveRun(rec); err == nil {
			env.ArtifactURIJSON = &uri
		}
	}
	return env, rec
}

func stepFailure(step Step, toolErr *envelope.ToolError, parentTrace envelope.Trace) (StepOutcome, envelope.Envelope) {
	env := envelope.NewFailure(step.Tool, step.Action, toolErr, parentTrace, nil)
	call := envelope.ToolCall{Tool: step.Tool, Action: step.Action, Args: step.Args, TraceID: parentTrace.TraceID}
	return StepOutcome{StepID: step.ID, Resolved: call, Envelope: env}, env
}

func summarize(outcomes []StepOutcome) []map[string]any {
	out := make([]map[string]any, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, map[string]any{
			"id":               o.StepID,
			"success":          o.Envelope.Success,
			"duration_ms":      o.Envelope.DurationMs,
			"artifact_uri_json": o.Envelope.ArtifactURIJSON,
		})
	}
	return out
}

func anyMap(m map[string]any) any {
	return map[string]any(m)
}
