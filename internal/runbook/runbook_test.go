package runbook

import (
	"context"
	"testing"

	"github.com/opsgate/opsgate/internal/envelope"
)

type fakeDispatcher struct {
	calls   []envelope.ToolCall
	results map[string]envelope.Envelope // keyed by tool
}

func (d *fakeDispatcher) Execute(_ context.Context, call envelope.ToolCall) envelope.Envelope {
	d.calls = append(d.calls, call)
	if env, ok := d.results[call.Tool]; ok {
		return env
	}
	return envelope.NewSuccess(call.Tool, call.Action, map[string]any{"ok": true}, envelope.Trace{TraceID: call.TraceID, SpanID: call.SpanID}, 0)
}

type fakeRecordSink struct {
	saved []RunRecord
}

func (s *fakeRecordSink) SaveRun(rec RunRecord) (string, error) {
	s.saved = append(s.saved, rec)
	return "artifact://runs/test/" + rec.RunID + ".json", nil
}

func TestRunSequentialStepsAndTemplateThreading(t *testing.T) {
	disp := &fakeDispatcher{results: map[string]envelope.Envelope{
		"lookup": envelope.NewSuccess("lookup", "get", map[string]any{"host": "db-1"}, envelope.Trace{}, 0),
	}}
	sink := &fakeRecordSink{}
	engine := New(disp, sink)

	rb := Runbook{
		Name:   "provision",
		Inputs: []string{"env"},
		Steps: []Step{
			{ID: "s1", Tool: "lookup", Action: "get", Args: map[string]any{"env": "{{ input.env }}"}},
			{ID: "s2", Tool: "connect", Args: map[string]any{"host": "{{ steps.s1.result.host }}"}},
		},
	}

	env, rec := engine.Run(context.Background(), rb, map[string]any{"env": "prod"}, envelope.Trace{TraceID: "t1", SpanID: "s0"})
	if !env.Success {
		t.Fatalf("expected success, got %+v", env.Error)
	}
	if rec.Outcome != "ok" {
		t.Fatalf("expected outcome ok, got %s", rec.Outcome)
	}
	if len(disp.calls) != 2 {
		t.Fatalf("expected 2 dispatched calls, got %d", len(disp.calls))
	}
	if disp.calls[1].Args["host"] != "db-1" {
		t.Fatalf("expected threaded host from step s1, got %v", disp.calls[1].Args["host"])
	}
	if len(sink.saved) != 1 {
		t.Fatalf("expected run to be saved once, got %d", len(sink.saved))
	}
	if env.ArtifactURIJSON == nil {
		t.Fatal("expected artifact uri set from record sink")
	}
}

func TestRunStopsOnFailureByDefault(t *testing.T) {
	disp := &fakeDispatcher{results: map[string]envelope.Envelope{
		"step1": envelope.NewFailure("step1", "", envelope.New(envelope.KindUpstream, "dial_failed", "boom"), envelope.Trace{}, nil),
	}}
	sink := &fakeRecordSink{}
	engine := New(disp, sink)

	rb := Runbook{
		Name: "fragile",
		Steps: []Step{
			{ID: "a", Tool: "step1"},
			{ID: "b", Tool: "step2"},
		},
	}

	env, rec := engine.Run(context.Background(), rb, map[string]any{}, envelope.Trace{TraceID: "t1"})
	if env.Success {
		t.Fatal("expected failure")
	}
	if env.Error.Code != "step_failed" {
		t.Fatalf("expected step_failed, got %+v", env.Error)
	}
	if rec.Outcome != "failed" {
		t.Fatalf("expected outcome failed, got %s", rec.Outcome)
	}
	if len(disp.calls) != 1 {
		t.Fatalf("expected step2 to never dispatch, got %d calls", len(disp.calls))
	}
}

func TestRunContinuesOnErrorWhenFlagged(t *testing.T) {
	disp := &fakeDispatcher{results: map[string]envelope.Envelope{
		"step1": envelope.NewFailure("step1", "", envelope.New(envelope.KindUpstream, "dial_failed", "boom"), envelope.Trace{}, nil),
	}}
	sink := &fakeRecordSink{}
	engine := New(disp, sink)

	rb := Runbook{
		Name: "resilient",
		Steps: []Step{
			{ID: "a", Tool: "step1", ContinueOnError: true},
			{ID: "b", Tool: "step2"},
		},
	}

	env, rec := engine.Run(context.Background(), rb, map[string]any{}, envelope.Trace{TraceID: "t1"})
	if !env.Success {
		t.Fatalf("expected overall success, got %+v", env.Error)
	}
	if rec.Outcome != "ok" {
		t.Fatalf("expected outcome ok, got %s", rec.Outcome)
	}
	if len(disp.calls) != 2 {
		t.Fatalf("expected both steps to dispatch, got %d", len(disp.calls))
	}
}

func TestRunMissingRequiredInputAborts(t *testing.T) {
	disp := &fakeDispatcher{}
	sink := &fakeRecordSink{}
	engine := New(disp, sink)

	rb := Runbook{Name: "needs_input", Inputs: []string{"target"}, Steps: []Step{{ID: "a", Tool: "noop"}}}

	env, rec := engine.Run(context.Background(), rb, map[string]any{}, envelope.Trace{TraceID: "t1"})
	if env.Success {
		t.Fatal("expected failure for missing required input")
	}
	if env.Error.Code != "input_missing" {
		t.Fatalf("expected input_missing, got %+v", env.Error)
	}
	if rec.Outcome != "aborted" {
		t.Fatalf("expected outcome aborted, got %s", rec.Outcome)
	}
	if len(disp.calls) != 0 {
		t.Fatalf("expected no steps dispatched, got %d", len(disp.calls))
	}
}
