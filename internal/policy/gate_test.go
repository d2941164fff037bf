package policy

import (
	"testing"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
)

func TestGateLocalExecDisabledByDefault(t *testing.T) {
	g := New(Flags{})
	err := g.Evaluate(Request{LocalExecClass: true, Now: time.Now()})
	if err == nil || err.Kind != envelope.KindPolicy || err.Code != "unsafe_local_disabled" {
		t.Fatalf("expected unsafe_local_disabled, got %+v", err)
	}
}

func TestGateLocalExecAllowedWithFlag(t *testing.T) {
	g := New(Flags{UnsafeLocal: true})
	err := g.Evaluate(Request{LocalExecClass: true, Now: time.Now()})
	if err != nil {
		t.Fatalf("expected no error, got %+v", err)
	}
}

func TestGateSecretExportDisabledByDefault(t *testing.T) {
	g := New(Flags{})
	err := g.Evaluate(Request{SecretExport: true, Now: time.Now()})
	if err == nil || err.Code != "secret_export_disabled" {
		t.Fatalf("expected secret_export_disabled, got %+v", err)
	}
}

func TestGateDeadlineAlreadyElapsed(t *testing.T) {
	g := New(Flags{})
	now := time.Now()
	err := g.Evaluate(Request{HasDeadline: true, Deadline: now.Add(-time.Second), Now: now})
	if err == nil || err.Kind != envelope.KindTimeout || err.Code != "deadline_exceeded" {
		t.Fatalf("expected deadline_exceeded, got %+v", err)
	}
	if !err.Retryable {
		t.Fatal("deadline_exceeded should be retryable")
	}
}

func TestGateOrderLocalExecBeforeDeadline(t *testing.T) {
	g := New(Flags{})
	now := time.Now()
	err := g.Evaluate(Request{LocalExecClass: true, HasDeadline: true, Deadline: now.Add(-time.Second), Now: now})
	if err == nil || err.Code != "unsafe_local_disabled" {
		t.Fatalf("expected local-exec check to fire first, got %+v", err)
	}
}

func TestGatePassesWhenNothingApplies(t *testing.T) {
	g := New(Flags{})
	now := time.Now()
	if err := g.Evaluate(Request{HasDeadline: true, Deadline: now.Add(time.Minute), Now: now}); err != nil {
		t.Fatalf("expected no error, got %+v", err)
	}
}
