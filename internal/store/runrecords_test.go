package store

import (
	"strings"
	"testing"

	"github.com/opsgate/opsgate/internal/artifact"
	"github.com/opsgate/opsgate/internal/runbook"
)

func TestArtifactRunSinkSavesUnderRunsNamespace(t *testing.T) {
	artifacts, err := artifact.New(t.TempDir())
	if err != nil {
		t.Fatalf("artifact.New: %v", err)
	}
	sink := NewArtifactRunSink(artifacts)

	rec := runbook.RunRecord{RunID: "run-1", RunbookName: "restart_service", Outcome: "ok"}
	uri, err := sink.SaveRun(rec)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if !strings.HasPrefix(uri, "artifact://runs/restart_service/run-1/") {
		t.Fatalf("unexpected uri: %s", uri)
	}
	data, err := artifacts.Get(uri)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(string(data), `"run_id":"run-1"`) {
		t.Fatalf("expected run record content, got %s", data)
	}
}
