package store

import (
	"fmt"

	"github.com/opsgate/opsgate/internal/artifact"
	"github.com/opsgate/opsgate/internal/runbook"
)

// ArtifactRunSink persists RunRecords under artifact://runs/<name>/<run_id>/
// per spec §4.6 step 2, implementing runbook.RecordSink.
type ArtifactRunSink struct {
	artifacts *artifact.Store
}

func NewArtifactRunSink(artifacts *artifact.Store) *ArtifactRunSink {
	return &ArtifactRunSink{artifacts: artifacts}
}

func (s *ArtifactRunSink) SaveRun(rec runbook.RunRecord) (string, error) {
	path := fmt.Sprintf("%s/%s/record.json", rec.RunbookName, rec.RunID)
	return s.artifacts.PutJSON(artifact.KindRuns, path, rec)
}
