// Package audit implements the gateway's append-only call log. The Tool
// Executor owns the Sink handle exclusively for the duration of a call and
// treats a write failure as fatal to that call (fail-closed).
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
)

// Record is one line of the audit log: a redacted snapshot of the call and
// the envelope returned for it.
type Record struct {
	Timestamp    time.Time         `json:"timestamp"`
	TraceID      string            `json:"trace_id"`
	SpanID       string            `json:"span_id"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
	Tool         string            `json:"tool"`
	Action       string            `json:"action,omitempty"`
	Args         map[string]any    `json:"args"`
	Success      bool              `json:"success"`
	Error        *envelope.ToolError `json:"error,omitempty"`
	DurationMs   *int64            `json:"duration_ms,omitempty"`
	ArtifactJSON *string           `json:"artifact_uri_json,omitempty"`
	ArtifactCtx  *string           `json:"artifact_uri_context,omitempty"`
}

// Sink is a single-writer, append-only JSONL log rooted at dir, split into
// one file per UTC day per the persisted-layout table in spec §6.
type Sink struct {
	mu  sync.Mutex
	dir string
}

// New constructs a Sink writing dir/<yyyy-mm-dd>.log files.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: create dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Write appends one record, fsyncing before returning so a later crash
// cannot silently lose a just-returned envelope. Fail-closed: callers must
// treat a non-nil error as "the call did not happen".
func (s *Sink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("audit: marshal record: %w", err)
	}
	path := filepath.Join(s.dir, r.Timestamp.UTC().Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: write record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("audit: fsync: %w", err)
	}
	return nil
}

// List reads audit records across all daily log files, newest-file-last,
// used by the audit list handler (§4.9 list-action convention).
func (s *Sink) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sortStrings(names)

	var out []Record
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		for dec.More() {
			var r Record
			if err := dec.Decode(&r); err != nil {
				break
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
