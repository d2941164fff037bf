package audit

import (
	"testing"
	"time"
)

func TestWriteAndListRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	now := time.Now().UTC()
	r1 := Record{Timestamp: now, TraceID: "t1", Tool: "echo", Action: "run", Success: true}
	r2 := Record{Timestamp: now.Add(time.Second), TraceID: "t2", Tool: "pg_query", Action: "query", Success: false}

	if err := s.Write(r1); err != nil {
		t.Fatalf("Write r1: %v", err)
	}
	if err := s.Write(r2); err != nil {
		t.Fatalf("Write r2: %v", err)
	}

	records, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].TraceID != "t1" || records[1].TraceID != "t2" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestListOnEmptyDirReturnsNil(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	records, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %v", records)
	}
}

func TestListOnMissingDirReturnsNil(t *testing.T) {
	s := &Sink{dir: "/nonexistent/opsgate-audit-dir"}
	records, err := s.List()
	if err != nil {
		t.Fatalf("List on missing dir should not error, got %v", err)
	}
	if records != nil {
		t.Fatalf("expected nil records, got %v", records)
	}
}

func TestWriteSplitsByUTCDay(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	day1 := time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 1, 1, 0, 0, 0, time.UTC)
	if err := s.Write(Record{Timestamp: day1, TraceID: "a", Tool: "echo"}); err != nil {
		t.Fatalf("Write day1: %v", err)
	}
	if err := s.Write(Record{Timestamp: day2, TraceID: "b", Tool: "echo"}); err != nil {
		t.Fatalf("Write day2: %v", err)
	}
	records, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].TraceID != "a" || records[1].TraceID != "b" {
		t.Fatalf("expected records ordered by day file, got %+v", records)
	}
}
