package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"launchops-sim/internal/mission"
	"launchops-sim/internal/scoring"
	"launchops-sim/internal/telemetry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "perf.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(runID, scenarioID string, created time.Time) mission.Entry {
	return mission.Entry{
		RunID:            runID,
		ScenarioID:       scenarioID,
		TerminalState:    telemetry.StateComplete,
		CompletionTimeMs: 120000,
		Record: scoring.Record{
			TimeScore:       100,
			ErrorScore:      90,
			ChecklistScore:  100,
			CompletionScore: 100,
			OverallScore:    97,
			Grade:           "A",
			ErrorCount:      1,
		},
		CreatedAt: created,
	}
}

func TestCreateAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Create(ctx, entry("r1", "standard", base)); err != nil {
		t.Fatalf("create r1: %v", err)
	}
	if err := s.Create(ctx, entry("r2", "cascade", base.Add(time.Minute))); err != nil {
		t.Fatalf("create r2: %v", err)
	}

	all, err := s.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].RunID != "r2" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	got := all[1]
	if got.Record.OverallScore != 97 || got.Record.Grade != "A" || got.Record.ErrorCount != 1 {
		t.Fatalf("record not round-tripped: %+v", got.Record)
	}
	if got.TerminalState != telemetry.StateComplete || !got.CreatedAt.Equal(base) {
		t.Fatalf("unexpected entry %+v", got)
	}

	filtered, err := s.List(ctx, "standard", 10)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].RunID != "r1" {
		t.Fatalf("unexpected filtered list %+v", filtered)
	}
}

func TestCreateRejectsDuplicatesAndBlankIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Create(ctx, entry(" ", "standard", time.Time{})); err == nil {
		t.Fatalf("expected error for blank run id")
	}
	if err := s.Create(ctx, entry("r1", "standard", time.Time{})); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, entry("r1", "standard", time.Time{})); err == nil {
		t.Fatalf("expected unique constraint error")
	}
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = s.Close()
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen should skip applied migrations: %v", err)
	}
	_ = s.Close()
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestListRequiresLimit(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.List(context.Background(), "", 0); err == nil {
		t.Fatalf("expected limit error")
	}
}

func TestStoreSatisfiesRepository(t *testing.T) {
	var _ mission.PerformanceRepository = openTestStore(t)
}
