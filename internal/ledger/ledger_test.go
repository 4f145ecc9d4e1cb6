package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestBeginFinishRecent(t *testing.T) {
	l := openTestLedger(t)

	runID, err := l.Begin("manual")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := l.Finish(runID, StatusSuccess, 3, []string{"City Council", "Planning Commission"}, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := l.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	run := runs[0]
	if run.Status != StatusSuccess || run.NewDocuments != 3 {
		t.Fatalf("run = %+v", run)
	}
	if run.UpdatedBodies != "City Council, Planning Commission" {
		t.Fatalf("updated_bodies = %q", run.UpdatedBodies)
	}
	if run.FinishedAt == nil {
		t.Fatal("finished_at not set")
	}
}

func TestFinishRecordsError(t *testing.T) {
	l := openTestLedger(t)

	runID, err := l.Begin("scheduled")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := l.Finish(runID, StatusFailed, 0, nil, errors.New("save failed")); err != nil {
		t.Fatalf("finish: %v", err)
	}

	runs, err := l.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if runs[0].ErrorMessage == nil || *runs[0].ErrorMessage != "save failed" {
		t.Fatalf("error_message = %v", runs[0].ErrorMessage)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	l := openTestLedger(t)

	if err := l.Finish(9999, StatusSuccess, 0, nil, nil); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	l := openTestLedger(t)

	first, _ := l.Begin("manual")
	second, _ := l.Begin("manual")

	runs, err := l.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != second || runs[1].RunID != first {
		t.Fatalf("runs = %+v", runs)
	}
}
