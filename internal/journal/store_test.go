package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"devbox/internal/journal"
	"devbox/internal/testsupport"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunAndStepsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "setup")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" || run.Outcome != journal.OutcomeRunning {
		t.Fatalf("unexpected run %#v", run)
	}

	steps := []journal.Step{
		{Name: "packages-update", Policy: "tolerated", Status: "failed", Detail: "exit status 100", Duration: 1500 * time.Millisecond},
		{Name: "packages-install", Policy: "tolerated", Status: "ok", Duration: 20 * time.Second},
		{Name: "setup-script", Policy: "optional", Status: "skipped", Detail: "script not found"},
	}
	for _, step := range steps {
		if err := store.RecordStep(ctx, run.ID, step); err != nil {
			t.Fatalf("RecordStep: %v", err)
		}
	}
	if err := store.FinishRun(ctx, run.ID, journal.OutcomeDegraded, "1 tolerated failure"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.Steps(ctx, run.ID)
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(got) != len(steps) {
		t.Fatalf("expected %d steps, got %d", len(steps), len(got))
	}
	for i, step := range got {
		if step.Position != i+1 || step.Name != steps[i].Name || step.Status != steps[i].Status {
			t.Fatalf("step %d mismatch: %#v", i, step)
		}
		if step.Duration != steps[i].Duration {
			t.Fatalf("step %d duration %s want %s", i, step.Duration, steps[i].Duration)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected one run, got %d", len(recent))
	}
	if recent[0].Outcome != journal.OutcomeDegraded || recent[0].StepCount != 3 || recent[0].FinishedAt.IsZero() {
		t.Fatalf("unexpected recent run %#v", recent[0])
	}
	if recent[0].Duration() < 0 {
		t.Fatalf("negative duration %s", recent[0].Duration())
	}
}

func TestRecentOrderAndPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	var ids []string
	for _, phase := range []string{"setup", "launch", "launch"} {
		run, err := store.BeginRun(ctx, phase)
		if err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
		if err := store.RecordStep(ctx, run.ID, journal.Step{Name: "probe", Policy: "fatal", Status: "ok"}); err != nil {
			t.Fatalf("RecordStep: %v", err)
		}
		ids = append(ids, run.ID)
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Fatalf("unexpected order: %#v", recent)
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	steps, err := store.Steps(ctx, ids[0])
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("expected steps of pruned run removed, got %d", len(steps))
	}
}

func TestFindByPrefix(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	run, err := store.BeginRun(ctx, "setup")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	found, err := store.Find(ctx, run.ID[:8])
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.ID != run.ID {
		t.Fatalf("found %s want %s", found.ID, run.ID)
	}
	if _, err := store.Find(ctx, "zzzz"); !errors.Is(err, journal.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(ctx, "missing", journal.OutcomeFailed, ""); !errors.Is(err, journal.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound from FinishRun, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.JournalPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	_, err = journal.Open(cfg)
	if !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), cfg.JournalPath()) {
		t.Fatalf("error should name the journal path: %v", err)
	}
}

func TestRecordStepValidation(t *testing.T) {
	store := openStore(t)
	if err := store.RecordStep(context.Background(), "", journal.Step{Name: "x"}); err == nil {
		t.Fatal("expected error for empty run id")
	}
	if err := store.RecordStep(context.Background(), "run", journal.Step{}); err == nil {
		t.Fatal("expected error for empty step name")
	}
}
