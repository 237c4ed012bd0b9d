package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwygoda/harvest/internal/domain"
)

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "ledger.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cleanup := func() {
		repo.Close()
		os.Remove(dbPath)
	}
	return repo, cleanup
}

// stepClock returns a clock advancing one minute per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestRepository_Create(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	run, err := repo.Create(ctx, "pdf", "in.xlsx")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if run.ID == "" {
		t.Error("Create() run.ID is empty")
	}
	if run.Status != domain.RunRunning {
		t.Errorf("Create() run.Status = %q, want %q", run.Status, domain.RunRunning)
	}
	if run.Profile != "pdf" || run.Input != "in.xlsx" {
		t.Errorf("Create() run = %+v", run)
	}

	other, _ := repo.Create(ctx, "pdf", "in.xlsx")
	if other.ID == run.ID {
		t.Error("Create() returned duplicate IDs")
	}
}

func TestRepository_Get(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	created, _ := repo.Create(ctx, "pdf", "in.xlsx")

	run, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if run.ID != created.ID || run.Status != domain.RunRunning {
		t.Errorf("Get() run = %+v", run)
	}
	if !run.FinishedAt.IsZero() {
		t.Errorf("Get() FinishedAt = %v, want zero for running run", run.FinishedAt)
	}

	_, err = repo.Get(ctx, "missing")
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrRunNotFound)
	}
}

func TestRepository_Finish(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	run, _ := repo.Create(ctx, "pdf", "in.xlsx")

	entries := []domain.ReportEntry{
		{Name: "a", Succeeded: true, SourceURL: "http://x/a"},
		{Name: "b", FailureDetails: "http://x/b: refused ; AND ; http://y/b: timeout"},
		domain.SkippedEntry("c"),
	}
	if err := repo.Finish(ctx, run.ID, entries); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.RunCompleted {
		t.Errorf("Status = %q, want %q", got.Status, domain.RunCompleted)
	}
	want := domain.Summary{Total: 3, Succeeded: 1, Skipped: 1, Failed: 1}
	if got.Summary != want {
		t.Errorf("Summary = %+v, want %+v", got.Summary, want)
	}
	if got.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}

	outcomes, err := repo.Outcomes(ctx, run.ID)
	if err != nil {
		t.Fatalf("Outcomes() error = %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("Outcomes() returned %d entries, want 3", len(outcomes))
	}
	for i := range entries {
		if outcomes[i] != entries[i] {
			t.Errorf("outcomes[%d] = %+v, want %+v", i, outcomes[i], entries[i])
		}
	}

	// A completed run cannot be finished twice.
	if err := repo.Finish(ctx, run.ID, entries); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("second Finish() error = %v, want %v", err, domain.ErrRunNotFound)
	}
}

func TestRepository_Outcomes(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	_, err := repo.Outcomes(ctx, "missing")
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Outcomes() error = %v, want %v", err, domain.ErrRunNotFound)
	}

	run, _ := repo.Create(ctx, "pdf", "in.xlsx")
	repo.Finish(ctx, run.ID, []domain.ReportEntry{{Name: "z"}, {Name: "m"}, {Name: "a"}})

	outcomes, err := repo.Outcomes(ctx, run.ID)
	if err != nil {
		t.Fatalf("Outcomes() error = %v", err)
	}
	for i, want := range []string{"a", "m", "z"} {
		if outcomes[i].Name != want {
			t.Errorf("outcomes[%d].Name = %q, want %q", i, outcomes[i].Name, want)
		}
	}

	empty, _ := repo.Create(ctx, "pdf", "in.xlsx")
	outcomes, err = repo.Outcomes(ctx, empty.ID)
	if err != nil || len(outcomes) != 0 {
		t.Errorf("Outcomes(running) = %v, %v, want empty", outcomes, err)
	}
}

func TestRepository_List(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	repo.now = stepClock()

	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		run, _ := repo.Create(ctx, "pdf", "in.xlsx")
		ids = append(ids, run.ID)
	}

	runs, err := repo.List(ctx, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(runs))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if runs[i].ID != want {
			t.Errorf("runs[%d].ID = %s, want %s", i, runs[i].ID, want)
		}
	}
}

func TestRepository_RecoverStale(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	stale1, _ := repo.Create(ctx, "pdf", "in.xlsx")
	stale2, _ := repo.Create(ctx, "pdf", "in.xlsx")
	done, _ := repo.Create(ctx, "pdf", "in.xlsx")
	repo.Finish(ctx, done.ID, nil)

	recovered, err := repo.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}
	if recovered != 2 {
		t.Errorf("RecoverStale() = %d, want 2", recovered)
	}

	for _, id := range []string{stale1.ID, stale2.ID} {
		run, _ := repo.Get(ctx, id)
		if run.Status != domain.RunAbandoned {
			t.Errorf("run %s status = %q, want %q", id, run.Status, domain.RunAbandoned)
		}
	}
	run, _ := repo.Get(ctx, done.ID)
	if run.Status != domain.RunCompleted {
		t.Errorf("completed run status = %q, want %q", run.Status, domain.RunCompleted)
	}
}

func TestRepository_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	run, _ := repo.Create(ctx, "pdf", "in.xlsx")
	repo.Finish(ctx, run.ID, []domain.ReportEntry{{Name: "a", Succeeded: true}})
	repo.Close()

	repo, err = New(dbPath)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer repo.Close()

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Summary.Succeeded != 1 {
		t.Errorf("Summary after reopen = %+v", got.Summary)
	}
}
