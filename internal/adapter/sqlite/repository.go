package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cwygoda/harvest/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    profile     TEXT NOT NULL,
    input       TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'running',
    total       INTEGER NOT NULL DEFAULT 0,
    succeeded   INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    succeeded       INTEGER NOT NULL,
    skipped         INTEGER NOT NULL,
    source_url      TEXT NOT NULL DEFAULT '',
    failure_details TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id, name);
`

const runColumns = `id, profile, input, status, total, succeeded, skipped, failed, started_at, finished_at`

// Repository implements domain.RunRepository using SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the ledger at dbPath, creating the file and schema if needed.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new running run.
func (r *Repository) Create(ctx context.Context, profile, input string) (*domain.Run, error) {
	run := &domain.Run{
		ID:        uuid.NewString(),
		Profile:   profile,
		Input:     input,
		Status:    domain.RunRunning,
		StartedAt: r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, profile, input, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Profile, run.Input, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stores the entries of a run and marks it completed, in one
// transaction.
func (r *Repository) Finish(ctx context.Context, id string, entries []domain.ReportEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	s := domain.Summarize(entries)
	result, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, total = ?, succeeded = ?, skipped = ?, failed = ?, finished_at = ?
		 WHERE id = ? AND status = ?`,
		domain.RunCompleted, s.Total, s.Succeeded, s.Skipped, s.Failed, r.now().UTC(), id, domain.RunRunning,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRunNotFound
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, name, succeeded, skipped, source_url, failure_details) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, e.Name, e.Succeeded, e.Skipped, e.SourceURL, e.FailureDetails); err != nil {
			return fmt.Errorf("store outcome %q: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// Get retrieves a run by ID.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// List returns up to limit runs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Outcomes returns the stored entries of a run sorted by name.
func (r *Repository) Outcomes(ctx context.Context, id string) ([]domain.ReportEntry, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, succeeded, skipped, source_url, failure_details
		 FROM outcomes WHERE run_id = ? ORDER BY name, rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.ReportEntry{}
	for rows.Next() {
		var e domain.ReportEntry
		if err := rows.Scan(&e.Name, &e.Succeeded, &e.Skipped, &e.SourceURL, &e.FailureDetails); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecoverStale marks runs still running from a previous process as abandoned.
func (r *Repository) RecoverStale(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE status = ?`,
		domain.RunAbandoned, r.now().UTC(), domain.RunRunning,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var status string
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.Profile, &run.Input, &status,
		&run.Summary.Total, &run.Summary.Succeeded, &run.Summary.Skipped, &run.Summary.Failed,
		&run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
