package domain

import "context"

// Fetcher is the driven port for network fetches.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// FileIndex reports whether a named file is already in the final directory.
type FileIndex interface {
	Exists(name string) bool
}

// Persister is the driven port for durable payload storage.
type Persister interface {
	Persist(ctx context.Context, name string, a *Accepted) error
}

// RunRepository is the driven port for the run ledger.
type RunRepository interface {
	Create(ctx context.Context, profile, input string) (*Run, error)
	Finish(ctx context.Context, id string, entries []ReportEntry) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Outcomes(ctx context.Context, id string) ([]ReportEntry, error)
	RecoverStale(ctx context.Context) (int64, error)
}
