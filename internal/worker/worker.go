package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cwygoda/harvest/internal/domain"
)

// RowState is the processing state of a single row.
type RowState string

const (
	RowPending   RowState = "pending"
	RowSkipped   RowState = "skipped"
	RowResolving RowState = "resolving"
	RowPersisted RowState = "persisted"
	RowFailed    RowState = "failed"
)

// State is the lifecycle of a Run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDrained
	StateReportReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDrained:
		return "drained"
	case StateReportReady:
		return "report-ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var ErrRunning = errors.New("worker: run already in progress")

// RowResult is emitted once per row when it reaches a terminal state.
type RowResult struct {
	Row   domain.Row
	State RowState
	Entry domain.ReportEntry
}

// RowObserver receives row results from task goroutines and must be safe for
// concurrent use.
type RowObserver func(RowResult)

// Worker runs one task per row on a bounded pool and collects one report
// entry per row.
type Worker struct {
	gate     *domain.Gate
	resolver *domain.Resolver
	store    domain.Persister
	limit    int
	log      zerolog.Logger
	onRow    RowObserver
	state    atomic.Int32
}

// New creates a worker. A limit of zero or less runs every row at once.
func New(gate *domain.Gate, resolver *domain.Resolver, store domain.Persister, limit int, log zerolog.Logger) *Worker {
	return &Worker{
		gate:     gate,
		resolver: resolver,
		store:    store,
		limit:    limit,
		log:      log.With().Str("component", "worker").Logger(),
	}
}

// OnRowFinished registers fn to be called as each row finishes.
func (w *Worker) OnRowFinished(fn RowObserver) {
	w.onRow = fn
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run processes all rows and returns their report entries sorted by name.
// It returns only after every dispatched task has finished. Cancellation of
// ctx is not propagated: each fetch is bounded by the request timeout and
// every row is reported.
func (w *Worker) Run(ctx context.Context, rows []domain.Row) ([]domain.ReportEntry, error) {
	if !w.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!w.state.CompareAndSwap(int32(StateReportReady), int32(StateRunning)) {
		return nil, ErrRunning
	}
	ctx = context.WithoutCancel(ctx)

	limit := w.limit
	if limit <= 0 {
		limit = -1
	}
	w.log.Info().Int("rows", len(rows)).Int("workers", w.limit).Msg("run started")

	collector := domain.NewCollector()
	var g errgroup.Group
	g.SetLimit(limit)
	for _, row := range rows {
		g.Go(func() error {
			w.processRow(ctx, row, collector)
			return nil
		})
	}
	g.Wait()
	w.state.Store(int32(StateDrained))

	entries := collector.Snapshot()
	w.state.Store(int32(StateReportReady))

	s := domain.Summarize(entries)
	w.log.Info().
		Int("total", s.Total).
		Int("succeeded", s.Succeeded).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Msg("run drained")
	return entries, nil
}

func (w *Worker) processRow(ctx context.Context, row domain.Row, c *domain.Collector) {
	state := RowPending
	entry := domain.ReportEntry{Name: row.Name}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("name", row.Name).Interface("panic", r).Msg("row panicked")
			state = RowFailed
			entry = domain.ReportEntry{Name: row.Name, FailureDetails: fmt.Sprintf("panic: %v", r)}
		}
		c.Record(entry)
		if w.onRow != nil {
			w.onRow(RowResult{Row: row, State: state, Entry: entry})
		}
	}()

	if w.gate.ShouldSkip(row.Name) {
		state = RowSkipped
		entry = domain.SkippedEntry(row.Name)
		w.log.Debug().Str("name", row.Name).Msg("already downloaded, skipped")
		return
	}

	state = RowResolving
	out := w.resolver.Resolve(ctx, row.Candidates)
	failures := out.Failures

	if out.Winner == nil {
		state = RowFailed
		entry.FailureDetails = domain.JoinFailures(failures)
		w.log.Debug().Str("name", row.Name).Int("attempts", len(out.Attempts)).Msg("no acceptable link")
		return
	}

	if err := w.store.Persist(ctx, row.Name, out.Winner); err != nil {
		state = RowFailed
		failures = append(failures, domain.AttemptFailure{URL: out.Winner.SourceURL, Err: err})
		entry.FailureDetails = domain.JoinFailures(failures)
		w.log.Warn().Err(err).Str("name", row.Name).Msg("persist failed")
		return
	}

	state = RowPersisted
	entry.Succeeded = true
	entry.SourceURL = out.Winner.SourceURL
	entry.FailureDetails = domain.JoinFailures(failures)
	w.log.Info().Str("name", row.Name).Str("url", entry.SourceURL).Msg("downloaded")
}
