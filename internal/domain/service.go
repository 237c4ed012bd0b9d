package domain

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidRun  = errors.New("invalid run")
	ErrRunNotFound = errors.New("run not found")
)

// RunService records runs in the ledger.
type RunService struct {
	repo RunRepository
}

// NewRunService creates a new RunService.
func NewRunService(repo RunRepository) *RunService {
	return &RunService{repo: repo}
}

// Begin records the start of a run for the given input.
func (s *RunService) Begin(ctx context.Context, profile, input string) (*Run, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrInvalidRun
	}
	return s.repo.Create(ctx, profile, input)
}

// Finish stores the sorted report of a run and marks it completed.
func (s *RunService) Finish(ctx context.Context, id string, entries []ReportEntry) error {
	return s.repo.Finish(ctx, id, entries)
}

// Get retrieves a run by ID.
func (s *RunService) Get(ctx context.Context, id string) (*Run, error) {
	return s.repo.Get(ctx, id)
}

// List returns the most recent runs, newest first.
func (s *RunService) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit)
}

// Outcomes returns the report entries of a run sorted by name.
func (s *RunService) Outcomes(ctx context.Context, id string) ([]ReportEntry, error) {
	return s.repo.Outcomes(ctx, id)
}

// RecoverStale marks runs left running by a crashed process as abandoned.
func (s *RunService) RecoverStale(ctx context.Context) (int64, error) {
	return s.repo.RecoverStale(ctx)
}
