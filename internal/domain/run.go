package domain

import "time"

// RunStatus represents the state of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAbandoned RunStatus = "abandoned"
)

// Run is one recorded invocation of the downloader.
type Run struct {
	ID         string
	Profile    string
	Input      string
	Status     RunStatus
	Summary    Summary
	StartedAt  time.Time
	FinishedAt time.Time
}

// Finished returns true once the run reached a terminal status.
func (r *Run) Finished() bool {
	return r.Status == RunCompleted || r.Status == RunAbandoned
}

// Duration returns the wall time of a finished run, zero otherwise.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
