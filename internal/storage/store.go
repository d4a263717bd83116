package storage

import (
	"context"
	"time"

	"declcheck/internal/diag"
	"declcheck/internal/reconcile"
)

// Run is one persisted check run: its inputs, its diagnostics, and its
// missing-declarations report.
type Run struct {
	ID          string
	Root        string
	SpecPath    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Diagnostics []diag.Diagnostic
	Report      *reconcile.Report
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID          string
	Root        string
	SpecPath    string
	FinishedAt  time.Time
	Diagnostics int
	Missing     int
}

// RunStore defines operations for persisting check runs, so successive
// runs can be compared in CI.
type RunStore interface {
	// SaveRun persists a run with its diagnostics and report.
	SaveRun(ctx context.Context, run *Run) error

	// LoadRun retrieves one run by ID.
	LoadRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns summaries of all runs, newest first.
	ListRuns(ctx context.Context) ([]RunSummary, error)

	Close() error
}
