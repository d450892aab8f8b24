/*
store.go - Run history persistence contract

PURPOSE:
  Defines the interface between the engine's callers and run-history
  storage. A Run is a record of one completed computation: its inputs'
  identity (tax year), when it ran, and the full BatchResult. Runs are
  APPEND-ONLY history - the engine itself stays stateless between runs, and
  carryforward crosses year boundaries only through the next run's
  TaxYearContext, never through this store.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - store/memory: in-memory store for tests
*/
package macrs

import (
	"context"
	"time"
)

// Run is one persisted computation run.
type Run struct {
	ID        string      `json:"id"`
	TaxYear   int         `json:"tax_year"`
	CreatedAt time.Time   `json:"created_at"`
	Result    BatchResult `json:"result"`
}

// RunStore persists completed runs. Append-only: no update, no delete.
// A rerun with corrected inputs is a new run.
type RunStore interface {
	// SaveRun persists a completed run. The caller assigns the ID.
	SaveRun(ctx context.Context, run Run) error

	// GetRun returns a run by ID, or ErrRunNotFound.
	GetRun(ctx context.Context, id string) (Run, error)

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
