/*
Package sqlite provides the SQLite-backed RunStore.

PURPOSE:
  Persists completed computation runs for audit and the run-history API.
  The same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the runs tables. A rerun with
  corrected inputs is a new run with a new ID.

KEY TABLES:
  runs:        One row per computation run (summary + convention as JSON)
  run_results: One row per asset result, keyed by run

WAL MODE:
  Opened with WAL so readers never block the single writer and crash
  recovery stays clean.

USAGE:
  store, err := sqlite.New("./data/depreciation.db")
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/depreciation-engine/macrs"
)

// Store implements macrs.RunStore on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Runs (append-only history of computations)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		tax_year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		global_convention TEXT NOT NULL,
		convention_json TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		warnings_json TEXT,
		excluded_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_tax_year ON runs(tax_year);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

	-- Per-asset results, one row per asset per run
	CREATE TABLE IF NOT EXISTS run_results (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		asset_id TEXT NOT NULL,
		result_json TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_run_results_asset ON run_results(asset_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNSTORE IMPLEMENTATION
// =============================================================================

// SaveRun writes the run row and its per-asset results in one transaction.
func (s *Store) SaveRun(ctx context.Context, run macrs.Run) error {
	conventionJSON, err := json.Marshal(run.Result.Convention)
	if err != nil {
		return fmt.Errorf("marshal convention: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Result.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	warningsJSON, err := json.Marshal(run.Result.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	excludedJSON, err := json.Marshal(run.Result.Excluded)
	if err != nil {
		return fmt.Errorf("marshal excluded: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, tax_year, created_at, global_convention, convention_json, summary_json, warnings_json, excluded_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Result.TaxYear,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(run.Result.Convention.Global),
		string(conventionJSON),
		string(summaryJSON),
		string(warningsJSON),
		string(excludedJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_results (run_id, position, asset_id, result_json)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, res := range run.Result.Results {
		resultJSON, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("marshal result for asset %s: %w", res.AssetID, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(res.AssetID), string(resultJSON)); err != nil {
			return fmt.Errorf("insert result for asset %s: %w", res.AssetID, err)
		}
	}

	return tx.Commit()
}

// GetRun loads one run with all of its per-asset results, in the order the
// batch produced them.
func (s *Store) GetRun(ctx context.Context, id string) (macrs.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tax_year, created_at, convention_json, summary_json, warnings_json, excluded_json
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return macrs.Run{}, macrs.ErrRunNotFound
	}
	if err != nil {
		return macrs.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT result_json FROM run_results WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return macrs.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return macrs.Run{}, err
		}
		var res macrs.DepreciationResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return macrs.Run{}, fmt.Errorf("unmarshal result: %w", err)
		}
		run.Result.Results = append(run.Result.Results, res)
	}
	return run, rows.Err()
}

// ListRuns returns up to limit run envelopes (no per-asset results), newest
// first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]macrs.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tax_year, created_at, convention_json, summary_json, warnings_json, excluded_json
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []macrs.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (macrs.Run, error) {
	var (
		run          macrs.Run
		createdAt    string
		convJSON     string
		summaryJSON  string
		warningsJSON sql.NullString
		excludedJSON sql.NullString
	)
	if err := row.Scan(&run.ID, &run.TaxYear, &createdAt, &convJSON, &summaryJSON, &warningsJSON, &excludedJSON); err != nil {
		return macrs.Run{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return macrs.Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t
	run.Result.TaxYear = run.TaxYear

	if err := json.Unmarshal([]byte(convJSON), &run.Result.Convention); err != nil {
		return macrs.Run{}, fmt.Errorf("unmarshal convention: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Result.Summary); err != nil {
		return macrs.Run{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &run.Result.Warnings); err != nil {
			return macrs.Run{}, fmt.Errorf("unmarshal warnings: %w", err)
		}
	}
	if excludedJSON.Valid && excludedJSON.String != "" {
		if err := json.Unmarshal([]byte(excludedJSON.String), &run.Result.Excluded); err != nil {
			return macrs.Run{}, fmt.Errorf("unmarshal excluded: %w", err)
		}
	}
	return run, nil
}
