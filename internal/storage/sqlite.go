package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"declcheck/internal/decl"
	"declcheck/internal/diag"
	"declcheck/internal/reconcile"
)

// Pool labels used in the missing table, matching the spec document's
// top-level keys.
const (
	poolFunctions     = "functions"
	poolStructs       = "structs"
	poolAnonFunctions = "functions*"
	poolAnonStructs   = "structs*"
	poolVarStructs    = "%structs"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT,
			spec_path TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP,
			diagnostics INTEGER,
			missing INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			run_id TEXT,
			seq INTEGER,
			file TEXT,
			line INTEGER,
			col INTEGER,
			severity TEXT,
			message TEXT,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS missing (
			run_id TEXT,
			seq INTEGER,
			pool TEXT,
			entry TEXT,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_missing_run ON missing(run_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun persists a run with its diagnostics and missing report.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, root, spec_path, started_at, finished_at, diagnostics, missing)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Root, run.SpecPath, run.StartedAt, run.FinishedAt,
		len(run.Diagnostics), run.Report.Total())
	if err != nil {
		return err
	}

	diagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics (run_id, seq, file, line, col, severity, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer diagStmt.Close()

	for i, d := range run.Diagnostics {
		if _, err := diagStmt.Exec(run.ID, i, d.Loc.File, d.Loc.Line, d.Loc.Column, d.Severity.String(), d.Msg); err != nil {
			return err
		}
	}

	missStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO missing (run_id, seq, pool, entry) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer missStmt.Close()

	seq := 0
	insertPool := func(pool string, entries []string) error {
		for _, e := range entries {
			if _, err := missStmt.Exec(run.ID, seq, pool, e); err != nil {
				return err
			}
			seq++
		}
		return nil
	}
	r := run.Report
	for _, p := range []struct {
		pool    string
		entries []string
	}{
		{poolFunctions, r.MissingFunctions},
		{poolStructs, r.MissingStructs},
		{poolAnonFunctions, r.MissingAnonFunctions},
		{poolAnonStructs, r.MissingAnonStructs},
		{poolVarStructs, r.MissingVarStructs},
	} {
		if err := insertPool(p.pool, p.entries); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadRun retrieves one run with its diagnostics and report.
func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id, Report: &reconcile.Report{}}
	row := s.db.QueryRowContext(ctx,
		"SELECT root, spec_path, started_at, finished_at FROM runs WHERE id = ?", id)
	if err := row.Scan(&run.Root, &run.SpecPath, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT file, line, col, message FROM diagnostics WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d diag.Diagnostic
		var loc decl.Location
		if err := rows.Scan(&loc.File, &loc.Line, &loc.Column, &d.Msg); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Loc = loc
		d.Severity = diag.SeverityWarning
		run.Diagnostics = append(run.Diagnostics, d)
	}

	missRows, err := s.db.QueryContext(ctx,
		"SELECT pool, entry FROM missing WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing entries: %w", err)
	}
	defer missRows.Close()

	for missRows.Next() {
		var pool, entry string
		if err := missRows.Scan(&pool, &entry); err != nil {
			return nil, fmt.Errorf("failed to scan missing entry: %w", err)
		}
		switch pool {
		case poolFunctions:
			run.Report.MissingFunctions = append(run.Report.MissingFunctions, entry)
		case poolStructs:
			run.Report.MissingStructs = append(run.Report.MissingStructs, entry)
		case poolAnonFunctions:
			run.Report.MissingAnonFunctions = append(run.Report.MissingAnonFunctions, entry)
		case poolAnonStructs:
			run.Report.MissingAnonStructs = append(run.Report.MissingAnonStructs, entry)
		case poolVarStructs:
			run.Report.MissingVarStructs = append(run.Report.MissingVarStructs, entry)
		}
	}

	return run, nil
}

// ListRuns returns summaries of all runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, spec_path, finished_at, diagnostics, missing
		FROM runs ORDER BY finished_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Root, &r.SpecPath, &r.FinishedAt, &r.Diagnostics, &r.Missing); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
