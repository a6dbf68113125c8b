// Package indexdb records runs, their snapshots and per-step mass budgets in
// a sqlite database so runs can be listed and resumed without scanning the
// snapshot directory.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrUnknownRun = errors.New("indexdb: unknown run")

type SQLiteIndex struct {
	db *sql.DB
}

type Run struct {
	ID             string
	StartedAt      time.Time
	Seed           int64
	IcosphereLevel int
	PlateCount     int
}

type SnapshotRow struct {
	RunID  string
	Step   uint64
	Time   float64
	Plates int
	Path   string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			icosphere_level INTEGER NOT NULL,
			plate_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			step INTEGER NOT NULL,
			time REAL NOT NULL,
			plates INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (run_id, step)
		);`,
		`CREATE TABLE IF NOT EXISTS budgets (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			step INTEGER NOT NULL,
			time REAL NOT NULL,
			pool TEXT NOT NULL,
			mass REAL NOT NULL,
			PRIMARY KEY (run_id, step, pool)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// StartRun registers a new run under a fresh id
func (s *SQLiteIndex) StartRun(ctx context.Context, seed int64, level, plates int) (Run, error) {
	run := Run{
		ID:             uuid.NewString(),
		StartedAt:      time.Now().UTC(),
		Seed:           seed,
		IcosphereLevel: level,
		PlateCount:     plates,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, seed, icosphere_level, plate_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339Nano), run.Seed, run.IcosphereLevel, run.PlateCount)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *SQLiteIndex) GetRun(ctx context.Context, id string) (Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("%w: %q", ErrUnknownRun, id)
	}
	var run Run
	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, seed, icosphere_level, plate_count FROM runs WHERE run_id = ?`, id).
		Scan(&run.ID, &started, &run.Seed, &run.IcosphereLevel, &run.PlateCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	if err != nil {
		return Run{}, err
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	return run, err
}

func (s *SQLiteIndex) RecordSnapshot(ctx context.Context, row SnapshotRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (run_id, step, time, plates, path) VALUES (?, ?, ?, ?, ?)`,
		row.RunID, int64(row.Step), row.Time, row.Plates, row.Path)
	return err
}

// LatestSnapshot returns the newest snapshot of a run
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context, runID string) (SnapshotRow, bool, error) {
	row := SnapshotRow{RunID: runID}
	var step int64
	err := s.db.QueryRowContext(ctx,
		`SELECT step, time, plates, path FROM snapshots WHERE run_id = ? ORDER BY step DESC LIMIT 1`, runID).
		Scan(&step, &row.Time, &row.Plates, &row.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRow{}, false, nil
	}
	if err != nil {
		return SnapshotRow{}, false, err
	}
	row.Step = uint64(step)
	return row, true, nil
}

// RecordBudget stores the mass of every pool after a step in one transaction
func (s *SQLiteIndex) RecordBudget(ctx context.Context, runID string, step uint64, t float64, budget map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO budgets (run_id, step, time, pool, mass) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	pools := make([]string, 0, len(budget))
	for pool := range budget {
		pools = append(pools, pool)
	}
	sort.Strings(pools)
	for _, pool := range pools {
		if _, err := stmt.ExecContext(ctx, runID, int64(step), t, pool, budget[pool]); err != nil {
			return fmt.Errorf("insert budget %s: %w", pool, err)
		}
	}
	return tx.Commit()
}

// Budget returns the pool masses recorded for a step
func (s *SQLiteIndex) Budget(ctx context.Context, runID string, step uint64) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pool, mass FROM budgets WHERE run_id = ? AND step = ?`, runID, int64(step))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budget := map[string]float64{}
	for rows.Next() {
		var pool string
		var mass float64
		if err := rows.Scan(&pool, &mass); err != nil {
			return nil, err
		}
		budget[pool] = mass
	}
	return budget, rows.Err()
}
