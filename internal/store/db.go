// Package store keeps a SQLite history of tutorial runs: one row per run,
// one row per training pass and the learned connections at the end of the
// run, so a later run can resume from them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"hello-tm/internal/temporal"
)

// ErrNotFound is returned when a run or model does not exist.
var ErrNotFound = errors.New("store: not found")

// DB wraps an SQLite database connection with run history operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Run is one invocation of the tutorial.
type Run struct {
	ID             string
	Corpus         string
	CellsPerColumn int
	StartedAt      time.Time
	FinishedAt     *time.Time
	Passes         int
	Bored          bool
}

// PassRecord is one training pass of a run.
type PassRecord struct {
	RunID         string
	Pass          int
	Bingos        int
	Perfect       bool
	WholeSequence int
	Segments      int
	Synapses      int
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Runs},
		{2, migrationV2Passes},
		{3, migrationV3Models},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Runs = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	corpus TEXT NOT NULL,
	cells_per_column INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	passes INTEGER NOT NULL DEFAULT 0,
	bored INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

const migrationV2Passes = `
CREATE TABLE IF NOT EXISTS passes (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	pass INTEGER NOT NULL,
	bingos INTEGER NOT NULL,
	perfect INTEGER NOT NULL,
	whole_sequence INTEGER NOT NULL,
	segments INTEGER NOT NULL,
	synapses INTEGER NOT NULL,
	PRIMARY KEY (run_id, pass)
);
`

const migrationV3Models = `
CREATE TABLE IF NOT EXISTS models (
	run_id TEXT PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
	state TEXT NOT NULL,
	saved_at TEXT NOT NULL
);
`

// CreateRun inserts a new run.
func (db *DB) CreateRun(ctx context.Context, r Run) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO runs (id, corpus, cells_per_column, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Corpus, r.CellsPerColumn, formatTime(r.StartedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run.
func (db *DB) FinishRun(ctx context.Context, id string, passes int, bored bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, passes = ?, bored = ? WHERE id = ?`,
		formatTime(time.Now()), passes, bored, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun returns the run with the given id.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, corpus, cells_per_column, started_at, finished_at, passes, bored FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// ListRuns returns up to limit runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, corpus, cells_per_column, started_at, finished_at, passes, bored
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var started string
	var finished sql.NullString
	if err := s.Scan(&r.ID, &r.Corpus, &r.CellsPerColumn, &started, &finished, &r.Passes, &r.Bored); err != nil {
		return nil, err
	}
	t, err := parseTime(started)
	if err != nil {
		return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	r.StartedAt = t
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
		}
		r.FinishedAt = &t
	}
	return &r, nil
}

// Times are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// RecordPass stores one training pass.
func (db *DB) RecordPass(ctx context.Context, p PassRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO passes (run_id, pass, bingos, perfect, whole_sequence, segments, synapses)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.Pass, p.Bingos, p.Perfect, p.WholeSequence, p.Segments, p.Synapses)
	if err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}
	return nil
}

// PassesForRun returns the passes of a run in order.
func (db *DB) PassesForRun(ctx context.Context, runID string) ([]PassRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT run_id, pass, bingos, perfect, whole_sequence, segments, synapses
		 FROM passes WHERE run_id = ? ORDER BY pass`, runID)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var out []PassRecord
	for rows.Next() {
		var p PassRecord
		if err := rows.Scan(&p.RunID, &p.Pass, &p.Bingos, &p.Perfect, &p.WholeSequence, &p.Segments, &p.Synapses); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveModel stores the learned connections of a run, replacing any earlier
// snapshot.
func (db *DB) SaveModel(ctx context.Context, runID string, st temporal.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO models (run_id, state, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET state = excluded.state, saved_at = excluded.saved_at`,
		runID, string(raw), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// LoadModel returns the snapshot saved for a run.
func (db *DB) LoadModel(ctx context.Context, runID string) (temporal.State, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var raw string
	err := db.conn.QueryRowContext(ctx, `SELECT state FROM models WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return temporal.State{}, fmt.Errorf("model for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return temporal.State{}, fmt.Errorf("load model: %w", err)
	}
	var st temporal.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return temporal.State{}, fmt.Errorf("decode model: %w", err)
	}
	return st, nil
}
