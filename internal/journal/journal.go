// Package journal persists a record of summary generation calls so operators
// can audit what the build asked the backend to produce and when.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded generation call.
type Entry struct {
	ID       int64
	BuildID  string
	Document string
	Target   string
	Model    string
	Hash     string
	Outcome  string // generated|failed
	Duration time.Duration
	At       time.Time
}

// Journal stores resolution entries in SQLite.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and if necessary creates) the journal database.
func Open(dbPath string) (*Journal, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resolutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		document TEXT NOT NULL,
		target TEXT NOT NULL,
		model TEXT NOT NULL,
		hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resolutions_build_id ON resolutions(build_id);
	CREATE INDEX IF NOT EXISTS idx_resolutions_at ON resolutions(at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one resolution entry.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO resolutions (build_id, document, target, model, hash, outcome, duration_ms, at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.BuildID, e.Document, e.Target, e.Model, e.Hash, e.Outcome, e.Duration.Milliseconds(), at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, build_id, document, target, model, hash, outcome, duration_ms, at FROM resolutions ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByBuildID returns all entries recorded for one build, oldest first.
func (j *Journal) ByBuildID(ctx context.Context, buildID string) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, build_id, document, target, model, hash, outcome, duration_ms, at FROM resolutions WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMS, atUnix int64
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Document, &e.Target, &e.Model, &e.Hash, &e.Outcome, &durationMS, &atUnix); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.At = time.Unix(atUnix, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}
