// Package store persists a rolling history of build reports across dev
// server restarts. Grounded on the teacher's eventstore.SQLiteStore
// (internal/eventstore/sqlite.go), retargeted from an append-only event
// log to a single build_history table of summary rows — build-level
// history only, never per-asset content or hashes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildRecord summarizes one completed build for history display.
type BuildRecord struct {
	BuildID    string
	Profile    string
	Timestamp  time.Time
	DurationMS int64
	Written    int
	Skipped    int
	Errored    int
}

// Store persists BuildRecords to a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the SQLite database at path and
// ensures its schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS build_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		profile TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		written INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		errored INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_build_history_timestamp ON build_history(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one build's summary to the history.
func (s *Store) Record(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_history (build_id, profile, timestamp, duration_ms, written, skipped, errored)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Profile, rec.Timestamp.Unix(), rec.DurationMS, rec.Written, rec.Skipped, rec.Errored,
	)
	if err != nil {
		return fmt.Errorf("store: insert build record: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recent build records, newest
// first.
func (s *Store) Recent(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, profile, timestamp, duration_ms, written, skipped, errored
		 FROM build_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query build history: %w", err)
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var ts int64
		if err := rows.Scan(&rec.BuildID, &rec.Profile, &ts, &rec.DurationMS, &rec.Written, &rec.Skipped, &rec.Errored); err != nil {
			return nil, fmt.Errorf("store: scan build record: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate build history: %w", err)
	}
	return records, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
