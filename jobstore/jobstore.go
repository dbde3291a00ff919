// Package jobstore records finished combination jobs in SQLite. Writes are
// asynchronous and best-effort: a full buffer or a failed insert is logged
// and dropped, never surfaced to the request path.
package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	mode          TEXT NOT NULL,
	target        TEXT NOT NULL,
	file_count    INTEGER NOT NULL,
	failure_count INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER NOT NULL,
	outcome       TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at DESC);
`

// Record is one finished job.
type Record struct {
	ID           string
	StartedAt    time.Time
	Mode         string
	Target       string
	FileCount    int
	FailureCount int
	Duration     time.Duration
	Outcome      string // "success" or "error"
	Error        string
}

// Store persists job records.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	ch     chan Record
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// Open opens (creating if needed) the job database at path and starts the
// background writer. Parent directories are created for file paths.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("jobstore: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("jobstore: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("jobstore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: schema: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		ch:     make(chan Record, 256),
		done:   make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

func (s *Store) flushLoop() {
	defer close(s.done)
	for rec := range s.ch {
		if err := s.insert(context.Background(), rec); err != nil {
			s.logger.Error("job record insert failed", "job", rec.ID, "error", err)
		}
	}
}

func (s *Store) insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, started_at, mode, target, file_count, failure_count, duration_ms, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.Unix(), rec.Mode, rec.Target,
		rec.FileCount, rec.FailureCount, rec.Duration.Milliseconds(),
		rec.Outcome, rec.Error)
	return err
}

// Add queues a record for persistence. A full buffer drops the record with
// a warning rather than blocking the request. Records added after Close
// are dropped.
func (s *Store) Add(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("job record after close, dropping record", "job", rec.ID)
		return
	}
	select {
	case s.ch <- rec:
	default:
		s.logger.Warn("job record buffer full, dropping record", "job", rec.ID)
	}
}

// Recent returns the most recently started jobs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, mode, target, file_count, failure_count, duration_ms, outcome, error
		 FROM jobs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("jobstore: query: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var started, durMs int64
		if err := rows.Scan(&rec.ID, &started, &rec.Mode, &rec.Target,
			&rec.FileCount, &rec.FailureCount, &durMs, &rec.Outcome, &rec.Error); err != nil {
			return nil, fmt.Errorf("jobstore: scan: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.Duration = time.Duration(durMs) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close drains queued records and closes the database. Close is
// idempotent; concurrent Add calls are dropped instead of panicking.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	<-s.done
	return s.db.Close()
}
