// SPDX-License-Identifier: MIT

// Package history persists one row per pipeline run for the job
// listing API and post-incident review.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/clipforge/clipforge/internal/pipeline"
)

// Store provides SQLite persistence for run history.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at dbPath and runs migrations.
// busy_timeout avoids "database locked" errors under concurrent runs.
func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		job_id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		video_id TEXT,
		title TEXT,
		status TEXT NOT NULL CHECK(status IN ('completed', 'failed')),
		stage TEXT,
		kind TEXT,
		error TEXT,
		locator TEXT,
		bytes INTEGER NOT NULL DEFAULT 0,
		duration_seconds REAL NOT NULL DEFAULT 0,
		audio_only INTEGER NOT NULL DEFAULT 0,
		cached INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_video_id ON runs(video_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one finished run.
func (s *Store) Record(ctx context.Context, res *pipeline.Result) error {
	query := `
	INSERT INTO runs (job_id, target, video_id, title, status, stage, kind, error,
		locator, bytes, duration_seconds, audio_only, cached, started_at, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		res.JobID, res.Target, res.VideoID, res.Title, res.Status,
		res.Stage, res.Kind, res.Error, res.Locator, res.Bytes,
		res.Duration, boolInt(res.AudioOnly), boolInt(res.Cached),
		res.StartedAt.UTC().Format(time.RFC3339Nano), res.ElapsedMS)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]pipeline.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT job_id, target, video_id, title, status, stage, kind, error,
		locator, bytes, duration_seconds, audio_only, cached, started_at, elapsed_ms
	FROM runs
	ORDER BY started_at DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []pipeline.Result
	for rows.Next() {
		var r pipeline.Result
		var audioOnly, cached int
		var startedAt string
		if err := rows.Scan(&r.JobID, &r.Target, &r.VideoID, &r.Title, &r.Status,
			&r.Stage, &r.Kind, &r.Error, &r.Locator, &r.Bytes,
			&r.Duration, &audioOnly, &cached, &startedAt, &r.ElapsedMS); err != nil {
			return nil, err
		}
		r.AudioOnly = audioOnly != 0
		r.Cached = cached != 0
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			r.StartedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
