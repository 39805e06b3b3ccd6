// Package ledger persists a record of every caption job the worker has
// processed, keyed by a fingerprint of the job file contents so that
// re-dropping an identical file is a no-op.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Job statuses recorded in the ledger.
const (
	StatusResolved = "resolved"
	StatusFailed   = "failed"
)

// Entry is one processed job.
type Entry struct {
	JobID         string
	StoryPath     string
	Fingerprint   string
	Status        string
	Method        string
	WordCount     int
	AudioDuration float64
	MatchRatio    float64
	Error         string
	CreatedAt     time.Time
}

// Ledger is the SQLite-backed job history.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path}
	if err := l.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return l, nil
}

func (l *Ledger) initSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS jobs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            job_id TEXT NOT NULL,
            story_path TEXT NOT NULL,
            fingerprint TEXT NOT NULL,
            status TEXT NOT NULL,
            method TEXT NOT NULL DEFAULT '',
            word_count INTEGER NOT NULL DEFAULT 0,
            audio_duration REAL NOT NULL DEFAULT 0,
            match_ratio REAL NOT NULL DEFAULT 0,
            error TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_jobs_fingerprint ON jobs(fingerprint, status);
    `)
	if err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	return nil
}

// Resolved reports whether a job with this fingerprint has already been
// resolved. Failed attempts do not count, so an edited or retried job
// file is processed again.
func (l *Ledger) Resolved(ctx context.Context, fingerprint string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM jobs WHERE fingerprint = ? AND status = ?",
		fingerprint, StatusResolved,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query fingerprint: %w", err)
	}
	return n > 0, nil
}

// RecordResolved appends a resolved job to the ledger.
func (l *Ledger) RecordResolved(ctx context.Context, e Entry) error {
	e.Status = StatusResolved
	return l.insert(ctx, e)
}

// RecordFailed appends a failed job to the ledger.
func (l *Ledger) RecordFailed(ctx context.Context, e Entry) error {
	e.Status = StatusFailed
	return l.insert(ctx, e)
}

func (l *Ledger) insert(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            job_id, story_path, fingerprint, status, method,
            word_count, audio_duration, match_ratio, error, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.JobID,
		e.StoryPath,
		e.Fingerprint,
		e.Status,
		e.Method,
		e.WordCount,
		e.AudioDuration,
		e.MatchRatio,
		e.Error,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Recent returns the most recently recorded jobs, newest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT job_id, story_path, fingerprint, status, method,
            word_count, audio_duration, match_ratio, error, created_at
        FROM jobs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt string
		)
		if err := rows.Scan(
			&e.JobID, &e.StoryPath, &e.Fingerprint, &e.Status, &e.Method,
			&e.WordCount, &e.AudioDuration, &e.MatchRatio, &e.Error, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Fingerprint derives the dedupe key for a job file's contents.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
