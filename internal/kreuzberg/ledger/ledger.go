// Package ledger records batch-job status and progress in Postgres. It is
// bookkeeping for BatchExtractBytes/BatchExtractFile callers that want a
// durable job record, not the content-addressed derivation cache (that
// lives in internal/kreuzberg/cache and is explicitly not persisted here).
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Status is the lifecycle state of a batch job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// JobUpdate is a single status transition recorded for a batch job.
type JobUpdate struct {
	JobID        string
	Status       Status
	TotalItems   int
	DoneItems    int
	FailedItems  int
	ErrorMessage string
	Metadata     map[string]interface{}
}

// Ledger persists job records to a Postgres table.
type Ledger struct {
	db *sql.DB
}

// Open connects to Postgres and configures a small connection pool sized
// for a batch-job bookkeeping workload rather than high-throughput OLTP.
func Open(databaseURL string) (*Ledger, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("ledger: database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}

	return &Ledger{db: db}, nil
}

// schema is applied by EnsureSchema; callers that manage migrations
// elsewhere can skip calling it.
const schema = `
CREATE TABLE IF NOT EXISTS kreuzberg_batch_jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	total_items INTEGER NOT NULL DEFAULT 0,
	done_items INTEGER NOT NULL DEFAULT 0,
	failed_items INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the job table if it does not already exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ledger: ensure schema: %w", err)
	}
	return nil
}

// Upsert records a job's current status, inserting a new row on first sight
// and merging fields on every subsequent call for the same JobID.
func (l *Ledger) Upsert(ctx context.Context, u *JobUpdate) error {
	if u.JobID == "" {
		return fmt.Errorf("ledger: job ID is required")
	}
	if u.Status == "" {
		return fmt.Errorf("ledger: status is required")
	}

	metadataJSON, err := json.Marshal(u.Metadata)
	if err != nil {
		return fmt.Errorf("ledger: marshal metadata: %w", err)
	}

	const query = `
		INSERT INTO kreuzberg_batch_jobs (
			id, status, total_items, done_items, failed_items, error_message, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), COALESCE($7::jsonb, '{}'::jsonb), NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			total_items = GREATEST(EXCLUDED.total_items, kreuzberg_batch_jobs.total_items),
			done_items = EXCLUDED.done_items,
			failed_items = EXCLUDED.failed_items,
			error_message = COALESCE(EXCLUDED.error_message, kreuzberg_batch_jobs.error_message),
			metadata = COALESCE(EXCLUDED.metadata, kreuzberg_batch_jobs.metadata),
			updated_at = NOW()
	`
	_, err = l.db.ExecContext(ctx, query,
		u.JobID, string(u.Status), u.TotalItems, u.DoneItems, u.FailedItems, u.ErrorMessage, metadataJSON)
	if err != nil {
		return fmt.Errorf("ledger: upsert job %s: %w", u.JobID, err)
	}
	return nil
}

// JobRecord is a row read back from the ledger.
type JobRecord struct {
	JobID        string
	Status       Status
	TotalItems   int
	DoneItems    int
	FailedItems  int
	ErrorMessage string
}

// Get reads a job's current record, returning sql.ErrNoRows if unknown.
func (l *Ledger) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	const query = `
		SELECT id, status, total_items, done_items, failed_items, COALESCE(error_message, '')
		FROM kreuzberg_batch_jobs WHERE id = $1
	`
	row := l.db.QueryRowContext(ctx, query, jobID)
	var rec JobRecord
	var status string
	if err := row.Scan(&rec.JobID, &status, &rec.TotalItems, &rec.DoneItems, &rec.FailedItems, &rec.ErrorMessage); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	return &rec, nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	return l.db.Close()
}
