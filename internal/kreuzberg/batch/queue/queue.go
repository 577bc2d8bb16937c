// Package queue is an asynq-backed front door offering BatchExtractBytes
// semantics over Redis, for callers that want durable, horizontally-scaled
// batch jobs instead of the in-process pool in internal/kreuzberg/batch.
// It is additive: the in-process pool remains the default batch surface.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/ledger"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/obslog"
)

const taskTypeExtract = "kreuzberg:extract"

// Job is the payload submitted for one queued extraction.
type Job struct {
	JobID    string                    `json:"job_id"`
	Content  []byte                    `json:"content"`
	MimeHint string                    `json:"mime_hint"`
	Config   *kconfig.ExtractionConfig `json:"config,omitempty"`
}

// Handler performs the actual extraction for a dequeued Job.
type Handler func(ctx context.Context, job *Job) (*kdoc.ExtractionResult, error)

// Client enqueues jobs onto the Redis-backed queue.
type Client struct {
	client *asynq.Client
}

// NewClient parses a Redis URL (same DSN shape as REDIS_URL) and returns a
// submission client.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Enqueue submits one extraction job and returns immediately.
func (c *Client) Enqueue(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	task := asynq.NewTask(taskTypeExtract, payload)
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Config configures a queue Server.
type Config struct {
	RedisURL    string
	Concurrency int
	Ledger      *ledger.Ledger // optional; job status is recorded when set
	Log         *obslog.Logger
}

// Server consumes jobs and runs them through a Handler.
type Server struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler Handler
	cfg     Config
}

// NewServer builds a consumer bound to the given handler. Handler is
// typically a closure over a pipeline.Pipeline's Run method.
func NewServer(cfg Config, handler Handler) (*Server, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("queue: RedisURL is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("queue: handler is required")
	}
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	s := &Server{cfg: cfg, handler: handler}
	s.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			if cfg.Log != nil {
				cfg.Log.Error("queued extraction failed", "type", task.Type(), "error", err)
			}
		}),
	})
	s.mux = asynq.NewServeMux()
	s.mux.HandleFunc(taskTypeExtract, s.handle)
	return s, nil
}

func (s *Server) handle(ctx context.Context, task *asynq.Task) error {
	var job Job
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("queue: unmarshal job: %w", err)
	}

	if s.cfg.Ledger != nil {
		_ = s.cfg.Ledger.Upsert(ctx, &ledger.JobUpdate{JobID: job.JobID, Status: ledger.StatusRunning, TotalItems: 1})
	}

	result, err := s.handler(ctx, &job)

	if s.cfg.Ledger == nil {
		if err != nil {
			return fmt.Errorf("queue: extraction failed: %w", err)
		}
		return nil
	}

	if err != nil {
		_ = s.cfg.Ledger.Upsert(ctx, &ledger.JobUpdate{
			JobID: job.JobID, Status: ledger.StatusFailed, TotalItems: 1,
			ErrorMessage: err.Error(),
		})
		return fmt.Errorf("queue: extraction failed: %w", err)
	}

	_ = s.cfg.Ledger.Upsert(ctx, &ledger.JobUpdate{
		JobID: job.JobID, Status: ledger.StatusCompleted, TotalItems: 1, DoneItems: 1,
		Metadata: map[string]interface{}{"content_length": len(result.Content)},
	})
	return nil
}

// Run blocks, consuming jobs until Shutdown is called from another
// goroutine or the process receives a termination signal.
func (s *Server) Run() error {
	return s.server.Run(s.mux)
}

// Shutdown stops the server gracefully, waiting for in-flight jobs.
func (s *Server) Shutdown() {
	s.server.Shutdown()
}
