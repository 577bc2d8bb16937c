// Command worker runs the Redis-backed batch extraction queue consumer:
// it dequeues jobs submitted via internal/kreuzberg/batch/queue and runs
// them through the kreuzberg extraction engine, recording status in the
// optional Postgres job ledger.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kreuzberg/kreuzberg-go"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/batch/queue"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/ledger"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/obslog"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/svcconfig"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using system environment variables")
	}

	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := obslog.New("worker", cfg.Environment == "development")
	logger.Info("kreuzberg worker starting", "concurrency", cfg.WorkerConcurrency)

	engine, err := kreuzberg.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}

	if !cfg.QueueEnabled() {
		log.Fatalf("REDIS_URL is required to run the queue worker")
	}

	var jobLedger *ledger.Ledger
	if cfg.LedgerEnabled() {
		jobLedger, err = ledger.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open job ledger: %v", err)
		}
		if err := jobLedger.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("failed to prepare job ledger schema: %v", err)
		}
		defer jobLedger.Close()
		logger.Info("job ledger connected")
	}

	server, err := queue.NewServer(queue.Config{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.WorkerConcurrency,
		Ledger:      jobLedger,
		Log:         logger,
	}, func(ctx context.Context, job *queue.Job) (*kdoc.ExtractionResult, error) {
		return engine.ExtractBytes(ctx, job.Content, job.MimeHint, job.Config)
	})
	if err != nil {
		log.Fatalf("failed to initialize queue server: %v", err)
	}

	go func() {
		if err := server.Run(); err != nil {
			logger.Error("queue server stopped with error", "error", err)
		}
	}()
	logger.Info("kreuzberg worker ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received shutdown signal", "signal", sig.String())

	server.Shutdown()
	logger.Info("kreuzberg worker shut down")
}
