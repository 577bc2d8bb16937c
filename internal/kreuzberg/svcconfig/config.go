// Package svcconfig loads ambient service configuration (cache location,
// worker concurrency, optional backing stores) from the environment. This is
// distinct from kconfig.ExtractionConfig, which is caller-owned request data,
// not process configuration.
package svcconfig

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings for the extraction service and its
// optional batch-queue / job-ledger / vector-index collaborators.
type Config struct {
	// Cache store
	CacheDirs []string // one or more root directories, sharded via rendezvous hashing
	CacheTTLSeconds int

	// Tesseract OCR
	TesseractPath   string
	TessdataPrefix  string

	// Optional Redis-backed batch queue + distributed cache lock
	RedisURL string

	// Optional Postgres-backed job ledger
	DatabaseURL string

	// Optional Qdrant chunk vector index
	QdrantAddress    string
	QdrantCollection string

	// Worker pool sizing
	WorkerConcurrency int
	MaxFileSize       int64
	ProcessingTimeoutSeconds int

	Environment string
}

// Load reads configuration from the environment, loading a local .env file
// first if present. Validate requires a non-empty CacheDirs (plus in-range
// WorkerConcurrency and MaxFileSize); every other field degrades to a
// default or an empty/disabled value so the optional
// domain-stack components (queue, ledger, vector index) can be left
// unconfigured in a minimal deployment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CacheDirs:                splitOrDefault(getEnv("KREUZBERG_CACHE_DIRS", "/var/cache/kreuzberg")),
		CacheTTLSeconds:          getEnvAsIntOrDefault("KREUZBERG_CACHE_TTL_SECONDS", 7*24*3600),
		TesseractPath:            getEnv("TESSERACT_PATH", "/usr/bin/tesseract"),
		TessdataPrefix:           getEnv("TESSDATA_PREFIX", "/usr/share/tessdata"),
		RedisURL:                 getEnv("REDIS_URL", ""),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		QdrantAddress:            getEnv("QDRANT_ADDRESS", ""),
		QdrantCollection:         getEnv("QDRANT_COLLECTION", "kreuzberg_chunks"),
		WorkerConcurrency:        getEnvAsIntOrDefault("KREUZBERG_WORKER_CONCURRENCY", 8),
		MaxFileSize:              getEnvAsInt64OrDefault("KREUZBERG_MAX_FILE_SIZE", 5*1024*1024*1024),
		ProcessingTimeoutSeconds: getEnvAsIntOrDefault("KREUZBERG_PROCESSING_TIMEOUT_SECONDS", 300),
		Environment:              getEnv("KREUZBERG_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.CacheDirs) == 0 {
		return fmt.Errorf("KREUZBERG_CACHE_DIRS is required")
	}
	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 256 {
		return fmt.Errorf("KREUZBERG_WORKER_CONCURRENCY must be between 1 and 256, got %d", c.WorkerConcurrency)
	}
	if c.MaxFileSize < 1024 {
		return fmt.Errorf("KREUZBERG_MAX_FILE_SIZE must be at least 1KB, got %d", c.MaxFileSize)
	}
	return nil
}

// QueueEnabled reports whether the Redis-backed batch queue is configured.
func (c *Config) QueueEnabled() bool { return c.RedisURL != "" }

// LedgerEnabled reports whether the Postgres job ledger is configured.
func (c *Config) LedgerEnabled() bool { return c.DatabaseURL != "" }

// VectorIndexEnabled reports whether the Qdrant chunk vector index is configured.
func (c *Config) VectorIndexEnabled() bool { return c.QdrantAddress != "" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvAsInt64OrDefault(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func splitOrDefault(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
