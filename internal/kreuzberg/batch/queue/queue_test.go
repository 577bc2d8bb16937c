package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

func TestJobRoundTripsThroughJSON(t *testing.T) {
	job := &Job{
		JobID:    "job-1",
		Content:  []byte("hello"),
		MimeHint: "text/plain",
		Config:   kconfig.Default(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Job
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.JobID != job.JobID || string(decoded.Content) != string(job.Content) {
		t.Errorf("round trip mismatch: got %+v", decoded)
	}
}

func TestNewServerRejectsMissingRedisURL(t *testing.T) {
	handler := func(ctx context.Context, job *Job) (*kdoc.ExtractionResult, error) {
		return nil, nil
	}
	if _, err := NewServer(Config{}, handler); err == nil {
		t.Error("expected error for missing RedisURL")
	}
}

func TestNewServerRejectsNilHandler(t *testing.T) {
	if _, err := NewServer(Config{RedisURL: "redis://localhost:6379"}, nil); err == nil {
		t.Error("expected error for nil handler")
	}
}
