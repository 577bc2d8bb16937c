package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

func TestRunPreservesOrder(t *testing.T) {
	items := make([]Item, 5)
	for i := range items {
		items[i] = Item{Content: []byte{byte(i)}}
	}
	run := func(ctx context.Context, item Item, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
		return &kdoc.ExtractionResult{Content: string(item.Content)}, nil
	}

	results := Run(context.Background(), items, kconfig.Default(), 2, run)
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Content != string(items[i].Content) {
			t.Errorf("result %d out of order: got %q", i, r.Content)
		}
	}
}

func TestRunIsolatesPerItemFailure(t *testing.T) {
	items := []Item{{Content: []byte("ok")}, {Content: []byte("bad")}}
	run := func(ctx context.Context, item Item, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
		if string(item.Content) == "bad" {
			return nil, errors.New("boom")
		}
		return &kdoc.ExtractionResult{Content: "ok"}, nil
	}

	results := Run(context.Background(), items, kconfig.Default(), 2, run)
	if results[0].Metadata.Additional != nil {
		t.Errorf("expected first item to succeed cleanly, got %v", results[0].Metadata.Additional)
	}
	if results[1].Metadata.Additional == nil || results[1].Metadata.Additional["error"] == nil {
		t.Errorf("expected second item to carry an error, got %+v", results[1])
	}
}
