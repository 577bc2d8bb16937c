// Package batch implements the bounded in-process worker pool backing the
// public API's batch extraction calls (spec §4.7 / SPEC_FULL §6.7).
package batch

import (
	"context"
	"runtime"
	"sync"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// Item is a single unit of batch work: either raw bytes with a MIME hint,
// or a file path to be read by Run (path-based items let Runner decide how
// to open the file, matching ExtractFile's contract).
type Item struct {
	Content  []byte
	Path     string
	MimeHint string
}

// Runner performs a single extraction. The public kreuzberg package supplies
// one backed by pipeline.Pipeline.Run plus file reads.
type Runner func(ctx context.Context, item Item, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error)

// Run dispatches items across a bounded worker pool and returns one result
// per item, in the same order as items. A per-item failure does not abort
// the batch: it is recorded into the result's Metadata.Additional["error"]
// field and the item is marked failed, per spec §4.7's per-item-isolation
// convention.
func Run(ctx context.Context, items []Item, cfg *kconfig.ExtractionConfig, concurrency int, run Runner) []*kdoc.ExtractionResult {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*kdoc.ExtractionResult, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = runOne(ctx, items[idx], cfg, run)
		}(i)
	}
	wg.Wait()
	return results
}

func runOne(ctx context.Context, item Item, cfg *kconfig.ExtractionConfig, run Runner) *kdoc.ExtractionResult {
	result, err := run(ctx, item, cfg)
	if err == nil {
		return result
	}

	failed := &kdoc.ExtractionResult{
		Metadata: kdoc.Metadata{
			Additional: map[string]interface{}{
				"error": errorDetail(err),
			},
		},
	}
	return failed
}

func errorDetail(err error) map[string]interface{} {
	detail := map[string]interface{}{"message": err.Error()}
	if ee, ok := err.(*kerrors.ExtractionError); ok {
		detail["code"] = string(ee.Code)
	}
	return detail
}
