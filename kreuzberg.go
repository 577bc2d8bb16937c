// Package kreuzberg is the public entry point (C7): a document-intelligence
// engine that detects a file's MIME type, dispatches to a format-specific
// extractor, applies OCR fallback where native text quality is too low, and
// returns a unified ExtractionResult — synchronously for single documents,
// fanned out over a bounded worker pool for batches.
package kreuzberg

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/batch"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/cache"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/docx"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/html"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/markup"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/misc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/pdf"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/presentation"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract/spreadsheet"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/obslog"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/ocr"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/pipeline"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/registry"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/svcconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/vectorindex"
)

// Engine bundles a configured registry, cache, OCR backend, and pipeline
// behind the four operations spec.md §4.7 describes.
type Engine struct {
	pipeline    *pipeline.Pipeline
	concurrency int
}

// New assembles an Engine from process configuration: the extractor
// registry (every built-in format plugin), the on-disk derivation cache,
// and the OCR engine (only constructed if a Tesseract path is set).
func New(cfg *svcconfig.Config, log *obslog.Logger) (*Engine, error) {
	store, err := cache.New(cfg.CacheDirs, time.Duration(cfg.CacheTTLSeconds)*time.Second, nil)
	if err != nil {
		return nil, fmt.Errorf("kreuzberg: cache: %w", err)
	}

	var ocrEngine *ocr.Engine
	if cfg.TesseractPath != "" {
		ocrEngine = ocr.New(cfg.TessdataPrefix, store, cfg.WorkerConcurrency)
	}

	reg := registry.New()
	if err := registerBuiltins(reg, ocrEngine); err != nil {
		return nil, err
	}

	p := pipeline.New(reg, store, log)

	if cfg.VectorIndexEnabled() {
		idx, err := vectorindex.Open(context.Background(), cfg.QdrantAddress, cfg.QdrantCollection, 1024)
		if err != nil && log != nil {
			log.Warn("vector index unavailable, continuing without it", "error", err)
		} else if err == nil {
			p.VectorIndex = idx
		}
	}

	return &Engine{pipeline: p, concurrency: cfg.WorkerConcurrency}, nil
}

func registerBuiltins(reg *registry.Registry, ocrEngine *ocr.Engine) error {
	plugins := []registry.MimePlugin{
		pdf.New(ocrEngine),
		html.New(),
		docx.New(),
		spreadsheet.New(),
		presentation.New(),
		markup.NewMarkdown(),
		markup.NewDjot(),
		markup.NewJATS(),
		misc.NewText(),
		misc.NewImage(ocrEngine),
		misc.NewEmail(),
		misc.NewArchive(),
		misc.NewXML(),
	}
	for _, p := range plugins {
		if err := reg.Register(p); err != nil {
			return fmt.Errorf("kreuzberg: register %s: %w", p.Name(), err)
		}
	}
	return nil
}

// SetEmbedder wires a chunk embedder into the vector-index write path. It is
// a no-op if VectorIndexEnabled was false when New ran.
func (e *Engine) SetEmbedder(embedder vectorindex.Embedder) {
	e.pipeline.Embedder = embedder
}

// ExtractBytes runs the full pipeline over in-memory content, as spec §4.7.
func (e *Engine) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	return e.pipeline.Run(ctx, content, "", mimeHint, cfg)
}

// ExtractFile reads path and runs the full pipeline over its contents.
func (e *Engine) ExtractFile(ctx context.Context, path string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kreuzberg: read %s: %w", path, err)
	}
	return e.pipeline.Run(ctx, content, path, "", cfg)
}

// BatchExtractBytes runs ExtractBytes over every item concurrently, bounded
// by the engine's configured worker count. Per-item failures are recorded
// into that item's Metadata.Additional["error"] rather than aborting the
// batch (spec §4.7's documented convention).
func (e *Engine) BatchExtractBytes(ctx context.Context, items []BytesItem, cfg *kconfig.ExtractionConfig) []*kdoc.ExtractionResult {
	batchItems := make([]batch.Item, len(items))
	for i, it := range items {
		batchItems[i] = batch.Item{Content: it.Content, MimeHint: it.MimeHint}
	}
	return batch.Run(ctx, batchItems, cfg, e.concurrency, func(ctx context.Context, item batch.Item, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
		return e.pipeline.Run(ctx, item.Content, "", item.MimeHint, cfg)
	})
}

// BatchExtractFile runs ExtractFile over every path concurrently, bounded by
// the engine's configured worker count, with the same per-item isolation as
// BatchExtractBytes.
func (e *Engine) BatchExtractFile(ctx context.Context, paths []string, cfg *kconfig.ExtractionConfig) []*kdoc.ExtractionResult {
	batchItems := make([]batch.Item, len(paths))
	for i, p := range paths {
		batchItems[i] = batch.Item{Path: p}
	}
	return batch.Run(ctx, batchItems, cfg, e.concurrency, func(ctx context.Context, item batch.Item, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
		content, err := os.ReadFile(item.Path)
		if err != nil {
			return nil, fmt.Errorf("kreuzberg: read %s: %w", item.Path, err)
		}
		return e.pipeline.Run(ctx, content, item.Path, "", cfg)
	})
}

// BytesItem is one unit of in-memory batch work.
type BytesItem struct {
	Content  []byte
	MimeHint string
}
