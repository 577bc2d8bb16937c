// Package pipeline implements the extraction pipeline (C6): MIME
// resolution, cache lookup, extractor dispatch, post-processing, and cache
// store, per spec §4.6.
package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spf13/cast"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/cache"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/mimetype"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/obslog"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/registry"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/vectorindex"
)

// PostProcessor mutates an ExtractionResult's derived fields after
// extraction. Post-processors run in the order they were registered with
// Pipeline.AddPostProcessor (spec §4.6 step 6e) — never reordered by
// priority, unlike the MIME-keyed extractor registry.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, result *kdoc.ExtractionResult) (*kdoc.ExtractionResult, error)
}

// Validator runs after post-processing; any failure aborts the pipeline
// with a Validation error (spec §4.6 step 6f).
type Validator interface {
	Name() string
	Validate(ctx context.Context, result *kdoc.ExtractionResult) error
}

// Pipeline wires together every extraction component behind the single
// Run entry point.
type Pipeline struct {
	Extractors *registry.Registry
	Cache      *cache.Store
	Log        *obslog.Logger

	// VectorIndex and Embedder are both optional. When set, chunks produced
	// by the chunking step are embedded and upserted after every run.
	VectorIndex *vectorindex.Index
	Embedder    vectorindex.Embedder

	mu             sync.Mutex
	postProcessors []PostProcessor
	validators     []Validator
}

func New(extractors *registry.Registry, store *cache.Store, log *obslog.Logger) *Pipeline {
	return &Pipeline{Extractors: extractors, Cache: store, Log: log}
}

// AddPostProcessor appends to the end of the post-processing chain.
func (p *Pipeline) AddPostProcessor(pp PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.postProcessors = append(p.postProcessors, pp)
}

// AddValidator appends to the end of the validation chain.
func (p *Pipeline) AddValidator(v Validator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validators = append(p.validators, v)
}

// Run implements spec §4.6's run(content_or_path, mime_hint, &ExtractionConfig).
func (p *Pipeline) Run(ctx context.Context, content []byte, pathHint, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	if cfg == nil {
		cfg = kconfig.Default()
	}

	resolvedMime := mimeHint
	if resolvedMime == "" {
		mt, err := mimetype.Detect(pathHint, content, true)
		if err != nil {
			return nil, err
		}
		resolvedMime = mt
	}

	contentHash := cache.HashContent(content)
	fingerprint, err := cache.Fingerprint(cfg)
	if err != nil {
		return nil, kerrors.NewOther("pipeline_fingerprint", "failed to compute config fingerprint", err)
	}

	if cfg.UseCache && p.Cache != nil {
		if cached, ok := p.Cache.Get(contentHash, "extract", fingerprint); ok {
			return cached, nil
		}
	}

	plugin, err := p.Extractors.Get(resolvedMime)
	if err != nil {
		return nil, err
	}
	extractor, ok := plugin.(extract.Extractor)
	if !ok {
		return nil, kerrors.NewPlugin(plugin.Name(), kerrors.NewOther(plugin.Name(), "registered plugin does not implement extract.Extractor", nil))
	}

	result, err := extractor.ExtractBytes(ctx, content, resolvedMime, cfg)
	if err != nil {
		return nil, err
	}

	if err := p.postProcess(ctx, result, cfg); err != nil {
		return nil, err
	}

	if p.VectorIndex != nil && p.Embedder != nil && len(result.Chunks) > 0 {
		if err := p.VectorIndex.UpsertChunks(ctx, contentHash, result.Chunks, p.Embedder); err != nil && p.Log != nil {
			p.Log.Warn("vector index upsert failed", "error", err)
		}
	}

	if cfg.UseCache && p.Cache != nil {
		if err := p.Cache.Put(contentHash, "extract", fingerprint, result); err != nil && p.Log != nil {
			p.Log.Warn("cache store failed", "error", err)
		}
	}

	return result, nil
}

// postProcess runs spec §4.6 step 6 (b)-(f). Step (a), OCR fallback for
// raster-yielding extractors, happens inside the extractor itself (the PDF
// and image extractors apply it directly since only they know which bytes
// need OCR).
func (p *Pipeline) postProcess(ctx context.Context, result *kdoc.ExtractionResult, cfg *kconfig.ExtractionConfig) error {
	if cfg.DetectLanguage {
		result.DetectedLanguages = detectLanguages(result.Content, 3)
	}

	if cfg.EnableQualityProcessing {
		score := qualityScore(result.Content)
		if result.Metadata.Additional == nil {
			result.Metadata.Additional = map[string]interface{}{}
		}
		result.Metadata.Additional["quality_score"] = score
	}

	if cfg.Chunking != nil {
		result.Chunks = chunkContent(result.Content, cfg.Chunking, result.Metadata.Pages.Boundaries)
	}

	mergeExtraMetadata(result, cfg.Extra)

	p.mu.Lock()
	postProcessors := append([]PostProcessor(nil), p.postProcessors...)
	validators := append([]Validator(nil), p.validators...)
	p.mu.Unlock()

	for _, pp := range postProcessors {
		select {
		case <-ctx.Done():
			return kerrors.NewOther("pipeline_postprocess", "cancelled", ctx.Err())
		default:
		}
		updated, err := pp.Process(ctx, result)
		if err != nil {
			return kerrors.NewPlugin(pp.Name(), err)
		}
		result = updated
	}

	for _, v := range validators {
		if err := v.Validate(ctx, result); err != nil {
			return kerrors.NewValidation(v.Name(), err.Error())
		}
	}
	return nil
}

// mergeExtraMetadata folds unrecognized caller config fields into
// Metadata.Additional so they ride alongside the result. Extra arrives as
// raw JSON of unknown shape; cast coerces each decoded value to the nearest
// scalar/string/map form instead of storing untyped JSON numbers
// (float64-by-default from encoding/json) and raw json.RawMessage blobs.
func mergeExtraMetadata(result *kdoc.ExtractionResult, extra map[string]json.RawMessage) {
	if len(extra) == 0 {
		return
	}
	if result.Metadata.Additional == nil {
		result.Metadata.Additional = map[string]interface{}{}
	}
	for key, raw := range extra {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			continue
		}
		switch decoded.(type) {
		case map[string]interface{}:
			if m, err := cast.ToStringMapE(decoded); err == nil {
				result.Metadata.Additional[key] = m
				continue
			}
		case []interface{}:
			result.Metadata.Additional[key] = decoded
			continue
		case float64:
			result.Metadata.Additional[key] = cast.ToFloat64(decoded)
			continue
		case bool:
			result.Metadata.Additional[key] = cast.ToBool(decoded)
			continue
		}
		result.Metadata.Additional[key] = cast.ToString(decoded)
	}
}
