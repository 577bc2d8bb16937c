// Package ocr implements the OCR engine (C3): language resolution, the
// Tesseract invocation via gosseract, output formatting, and table
// reconstruction from word boxes.
package ocr

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/cache"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// Engine runs OCR requests against Tesseract through gosseract. It owns the
// tessdata path used for language-wildcard resolution and an optional result
// cache, and paces concurrent recognitions with a rate limiter so a large
// batch can't starve the host's CPU scheduler.
type Engine struct {
	tessdataPrefix string
	cache          *cache.Store
	limiter        *rate.Limiter
	clientPool     sync.Pool
}

// New constructs an Engine. tessdataPrefix is used to resolve the "all"/"*"
// language wildcard; resultCache may be nil to disable OCR-level caching
// entirely (the pipeline's own cache still applies at the document level).
// maxConcurrent sets the limiter's rate (recognitions started per second)
// and its burst; it does not cap how many recognitions run at once.
func New(tessdataPrefix string, resultCache *cache.Store, maxConcurrent int) *Engine {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Engine{
		tessdataPrefix: tessdataPrefix,
		cache:          resultCache,
		limiter:        rate.NewLimiter(rate.Limit(maxConcurrent), maxConcurrent),
		clientPool: sync.Pool{
			New: func() interface{} { return gosseract.NewClient() },
		},
	}
}

// Result is the OCR engine's own result shape (spec §4.3's
// OcrExtractionResult); the pipeline lifts it into a full kdoc.ExtractionResult.
type Result struct {
	Content  string
	MimeType string
	Metadata map[string]interface{}
	Tables   []kdoc.Table
}

// ProcessImage runs the full algorithm in spec §4.3 against raw image bytes.
func (e *Engine) ProcessImage(ctx context.Context, data []byte, cfg *kconfig.OcrConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, kerrors.NewInvalidInput("ocr_config", err.Error(), err)
	}

	resolvedLang, err := e.resolveLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}

	imageHash := fmt.Sprintf("%016x", xxhash.Sum64(data))
	resolvedCfg := *cfg
	resolvedCfg.Language = resolvedLang
	fingerprint, err := cache.Fingerprint(resolvedCfg)
	if err != nil {
		return nil, kerrors.NewOther("ocr_fingerprint", "failed to compute fingerprint", err)
	}

	if cfg.UseCache && e.cache != nil {
		if cached, ok := e.cache.Get(imageHash, "ocr:"+cfg.Backend, fingerprint); ok {
			return &Result{Content: cached.Content, MimeType: cached.MimeType, Tables: cached.Tables}, nil
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, kerrors.NewOther("ocr_rate_limit", "wait cancelled", err)
	}

	client := e.clientPool.Get().(*gosseract.Client)
	defer e.clientPool.Put(client)

	if err := client.SetLanguage(strings.Split(resolvedLang, "+")...); err != nil {
		return nil, kerrors.NewOcrEngine("set_language", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
		return nil, kerrors.NewOcrEngine("set_page_seg_mode", err)
	}
	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return nil, kerrors.NewOcrEngine("set_tessdata_prefix", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, kerrors.NewImageProcessing("decode_image", err)
	}

	result, err := e.render(client, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.EnableTableDetection {
		boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
		if err == nil {
			if table := reconstructTable(boxes, cfg); table != nil {
				result.Tables = append(result.Tables, *table)
			}
		}
	}

	result.Content = stripControlChars(result.Content)

	if cfg.UseCache && e.cache != nil {
		_ = e.cache.Put(imageHash, "ocr:"+cfg.Backend, fingerprint, &kdoc.ExtractionResult{
			Content: result.Content, MimeType: result.MimeType, Tables: result.Tables,
		})
	}

	return result, nil
}

func (e *Engine) render(client *gosseract.Client, cfg *kconfig.OcrConfig) (*Result, error) {
	switch cfg.OutputFormat {
	case kconfig.OcrOutputText:
		text, err := client.Text()
		if err != nil {
			return nil, kerrors.NewOcrEngine("recognize", err)
		}
		return &Result{Content: text, MimeType: "text/plain"}, nil
	case kconfig.OcrOutputHOCR:
		hocr, err := client.HOCRText()
		if err != nil {
			return nil, kerrors.NewOcrEngine("recognize", err)
		}
		return &Result{Content: hocr, MimeType: "application/xhtml+xml"}, nil
	case kconfig.OcrOutputMarkdown:
		hocr, err := client.HOCRText()
		if err != nil {
			return nil, kerrors.NewOcrEngine("recognize", err)
		}
		md := HOCRToMarkup(hocr, false)
		return &Result{Content: md, MimeType: "text/markdown"}, nil
	case kconfig.OcrOutputTSV:
		boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
		if err != nil {
			return nil, kerrors.NewOcrEngine("recognize", err)
		}
		return &Result{Content: boxesToTSV(boxes), MimeType: "text/tab-separated-values"}, nil
	default:
		return nil, kerrors.NewInvalidInput("output_format", fmt.Sprintf("unknown output_format %q", cfg.OutputFormat), nil)
	}
}

// ProcessFile reads a file from disk then delegates to ProcessImage.
func (e *Engine) ProcessFile(ctx context.Context, path string, cfg *kconfig.OcrConfig) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.NewIO(path, err)
	}
	return e.ProcessImage(ctx, data, cfg)
}

// BatchItemResult is one outcome of ProcessFilesBatch; exactly one of Result
// or Err is set.
type BatchItemResult struct {
	Path   string
	Result *Result
	Err    error
}

// ProcessFilesBatch OCRs every path with data-parallel fork-join; the
// language wildcard is resolved once for the whole batch (spec §4.3 step 2)
// rather than per item. A failure on one item never aborts the others.
func (e *Engine) ProcessFilesBatch(ctx context.Context, paths []string, cfg *kconfig.OcrConfig) ([]BatchItemResult, error) {
	resolvedLang, err := e.resolveLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	batchCfg := *cfg
	batchCfg.Language = resolvedLang

	results := make([]BatchItemResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			res, err := e.ProcessFile(gctx, p, &batchCfg)
			results[i] = BatchItemResult{Path: p, Result: res, Err: err}
			return nil // per-item errors do not abort the batch
		})
	}
	_ = g.Wait()
	return results, nil
}

// resolveLanguage implements spec §4.3 step 2: "all"/"*" (case-insensitive)
// expands to every traineddata file under the tessdata prefix, joined by "+".
func (e *Engine) resolveLanguage(lang string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(lang))
	if trimmed != "all" && trimmed != "*" {
		return lang, nil
	}
	prefix := e.tessdataPrefix
	if prefix == "" {
		prefix = os.Getenv("TESSDATA_PREFIX")
	}
	if prefix == "" {
		return "", kerrors.NewInvalidInput("tessdata_prefix", "cannot resolve language wildcard without a tessdata path", nil)
	}
	entries, err := os.ReadDir(prefix)
	if err != nil {
		return "", kerrors.NewIO(prefix, err)
	}
	var codes []string
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasSuffix(ent.Name(), ".traineddata") {
			codes = append(codes, strings.TrimSuffix(ent.Name(), ".traineddata"))
		}
	}
	if len(codes) == 0 {
		return "", kerrors.NewInvalidInput(prefix, "no traineddata files found", nil)
	}
	return strings.Join(codes, "+"), nil
}

var controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B-\x1F]`)

// stripControlChars removes control characters except tab (\x09) and
// newline (\x0A), per spec §4.3 step 10.
func stripControlChars(s string) string {
	return controlCharPattern.ReplaceAllString(s, "")
}
