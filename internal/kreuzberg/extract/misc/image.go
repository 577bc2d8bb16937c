package misc

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/ocr"
)

// ImageExtractor routes raster images through the OCR engine when one is
// configured; the recognized text becomes the content (spec §4.5.6). Without
// an OCR backend, it reports the image's dimensions only.
type ImageExtractor struct {
	extract.Stateless
	OCREngine *ocr.Engine
}

func NewImage(engine *ocr.Engine) *ImageExtractor { return &ImageExtractor{OCREngine: engine} }

func (e *ImageExtractor) Name() string { return "image" }

func (e *ImageExtractor) SupportedMIMETypes() []string {
	return []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff", "image/webp"}
}

func (e *ImageExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	width, height, colorspace := probeImage(content)

	meta := kdoc.Metadata{}
	meta.WithImage(kdoc.ImageMetadata{Width: width, Height: height, Colorspace: colorspace})

	if cfg.OCR == nil || e.OCREngine == nil {
		return &kdoc.ExtractionResult{MimeType: mimeHint, Metadata: meta}, nil
	}

	ocrResult, err := e.OCREngine.ProcessImage(ctx, content, cfg.OCR)
	if err != nil {
		return nil, kerrors.NewOcrEngine("image_extract", err)
	}

	meta.WithOCR(kdoc.OCRMetadata{
		Language:     cfg.OCR.Language,
		PSM:          cfg.OCR.PSM,
		OutputFormat: string(cfg.OCR.OutputFormat),
		TableCount:   len(ocrResult.Tables),
	})

	return &kdoc.ExtractionResult{
		Content:  ocrResult.Content,
		MimeType: ocrResult.MimeType,
		Metadata: meta,
		Tables:   ocrResult.Tables,
	}, nil
}

func probeImage(content []byte) (width, height int, colorspace string) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0, ""
	}
	return cfg.Width, cfg.Height, format
}
