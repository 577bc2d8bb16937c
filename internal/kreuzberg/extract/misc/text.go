// Package misc implements the remaining built-in extractors (C5.6): plain
// text, image (OCR-routed), email, archive listing, and bare XML.
package misc

import (
	"context"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

type TextExtractor struct {
	extract.Stateless
}

func NewText() *TextExtractor { return &TextExtractor{} }

func (e *TextExtractor) Name() string { return "text" }

func (e *TextExtractor) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

func (e *TextExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	text := string(content)
	lines := strings.Split(text, "\n")
	words := strings.Fields(text)

	meta := kdoc.Metadata{}
	meta.WithText(kdoc.TextMetadata{
		LineCount: len(lines),
		WordCount: len(words),
		CharCount: len([]rune(text)),
	})

	return &kdoc.ExtractionResult{
		Content:  text,
		MimeType: "text/plain",
		Metadata: meta,
	}, nil
}
