// Package extract defines the common extractor contract implemented by
// every format-specific package (C5).
package extract

import (
	"context"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// Extractor is the capability every format package implements. It also
// satisfies registry.MimePlugin via Name/Initialize/Shutdown (trivial no-ops
// for most built-ins, since format extractors are stateless).
type Extractor interface {
	Name() string
	Initialize() error
	Shutdown() error
	SupportedMIMETypes() []string
	Priority() int
	ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error)
}

// BasePriority is the priority every built-in extractor registers with,
// per spec §4.5.
const BasePriority = 50

// Stateless provides the trivial Initialize/Shutdown/Priority implementation
// shared by every built-in extractor; format packages embed it.
type Stateless struct{}

func (Stateless) Initialize() error { return nil }
func (Stateless) Shutdown() error   { return nil }
func (Stateless) Priority() int     { return BasePriority }
