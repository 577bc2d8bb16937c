// Package kconfig defines the caller-owned configuration types consumed by
// the extraction pipeline. These are plain data: immutable once passed in,
// never mutated by extractors or postprocessors.
package kconfig

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/language"
)

type OutputFormat string

const (
	OutputPlain      OutputFormat = "plain"
	OutputMarkdown   OutputFormat = "markdown"
	OutputDjot       OutputFormat = "djot"
	OutputHTML       OutputFormat = "html"
	OutputStructured OutputFormat = "structured"
)

type ResultFormat string

const (
	ResultUnified      ResultFormat = "unified"
	ResultElementBased ResultFormat = "element_based"
)

type OcrBackendKind string

const (
	BackendTesseract OcrBackendKind = "tesseract"
	BackendEasyOCR   OcrBackendKind = "easyocr"
	BackendPaddleOCR OcrBackendKind = "paddleocr"
)

type OcrOutputFormat string

const (
	OcrOutputText     OcrOutputFormat = "text"
	OcrOutputMarkdown OcrOutputFormat = "markdown"
	OcrOutputHOCR     OcrOutputFormat = "hocr"
	OcrOutputTSV      OcrOutputFormat = "tsv"
)

// OcrConfig controls the OCR engine (C3). Backend is a known kind or any
// custom plugin name registered under the OCR-backend registry.
type OcrConfig struct {
	Backend               string          `json:"backend"`
	Language              string          `json:"language"`
	PSM                   int             `json:"psm"`
	OEM                   int             `json:"oem"`
	OutputFormat          OcrOutputFormat `json:"output_format"`
	EnableTableDetection  bool            `json:"enable_table_detection"`
	TableMinConfidence    float64         `json:"table_min_confidence"`
	TableColumnThreshold  float64         `json:"table_column_threshold"`
	TableRowThresholdRatio float64        `json:"table_row_threshold_ratio"`
	UseCache              bool            `json:"use_cache"`
}

// Validate checks the bounds described in spec §4.3 step 1.
func (c *OcrConfig) Validate() error {
	if c.Language == "" {
		return errInvalid("language must not be empty")
	}
	if err := validateLanguageTags(c.Language); err != nil {
		return err
	}
	if c.PSM < 0 || c.PSM > 13 {
		return errInvalid("psm must be in 0..=13")
	}
	if c.OEM < 0 || c.OEM > 3 {
		return errInvalid("oem must be in 0..=3")
	}
	switch c.OutputFormat {
	case OcrOutputText, OcrOutputMarkdown, OcrOutputHOCR, OcrOutputTSV:
	default:
		return errInvalid("unknown output_format")
	}
	if c.EnableTableDetection {
		if c.TableMinConfidence < 0 || c.TableMinConfidence > 100 {
			return errInvalid("table_min_confidence must be in 0..=100")
		}
		if c.TableColumnThreshold <= 0 {
			return errInvalid("table_column_threshold must be > 0")
		}
		if c.TableRowThresholdRatio <= 0 || c.TableRowThresholdRatio > 1 {
			return errInvalid("table_row_threshold_ratio must be in (0,1]")
		}
	}
	return nil
}

type ChunkingConfig struct {
	MaxCharacters int `json:"max_characters"`
	Overlap       int `json:"overlap"`
}

type PageConfig struct {
	ExtractPages      bool   `json:"extract_pages"`
	InsertPageMarkers bool   `json:"insert_page_markers"`
	MarkerFormat      string `json:"marker_format"`
}

type ImageConfig struct {
	ExtractImages bool `json:"extract_images"`
}

type HierarchyOptions struct {
	Enabled     bool `json:"enabled"`
	KClusters   int  `json:"k_clusters"`
	IncludeBBox bool `json:"include_bbox"`
}

type PDFOptions struct {
	Hierarchy *HierarchyOptions `json:"hierarchy,omitempty"`
}

// ExtractionConfig is the top-level request configuration for a single
// extraction call. Unknown fields on the wire round-trip via Extra.
type ExtractionConfig struct {
	OutputFormat             OutputFormat    `json:"output_format"`
	ResultFormat             ResultFormat    `json:"result_format"`
	ForceOCR                 bool            `json:"force_ocr"`
	UseCache                 bool            `json:"use_cache"`
	EnableQualityProcessing  bool            `json:"enable_quality_processing"`
	DetectLanguage           bool            `json:"detect_language"`
	OCR                      *OcrConfig      `json:"ocr,omitempty"`
	Chunking                 *ChunkingConfig `json:"chunking,omitempty"`
	Pages                    *PageConfig     `json:"pages,omitempty"`
	Images                   *ImageConfig    `json:"images,omitempty"`
	PDFOptions               *PDFOptions     `json:"pdf_options,omitempty"`

	// Extra preserves fields unknown to this version of the schema so a
	// round-trip through JSON never silently drops caller data.
	Extra map[string]json.RawMessage `json:"-"`
}

// Default returns the zero-value-safe default configuration: plain text
// output, unified result shape, caching on, no OCR/chunking/pages/images.
func Default() *ExtractionConfig {
	return &ExtractionConfig{
		OutputFormat: OutputPlain,
		ResultFormat: ResultUnified,
		UseCache:     true,
	}
}

// MarshalJSON flattens Extra fields alongside the named ones so unknown
// caller fields survive a config round-trip.
func (c ExtractionConfig) MarshalJSON() ([]byte, error) {
	type alias ExtractionConfig
	base, err := json.Marshal(alias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return base, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, known := m[k]; !known {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON captures fields not present on the struct into Extra.
func (c *ExtractionConfig) UnmarshalJSON(data []byte) error {
	type alias ExtractionConfig
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ExtractionConfig(a)

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	known := map[string]bool{
		"output_format": true, "result_format": true, "force_ocr": true,
		"use_cache": true, "enable_quality_processing": true, "detect_language": true,
		"ocr": true, "chunking": true, "pages": true, "images": true, "pdf_options": true,
	}
	for k, v := range m {
		if !known[k] {
			if c.Extra == nil {
				c.Extra = map[string]json.RawMessage{}
			}
			c.Extra[k] = v
		}
	}
	return nil
}

type invalidConfigError string

func (e invalidConfigError) Error() string { return string(e) }

func errInvalid(msg string) error { return invalidConfigError(msg) }

// validateLanguageTags checks every "+"-joined Tesseract language code in a
// Language field. The wildcard ("all"/"*", resolved later against the
// installed tessdata directory) is always accepted. Each other segment is
// validated with golang.org/x/text/language where possible; Tesseract's own
// ISO 639-2/B codes (e.g. "chi_sim") aren't all valid BCP-47 subtags, so a
// parse failure only rejects the segment if it also fails a basic shape
// check (2 to 16 ASCII letters, digits, underscores or hyphens).
func validateLanguageTags(raw string) error {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "all" || trimmed == "*" {
		return nil
	}
	for _, seg := range strings.Split(raw, "+") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return errInvalid("language segments must not be empty")
		}
		if _, err := language.Parse(seg); err == nil {
			continue
		}
		if !isShapeValidLanguageCode(seg) {
			return errInvalid("invalid language code: " + seg)
		}
	}
	return nil
}

func isShapeValidLanguageCode(seg string) bool {
	if len(seg) < 2 || len(seg) > 16 {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
