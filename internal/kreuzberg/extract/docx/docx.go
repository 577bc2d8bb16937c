// Package docx implements the DOCX extractor (C5): an archive/zip +
// encoding/xml walk of the OOXML package's word/document.xml, emitting
// paragraphs, headings, lists and tables in document order, mirroring the
// package-reading shape used by the presentation and spreadsheet (ODS)
// extractors.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

type Extractor struct {
	extract.Stateless
}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Name() string { return "docx" }

func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*([1-9])$`)

func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, kerrors.NewParsing("docx", err)
	}

	filesByName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		filesByName[f.Name] = f
	}

	docFile, ok := filesByName["word/document.xml"]
	if !ok {
		return nil, kerrors.NewParsing("docx", errNoDocumentXML)
	}
	data, err := readZipFile(docFile)
	if err != nil {
		return nil, kerrors.NewParsing("docx", err)
	}

	select {
	case <-ctx.Done():
		return nil, kerrors.NewOther("docx_extract", "cancelled", ctx.Err())
	default:
	}

	numFmts := loadNumberingFormats(filesByName)
	blocks, err := walkBody(data, numFmts)
	if err != nil {
		return nil, kerrors.NewParsing("docx", err)
	}

	rels := loadRelationships(filesByName, "word/document.xml")
	extractImages := cfg.Images != nil && cfg.Images.ExtractImages

	var body strings.Builder
	var tables []kdoc.Table
	var images []kdoc.ExtractedImage
	imageCount := 0

	for _, blk := range blocks {
		switch blk.kind {
		case blockHeading:
			body.WriteString(strings.Repeat("#", blk.level) + " " + blk.text + "\n\n")
		case blockListItem:
			marker := "- "
			if blk.ordered {
				marker = "1. "
			}
			body.WriteString(strings.Repeat("  ", blk.level) + marker + blk.text + "\n")
		case blockParagraph:
			if blk.text != "" {
				body.WriteString(blk.text + "\n\n")
			}
		case blockTable:
			md := tableToMarkdown(blk.table)
			body.WriteString(md + "\n\n")
			tables = append(tables, kdoc.Table{Cells: blk.table, Markdown: md})
		}

		if extractImages {
			for _, embedID := range blk.embedIDs {
				target, ok := rels[embedID]
				if !ok {
					continue
				}
				f, ok := filesByName[target]
				if !ok {
					continue
				}
				imgData, err := readZipFile(f)
				if err != nil || len(imgData) == 0 {
					continue
				}
				images = append(images, kdoc.ExtractedImage{
					Data:       imgData,
					Format:     classifyImageFormat(imgData),
					ImageIndex: imageCount,
				})
				imageCount++
			}
		}
	}

	result := &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: mimeHint,
		Metadata: kdoc.Metadata{},
		Tables:   tables,
	}
	if extractImages {
		result.Images = images
	}
	return result, nil
}

var errNoDocumentXML = &missingPartError{"word/document.xml"}

type missingPartError struct{ part string }

func (e *missingPartError) Error() string { return "docx: missing package part " + e.part }

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// loadRelationships reads the .rels part for a given package part (e.g.
// "word/document.xml") and resolves each relationship Target to a full
// package path, so drawing blips (r:embed) can be traced to media files.
func loadRelationships(filesByName map[string]*zip.File, partPath string) map[string]string {
	relsPath := path.Join(path.Dir(partPath), "_rels", path.Base(partPath)+".rels")
	f, ok := filesByName[relsPath]
	if !ok {
		return nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil
	}
	var rels docxRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	out := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		out[r.ID] = path.Clean(path.Join(path.Dir(partPath), r.Target))
	}
	return out
}

type docxRelationships struct {
	Relationships []docxRelationship `xml:"Relationship"`
}

type docxRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

func classifyImageFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	default:
		return "unknown"
	}
}
