// Package spreadsheet implements the spreadsheet extractor (C5.3): excelize
// for XLSX/XLSM/XLSB, a native zip+xml reader for ODS, rendering each sheet
// as a markdown table per spec §4.5.3.
package spreadsheet

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

type Extractor struct {
	extract.Stateless
}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Name() string { return "spreadsheet" }

func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel.sheet.macroEnabled.12",
		"application/vnd.ms-excel.sheet.binary.macroEnabled.12",
		"application/vnd.oasis.opendocument.spreadsheet",
		"application/vnd.ms-excel",
	}
}

func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	if mimeHint == "application/vnd.oasis.opendocument.spreadsheet" {
		return extractODS(content)
	}
	if mimeHint == "application/vnd.ms-excel" {
		return extractXLS(content)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, kerrors.NewParsing("spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var body strings.Builder
	var tables []kdoc.Table

	for _, name := range sheets {
		select {
		case <-ctx.Done():
			return nil, kerrors.NewOther("spreadsheet_extract", "cancelled", ctx.Err())
		default:
		}

		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for r := range rows {
			for c := range rows[r] {
				rows[r][c] = formatCell(rows[r][c])
			}
		}
		md := renderMarkdownTable(name, rows)
		body.WriteString(md)
		body.WriteString("\n\n")
		tables = append(tables, kdoc.Table{Cells: rows, Markdown: md})
	}

	meta := kdoc.Metadata{}
	meta.WithExcel(kdoc.ExcelMetadata{
		SheetCount: len(sheets),
		SheetNames: truncateNames(sheets),
	})

	return &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: mimeHint,
		Metadata: meta,
		Tables:   tables,
	}, nil
}

// renderMarkdownTable builds "## <sheet name>\n\n" followed by a header row,
// an alignment row of dashes, and data rows, per spec §4.5.3.
func renderMarkdownTable(sheetName string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("## " + sheetName + "\n\n")
	if len(rows) == 0 {
		return b.String()
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = escapeMarkdownCell(cells[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}
	writeRow(rows[0])
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return b.String()
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}

// formatCell applies the cell-formatting rules of spec §4.5.3. excelize
// already returns formatted strings for numeric/date cells, so this mainly
// normalizes empty cells and passes through everything else as-is. A raw
// value that contains a "." and parses as a float with a zero fractional
// part is rendered with exactly one decimal ("3.00" -> "3.0"); a value
// without a "." (e.g. "3") is returned unchanged, with no ".0" appended.
func formatCell(raw string) string {
	if raw == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if f == float64(int64(f)) && !strings.Contains(raw, ".") {
			return raw
		}
		if f == float64(int64(f)) {
			return fmt.Sprintf("%.1f", f)
		}
	}
	return raw
}

func truncateNames(names []string) []string {
	if len(names) <= 5 {
		return names
	}
	out := append([]string(nil), names[:5]...)
	out = append(out, fmt.Sprintf("... (%d total)", len(names)))
	return out
}
