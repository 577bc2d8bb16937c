package markup

import (
	"context"
	"regexp"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// DjotExtractor is a hand-written block/inline scanner. No library in this
// module's dependency pack implements djot, so this is a deliberate
// from-scratch reader rather than a gap: it covers headings, paragraphs,
// and pipe tables. Inline markup (djot's `_emphasis_` and `*strong*`) is
// not parsed; paragraph lines are copied into the content unchanged, so
// the output keeps djot's own markers.
type DjotExtractor struct {
	extract.Stateless
}

func NewDjot() *DjotExtractor { return &DjotExtractor{} }

func (e *DjotExtractor) Name() string { return "djot" }

func (e *DjotExtractor) SupportedMIMETypes() []string {
	return []string{"text/x-djot"}
}

var djotHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
var djotTableRowRe = regexp.MustCompile(`^\s*\|.*\|\s*$`)

func (e *DjotExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	fm := parseFrontmatter(string(content))

	lines := strings.Split(fm.body, "\n")
	var firstHeading string
	var tables []kdoc.Table
	var body strings.Builder

	i := 0
	for i < len(lines) {
		line := lines[i]
		if m := djotHeadingRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[2])
			if firstHeading == "" {
				firstHeading = text
			}
			body.WriteString(m[1] + " " + text + "\n\n")
			i++
			continue
		}
		if djotTableRowRe.MatchString(line) {
			start := i
			for i < len(lines) && djotTableRowRe.MatchString(lines[i]) {
				i++
			}
			rows := parsePipeTable(lines[start:i])
			md := renderPipeTableMarkdown(rows)
			body.WriteString(md + "\n\n")
			tables = append(tables, kdoc.Table{Cells: rows, Markdown: md})
			continue
		}
		if strings.TrimSpace(line) != "" {
			body.WriteString(line + "\n")
		} else {
			body.WriteString("\n")
		}
		i++
	}

	meta := fm.meta
	if meta.Title == "" && firstHeading != "" {
		meta.Title = firstHeading
	}

	return &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: "text/x-djot",
		Metadata: meta,
		Tables:   tables,
	}, nil
}

func parsePipeTable(lines []string) [][]string {
	var rows [][]string
	for idx, line := range lines {
		trimmed := strings.Trim(strings.TrimSpace(line), "|")
		cells := strings.Split(trimmed, "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if idx == 1 && isAlignmentRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

func isAlignmentRow(cells []string) bool {
	for _, c := range cells {
		c = strings.Trim(c, ":")
		if c != "" && strings.Trim(c, "-") != "" {
			return false
		}
	}
	return true
}

func renderPipeTableMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = strings.ReplaceAll(strings.ReplaceAll(cells[i], "\\", "\\\\"), "|", "\\|")
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
