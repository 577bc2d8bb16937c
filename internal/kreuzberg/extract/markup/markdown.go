package markup

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

type MarkdownExtractor struct {
	extract.Stateless
}

func NewMarkdown() *MarkdownExtractor { return &MarkdownExtractor{} }

func (e *MarkdownExtractor) Name() string { return "markdown" }

func (e *MarkdownExtractor) SupportedMIMETypes() []string {
	return []string{"text/markdown"}
}

func (e *MarkdownExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	fm := parseFrontmatter(string(content))
	source := []byte(fm.body)

	doc := markdownParser.Parser().Parse(text.NewReader(source))

	var firstHeading string
	var tables []kdoc.Table
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Heading:
			if firstHeading == "" {
				firstHeading = string(headingText(t, source))
			}
		case *east.Table:
			tables = append(tables, kdoc.Table{
				Cells:    tableCells(t, source),
				Markdown: renderTableMarkdown(t, source),
			})
		}
		return ast.WalkContinue, nil
	})

	meta := fm.meta
	if meta.Title == "" && firstHeading != "" {
		meta.Title = firstHeading
	}

	return &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(fm.body),
		MimeType: "text/markdown",
		Metadata: meta,
		Tables:   tables,
	}, nil
}

func headingText(h *ast.Heading, source []byte) []byte {
	var b strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return []byte(b.String())
}

func tableCells(tbl *east.Table, source []byte) [][]string {
	var rows [][]string
	for n := tbl.FirstChild(); n != nil; n = n.NextSibling() {
		switch row := n.(type) {
		case *east.TableHeader:
			rows = append(rows, rowCells(row, source))
		case *east.TableRow:
			rows = append(rows, rowCells(row, source))
		}
	}
	return rows
}

func rowCells(row ast.Node, source []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*east.TableCell)
		if !ok {
			continue
		}
		var b strings.Builder
		for inline := cell.FirstChild(); inline != nil; inline = inline.NextSibling() {
			if t, ok := inline.(*ast.Text); ok {
				b.Write(t.Segment.Value(source))
			}
		}
		cells = append(cells, b.String())
	}
	return cells
}

func renderTableMarkdown(tbl *east.Table, source []byte) string {
	rows := tableCells(tbl, source)
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
