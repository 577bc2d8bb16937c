package spreadsheet

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// ODS is a zip archive containing content.xml in the OpenDocument
// spreadsheet schema. There is no pack library for ODS, so this is a
// minimal native reader over the table/table-row/table-cell structure
// (spec §4.5.3).
type odsTable struct {
	Name string      `xml:"name,attr"`
	Rows []odsRow    `xml:"table-row"`
}

type odsRow struct {
	Cells []odsCell `xml:"table-cell"`
}

type odsCell struct {
	RepeatRaw string   `xml:"number-columns-repeated,attr"`
	Value     string   `xml:"value,attr"`
	Ps        []odsP   `xml:"p"`
}

type odsP struct {
	Text string `xml:",chardata"`
}

type odsContent struct {
	XMLName xml.Name `xml:"document-content"`
	Body    struct {
		Spreadsheet struct {
			Tables []odsTable `xml:"table"`
		} `xml:"spreadsheet"`
	} `xml:"body"`
}

func extractODS(content []byte) (*kdoc.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, kerrors.NewParsing("spreadsheet_ods", err)
	}
	var contentXML []byte
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, kerrors.NewParsing("spreadsheet_ods", err)
			}
			contentXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, kerrors.NewParsing("spreadsheet_ods", err)
			}
			break
		}
	}
	if contentXML == nil {
		return nil, kerrors.NewParsing("spreadsheet_ods", fmt.Errorf("content.xml not found in ODS archive"))
	}

	var doc odsContent
	if err := xml.Unmarshal(contentXML, &doc); err != nil {
		return nil, kerrors.NewParsing("spreadsheet_ods", err)
	}

	var body strings.Builder
	var tables []kdoc.Table
	names := make([]string, 0, len(doc.Body.Spreadsheet.Tables))

	for _, t := range doc.Body.Spreadsheet.Tables {
		names = append(names, t.Name)
		rows := make([][]string, 0, len(t.Rows))
		for _, r := range t.Rows {
			var row []string
			for _, c := range r.Cells {
				text := cellText(c)
				row = append(row, text)
			}
			rows = append(rows, row)
		}
		md := renderMarkdownTable(t.Name, rows)
		body.WriteString(md)
		body.WriteString("\n\n")
		tables = append(tables, kdoc.Table{Cells: rows, Markdown: md})
	}

	meta := kdoc.Metadata{}
	meta.WithExcel(kdoc.ExcelMetadata{SheetCount: len(names), SheetNames: truncateNames(names)})

	return &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: "application/vnd.oasis.opendocument.spreadsheet",
		Metadata: meta,
		Tables:   tables,
	}, nil
}

func cellText(c odsCell) string {
	if len(c.Ps) > 0 {
		var parts []string
		for _, p := range c.Ps {
			parts = append(parts, p.Text)
		}
		return strings.Join(parts, " ")
	}
	return c.Value
}
