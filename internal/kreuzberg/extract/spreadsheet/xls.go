package spreadsheet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

const (
	biffBOF        = 0x0809
	biffBoundSheet = 0x0085
	biffSST        = 0x00FC
	biffContinue   = 0x003C
	biffLabelSST   = 0x00FD
	biffLabel      = 0x0204
	biffNumber     = 0x0203
	biffRK         = 0x027E
	biffMulRK      = 0x00BD

	biffSubstreamGlobals   = 0x0005
	biffSubstreamWorksheet = 0x0010
)

// extractXLS reads a legacy (BIFF8/OLE2) .xls workbook: the Compound File
// Binary container via mscfb, then a minimal walk of the Workbook stream's
// BIFF8 records covering the cell types that carry visible values
// (LABELSST, LABEL, NUMBER, RK, MULRK) and the shared string table. This is
// explicitly best-effort: formulas are not evaluated, rich-text runs are
// discarded, and a shared string whose character array is itself split
// across a CONTINUE record boundary is not reassembled — legacy XLS has no
// reader in this module's dependency pack, and a complete BIFF8
// implementation (formula evaluation, cross-CONTINUE string splicing,
// formatting) is out of scope for a minimum-matrix extractor.
func extractXLS(content []byte) (*kdoc.ExtractionResult, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return nil, kerrors.NewParsing("xls", err)
	}

	var workbook []byte
	for entry, entryErr := doc.Next(); entryErr == nil; entry, entryErr = doc.Next() {
		name := strings.ToLower(entry.Name)
		if name == "workbook" || name == "book" {
			data, readErr := io.ReadAll(entry)
			if readErr != nil {
				return nil, kerrors.NewParsing("xls", readErr)
			}
			workbook = data
			break
		}
	}
	if workbook == nil {
		return nil, kerrors.NewParsing("xls", fmt.Errorf("no Workbook/Book stream found in OLE2 container"))
	}

	sheets := parseBIFFWorkbook(workbook)

	var body strings.Builder
	var tables []kdoc.Table
	names := make([]string, 0, len(sheets))
	for _, sh := range sheets {
		names = append(names, sh.name)
		rows := sh.grid()
		for r := range rows {
			for c := range rows[r] {
				rows[r][c] = formatCell(rows[r][c])
			}
		}
		md := renderMarkdownTable(sh.name, rows)
		body.WriteString(md)
		body.WriteString("\n\n")
		tables = append(tables, kdoc.Table{Cells: rows, Markdown: md})
	}

	meta := kdoc.Metadata{}
	meta.WithExcel(kdoc.ExcelMetadata{SheetCount: len(sheets), SheetNames: truncateNames(names)})

	return &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: "application/vnd.ms-excel",
		Metadata: meta,
		Tables:   tables,
	}, nil
}

type xlsSheet struct {
	name           string
	cells          map[[2]int]string
	maxRow, maxCol int
}

func (s *xlsSheet) set(row, col int, val string) {
	if val == "" {
		return
	}
	if s.cells == nil {
		s.cells = map[[2]int]string{}
	}
	s.cells[[2]int{row, col}] = val
	if row > s.maxRow {
		s.maxRow = row
	}
	if col > s.maxCol {
		s.maxCol = col
	}
}

func (s *xlsSheet) grid() [][]string {
	if len(s.cells) == 0 {
		return nil
	}
	rows := make([][]string, s.maxRow+1)
	for r := range rows {
		rows[r] = make([]string, s.maxCol+1)
	}
	for pos, v := range s.cells {
		rows[pos[0]][pos[1]] = v
	}
	return rows
}

type biffRecord struct {
	typ  uint16
	data []byte
}

func splitBIFFRecords(stream []byte) []biffRecord {
	var records []biffRecord
	pos := 0
	for pos+4 <= len(stream) {
		typ := binary.LittleEndian.Uint16(stream[pos:])
		length := int(binary.LittleEndian.Uint16(stream[pos+2:]))
		pos += 4
		if pos+length > len(stream) {
			length = len(stream) - pos
		}
		records = append(records, biffRecord{typ: typ, data: stream[pos : pos+length]})
		pos += length
	}
	return records
}

// parseBIFFWorkbook walks the Workbook stream's substream layout: a Globals
// substream (carrying BOUNDSHEET records that name each sheet), followed by
// one substream per worksheet, each delimited by its own BOF record.
func parseBIFFWorkbook(stream []byte) []*xlsSheet {
	records := splitBIFFRecords(stream)

	var sharedStrings []string
	var sheetNames []string
	var sheets []*xlsSheet
	var current *xlsSheet
	sheetIdx := -1

	for i := 0; i < len(records); i++ {
		rec := records[i]
		switch rec.typ {
		case biffBOF:
			if len(rec.data) < 4 {
				continue
			}
			switch binary.LittleEndian.Uint16(rec.data[2:4]) {
			case biffSubstreamWorksheet:
				sheetIdx++
				name := fmt.Sprintf("Sheet%d", sheetIdx+1)
				if sheetIdx < len(sheetNames) && sheetNames[sheetIdx] != "" {
					name = sheetNames[sheetIdx]
				}
				current = &xlsSheet{name: name}
				sheets = append(sheets, current)
			}

		case biffBoundSheet:
			if name, ok := decodeBoundSheetName(rec.data); ok {
				sheetNames = append(sheetNames, name)
			}

		case biffSST:
			data := rec.data
			for i+1 < len(records) && records[i+1].typ == biffContinue {
				i++
				data = append(data, records[i].data...)
			}
			sharedStrings = decodeSST(data)

		case biffLabelSST:
			if current == nil || len(rec.data) < 10 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.data[0:2]))
			col := int(binary.LittleEndian.Uint16(rec.data[2:4]))
			idx := int(binary.LittleEndian.Uint32(rec.data[6:10]))
			if idx >= 0 && idx < len(sharedStrings) {
				current.set(row, col, sharedStrings[idx])
			}

		case biffLabel:
			if current == nil || len(rec.data) < 7 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.data[0:2]))
			col := int(binary.LittleEndian.Uint16(rec.data[2:4]))
			s, _ := decodeUnicodeString(rec.data[6:])
			current.set(row, col, s)

		case biffNumber:
			if current == nil || len(rec.data) < 14 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.data[0:2]))
			col := int(binary.LittleEndian.Uint16(rec.data[2:4]))
			bits := binary.LittleEndian.Uint64(rec.data[6:14])
			current.set(row, col, formatXLSFloat(math.Float64frombits(bits)))

		case biffRK:
			if current == nil || len(rec.data) < 10 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.data[0:2]))
			col := int(binary.LittleEndian.Uint16(rec.data[2:4]))
			val := decodeRK(binary.LittleEndian.Uint32(rec.data[6:10]))
			current.set(row, col, formatXLSFloat(val))

		case biffMulRK:
			if current == nil || len(rec.data) < 6 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.data[0:2]))
			colFirst := int(binary.LittleEndian.Uint16(rec.data[2:4]))
			body := rec.data[4 : len(rec.data)-2]
			for n := 0; n+6 <= len(body); n += 6 {
				rk := binary.LittleEndian.Uint32(body[n+2 : n+6])
				current.set(row, colFirst+n/6, formatXLSFloat(decodeRK(rk)))
			}
		}
	}
	return sheets
}

// decodeBoundSheetName reads BOUNDSHEET's trailing ShortXLUnicodeString
// (no rich-text/extended-string fields).
func decodeBoundSheetName(data []byte) (string, bool) {
	if len(data) < 8 {
		return "", false
	}
	cch := int(data[6])
	grbit := data[7]
	rest := data[8:]
	if grbit&0x1 != 0 {
		if len(rest) < cch*2 {
			return "", false
		}
		units := make([]uint16, cch)
		for i := 0; i < cch; i++ {
			units[i] = binary.LittleEndian.Uint16(rest[i*2:])
		}
		return string(utf16.Decode(units)), true
	}
	if len(rest) < cch {
		return "", false
	}
	return string(rest[:cch]), true
}

// decodeSST parses the shared string table's packed XLUnicodeRichExtendedString
// entries, assuming (best-effort) that no individual string's character
// array is itself split by a CONTINUE boundary.
func decodeSST(data []byte) []string {
	if len(data) < 8 {
		return nil
	}
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	pos := 8
	out := make([]string, 0, count)
	for len(out) < count && pos < len(data) {
		s, n := decodeUnicodeString(data[pos:])
		if n <= 0 {
			break
		}
		out = append(out, s)
		pos += n
	}
	return out
}

// decodeUnicodeString reads one XLUnicodeRichExtendedString (cch, grbit,
// optional rich-text run count, optional extended-string size, then the
// character array) and returns the decoded text plus the number of bytes
// consumed.
func decodeUnicodeString(data []byte) (string, int) {
	if len(data) < 3 {
		return "", 0
	}
	cch := int(binary.LittleEndian.Uint16(data[0:2]))
	grbit := data[2]
	pos := 3
	var richRuns int
	if grbit&0x08 != 0 { // fRichSt: a run count precedes the character data
		if len(data) < pos+2 {
			return "", 0
		}
		richRuns = int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
	}
	var extSize int
	if grbit&0x04 != 0 {
		if len(data) < pos+4 {
			return "", 0
		}
		extSize = int(binary.LittleEndian.Uint32(data[pos:]))
		pos += 4
	}

	var text string
	if grbit&0x01 != 0 {
		if len(data) < pos+cch*2 {
			return "", 0
		}
		units := make([]uint16, cch)
		for i := 0; i < cch; i++ {
			units[i] = binary.LittleEndian.Uint16(data[pos+i*2:])
		}
		text = string(utf16.Decode(units))
		pos += cch * 2
	} else {
		if len(data) < pos+cch {
			return "", 0
		}
		text = string(data[pos : pos+cch])
		pos += cch
	}

	pos += richRuns * 4
	pos += extSize
	return text, pos
}

// decodeRK expands a packed RK (4-byte approximate number) value per the
// BIFF8 RK encoding: bit0 selects /100 scaling, bit1 selects an integer
// payload instead of a truncated IEEE-754 double.
func decodeRK(rk uint32) float64 {
	isInt := rk&0x2 != 0
	isDiv100 := rk&0x1 != 0
	var val float64
	if isInt {
		val = float64(int32(rk) >> 2)
	} else {
		bits := uint64(rk&0xFFFFFFFC) << 32
		val = math.Float64frombits(bits)
	}
	if isDiv100 {
		val /= 100
	}
	return val
}

func formatXLSFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}
