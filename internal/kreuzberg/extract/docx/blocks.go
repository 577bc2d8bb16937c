package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockListItem
	blockTable
)

type docxBlock struct {
	kind     blockKind
	text     string
	level    int
	ordered  bool
	table    [][]string
	embedIDs []string
}

type docxRun struct {
	T       string `xml:"t"`
	Drawing struct {
		Inline struct {
			Graphic struct {
				GraphicData struct {
					Pic struct {
						BlipFill struct {
							Blip struct {
								Embed string `xml:"embed,attr"`
							} `xml:"blip"`
						} `xml:"blipFill"`
					} `xml:"pic"`
				} `xml:"graphicData"`
			} `xml:"graphic"`
		} `xml:"inline"`
	} `xml:"drawing"`
}

type docxParagraph struct {
	PPr struct {
		PStyle struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
		NumPr *struct {
			Ilvl struct {
				Val string `xml:"val,attr"`
			} `xml:"ilvl"`
			NumID struct {
				Val string `xml:"val,attr"`
			} `xml:"numId"`
		} `xml:"numPr"`
	} `xml:"pPr"`
	Runs []docxRun `xml:"r"`
}

type docxTable struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []docxParagraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

// walkBody streams word/document.xml's <w:body> children in document order,
// dispatching paragraphs and tables as they're encountered so interleaving
// (a list followed by a table followed by more prose) is preserved without
// needing the positional top/left sort the slide-based PPTX extractor uses.
func walkBody(data []byte, numFmts map[string]string) ([]docxBlock, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var blocks []docxBlock
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == "body" {
			inBody = true
			continue
		}
		if !inBody {
			continue
		}
		switch se.Name.Local {
		case "p":
			var p docxParagraph
			if err := dec.DecodeElement(&p, &se); err != nil {
				continue
			}
			blocks = append(blocks, paragraphToBlock(p, numFmts))
		case "tbl":
			var t docxTable
			if err := dec.DecodeElement(&t, &se); err != nil {
				continue
			}
			blocks = append(blocks, tableToBlock(t, numFmts))
		default:
			if err := dec.Skip(); err != nil {
				return blocks, nil
			}
		}
	}
	return blocks, nil
}

func paragraphToBlock(p docxParagraph, numFmts map[string]string) docxBlock {
	blk := docxBlock{text: paragraphRunText(p.Runs)}
	switch {
	case headingStyleRe.MatchString(p.PPr.PStyle.Val):
		blk.kind = blockHeading
		lvl, _ := strconv.Atoi(headingStyleRe.FindStringSubmatch(p.PPr.PStyle.Val)[1])
		blk.level = lvl
	case p.PPr.NumPr != nil:
		blk.kind = blockListItem
		blk.level, _ = strconv.Atoi(p.PPr.NumPr.Ilvl.Val)
		blk.ordered = isOrderedFormat(numFmts[p.PPr.NumPr.NumID.Val])
	default:
		blk.kind = blockParagraph
	}
	for _, r := range p.Runs {
		if id := r.Drawing.Inline.Graphic.GraphicData.Pic.BlipFill.Blip.Embed; id != "" {
			blk.embedIDs = append(blk.embedIDs, id)
		}
	}
	return blk
}

func tableToBlock(t docxTable, numFmts map[string]string) docxBlock {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			var cellText strings.Builder
			for _, p := range c.Paragraphs {
				cellText.WriteString(paragraphRunText(p.Runs))
			}
			row = append(row, cellText.String())
		}
		rows = append(rows, row)
	}
	return docxBlock{kind: blockTable, table: rows}
}

func paragraphRunText(runs []docxRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.T)
	}
	return strings.TrimSpace(b.String())
}

func tableToMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
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

// loadNumberingFormats reads word/numbering.xml (if present) and resolves
// each numId to the numFmt of its abstract numbering definition's first
// level, so list paragraphs can be told apart as ordered vs. bulleted.
func loadNumberingFormats(filesByName map[string]*zip.File) map[string]string {
	f, ok := filesByName["word/numbering.xml"]
	if !ok {
		return nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil
	}
	var numbering struct {
		AbstractNums []struct {
			AbstractNumID string `xml:"abstractNumId,attr"`
			Levels        []struct {
				Ilvl   string `xml:"ilvl,attr"`
				NumFmt struct {
					Val string `xml:"val,attr"`
				} `xml:"numFmt"`
			} `xml:"lvl"`
		} `xml:"abstractNum"`
		Nums []struct {
			NumID         string `xml:"numId,attr"`
			AbstractNumID struct {
				Val string `xml:"val,attr"`
			} `xml:"abstractNumId"`
		} `xml:"num"`
	}
	if err := xml.Unmarshal(data, &numbering); err != nil {
		return nil
	}

	fmtByAbstractID := make(map[string]string, len(numbering.AbstractNums))
	for _, a := range numbering.AbstractNums {
		for _, lvl := range a.Levels {
			if lvl.Ilvl == "0" {
				fmtByAbstractID[a.AbstractNumID] = lvl.NumFmt.Val
				break
			}
		}
	}

	out := make(map[string]string, len(numbering.Nums))
	for _, n := range numbering.Nums {
		out[n.NumID] = fmtByAbstractID[n.AbstractNumID.Val]
	}
	return out
}

func isOrderedFormat(numFmt string) bool {
	return numFmt != "" && numFmt != "bullet" && numFmt != "none"
}
