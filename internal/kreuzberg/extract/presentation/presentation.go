// Package presentation implements the PPTX extractor (C5.4): an
// archive/zip + encoding/xml walk of the OOXML package, ordering shapes by
// position, per spec §4.5.4.
package presentation

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
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

func (e *Extractor) Name() string { return "presentation" }

func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.presentationml.presentation"}
}

var slideFileRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, kerrors.NewParsing("presentation", err)
	}

	type slideFile struct {
		num int
		f   *zip.File
	}
	var slideFiles []slideFile
	notesByNum := map[int]*zip.File{}
	for _, f := range zr.File {
		if m := slideFileRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slideFiles = append(slideFiles, slideFile{num: n, f: f})
		}
		if strings.HasPrefix(f.Name, "ppt/notesSlides/notesSlide") {
			var n int
			fmt.Sscanf(f.Name, "ppt/notesSlides/notesSlide%d.xml", &n)
			notesByNum[n] = f
		}
	}
	sort.Slice(slideFiles, func(i, j int) bool { return slideFiles[i].num < slideFiles[j].num })

	filesByName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		filesByName[f.Name] = f
	}
	extractImages := cfg.Images != nil && cfg.Images.ExtractImages

	var body strings.Builder
	var tables []kdoc.Table
	var pages []kdoc.PageContent
	var pageInfos []kdoc.PageInfo
	var images []kdoc.ExtractedImage
	imageCount := 0

	for _, sf := range slideFiles {
		select {
		case <-ctx.Done():
			return nil, kerrors.NewOther("presentation_extract", "cancelled", ctx.Err())
		default:
		}

		rc, err := sf.f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		slide, err := parseSlideXML(data)
		if err != nil {
			continue
		}

		rels := loadSlideRelationships(filesByName, sf.f.Name)

		var slideBody strings.Builder
		hasImage := false
		blocks := orderedShapeBlocks(slide)
		for _, blk := range blocks {
			switch blk.kind {
			case blockHeading:
				slideBody.WriteString("## " + blk.text + "\n\n")
			case blockParagraph:
				slideBody.WriteString(blk.text + "\n\n")
			case blockListItem:
				marker := "- "
				if blk.ordered {
					marker = "1. "
				}
				slideBody.WriteString(strings.Repeat("  ", blk.level) + marker + blk.text + "\n")
			case blockTable:
				md := tableToMarkdown(blk.table)
				slideBody.WriteString(md + "\n\n")
				tables = append(tables, kdoc.Table{Cells: blk.table, Markdown: md})
			case blockImage:
				hasImage = true
				slideBody.WriteString(fmt.Sprintf("![image %d]\n\n", imageCount))
				if extractImages && blk.embedID != "" {
					if target, ok := rels[blk.embedID]; ok {
						if f, ok := filesByName[target]; ok {
							if imgData, err := readZipFile(f); err == nil && len(imgData) > 0 {
								slideNum := sf.num
								images = append(images, kdoc.ExtractedImage{
									Data:       imgData,
									Format:     classifyImageFormat(imgData),
									ImageIndex: imageCount,
									PageNumber: &slideNum,
								})
							}
						}
					}
				}
				imageCount++
			}
		}

		if notes, ok := notesByNum[sf.num]; ok {
			if rc, err := notes.Open(); err == nil {
				if data, err := io.ReadAll(rc); err == nil {
					if noteText := extractNotesText(data); noteText != "" {
						slideBody.WriteString("\n\n> " + noteText + "\n")
					}
				}
				rc.Close()
			}
		}

		text := strings.TrimSpace(slideBody.String())
		body.WriteString(text)
		body.WriteString("\n\n")
		pages = append(pages, kdoc.PageContent{PageNumber: sf.num, Content: text})
		pageInfos = append(pageInfos, kdoc.PageInfo{Number: sf.num, IsBlank: !hasImage && text == ""})
	}

	meta := kdoc.Metadata{Pages: kdoc.PageStructure{
		TotalCount: len(slideFiles),
		UnitType:   kdoc.UnitSlide,
		Pages:      pageInfos,
	}}
	meta.WithPPTX(kdoc.PPTXMetadata{SlideCount: len(slideFiles)})

	result := &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: mimeHint,
		Metadata: meta,
		Tables:   tables,
	}
	if cfg.Pages != nil && cfg.Pages.ExtractPages {
		result.Pages = pages
	}
	if extractImages {
		result.Images = images
	}
	return result, nil
}

// loadSlideRelationships reads the slide's .rels part (if present) and
// returns a map of relationship ID to the zip-package path it resolves to,
// so a <p:pic> blip's r:embed attribute can be traced to its media file.
func loadSlideRelationships(filesByName map[string]*zip.File, slidePath string) map[string]string {
	relsPath := path.Join(path.Dir(slidePath), "_rels", path.Base(slidePath)+".rels")
	f, ok := filesByName[relsPath]
	if !ok {
		return nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil
	}
	var rels ooxmlRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	out := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		out[r.ID] = path.Clean(path.Join(path.Dir(slidePath), r.Target))
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// classifyImageFormat sniffs the leading bytes of an embedded media part,
// mirroring mimetype.sniff's image cases (spec §4.3.3 sniffing table).
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
	case bytes.Contains(data[:min(len(data), 512)], []byte("<svg")):
		return "svg"
	default:
		return "unknown"
	}
}

type ooxmlSlide struct {
	Shapes []ooxmlShape `xml:"cSld>spTree>sp"`
	Pics   []ooxmlPic   `xml:"cSld>spTree>pic"`
	Tables []ooxmlGraphicFrame `xml:"cSld>spTree>graphicFrame"`
}

type ooxmlShape struct {
	NvSpPr struct {
		CNvPr struct {
			Name string `xml:"name,attr"`
		} `xml:"cNvPr"`
		NvPr struct {
			PH struct {
				Type string `xml:"type,attr"`
			} `xml:"ph"`
		} `xml:"nvPr"`
	} `xml:"nvSpPr"`
	SpPr struct {
		Xfrm struct {
			Off struct {
				X int `xml:"x,attr"`
				Y int `xml:"y,attr"`
			} `xml:"off"`
		} `xml:"xfrm"`
	} `xml:"spPr"`
	TxBody struct {
		Paragraphs []ooxmlParagraph `xml:"p"`
	} `xml:"txBody"`
}

type ooxmlParagraph struct {
	PPr struct {
		Lvl    int    `xml:"lvl,attr"`
		BuChar *struct{} `xml:"buChar"`
		BuAutoNum *struct{} `xml:"buAutoNum"`
	} `xml:"pPr"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

type ooxmlPic struct {
	BlipFill struct {
		Blip struct {
			Embed string `xml:"embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr struct {
		Xfrm struct {
			Off struct {
				X int `xml:"x,attr"`
				Y int `xml:"y,attr"`
			} `xml:"off"`
		} `xml:"xfrm"`
	} `xml:"spPr"`
}

// ooxmlRelationships is the .rels part accompanying a slide, mapping
// relationship IDs (referenced by r:embed) to package-relative targets.
type ooxmlRelationships struct {
	Relationships []ooxmlRelationship `xml:"Relationship"`
}

type ooxmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type ooxmlGraphicFrame struct {
	Xfrm struct {
		Off struct {
			X int `xml:"x,attr"`
			Y int `xml:"y,attr"`
		} `xml:"off"`
	} `xml:"xfrm"`
	Tbl struct {
		Rows []struct {
			Cells []struct {
				TxBody struct {
					Paragraphs []ooxmlParagraph `xml:"p"`
				} `xml:"txBody"`
			} `xml:"tc"`
		} `xml:"tr"`
	} `xml:"graphic>graphicData>tbl"`
}

func parseSlideXML(data []byte) (*ooxmlSlide, error) {
	var s ooxmlSlide
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type blockKind int

const (
	blockHeading blockKind = iota
	blockParagraph
	blockListItem
	blockTable
	blockImage
)

type shapeBlock struct {
	kind    blockKind
	text    string
	level   int
	ordered bool
	table   [][]string
	top     int
	left    int
	embedID string
}

// orderedShapeBlocks orders shapes top-then-left and classifies title
// shapes as headings, matching spec §4.5.4.
func orderedShapeBlocks(slide *ooxmlSlide) []shapeBlock {
	var blocks []shapeBlock
	for _, sp := range slide.Shapes {
		isTitle := sp.NvSpPr.NvPr.PH.Type == "title" || sp.NvSpPr.NvPr.PH.Type == "ctrTitle"
		for _, p := range sp.TxBody.Paragraphs {
			text := paragraphText(p)
			if text == "" {
				continue
			}
			blk := shapeBlock{text: text, top: sp.SpPr.Xfrm.Off.Y, left: sp.SpPr.Xfrm.Off.X}
			switch {
			case isTitle && len(text) < 100:
				blk.kind = blockHeading
			case p.PPr.BuChar != nil || p.PPr.BuAutoNum != nil:
				blk.kind = blockListItem
				blk.level = p.PPr.Lvl
				blk.ordered = p.PPr.BuAutoNum != nil
			default:
				blk.kind = blockParagraph
			}
			blocks = append(blocks, blk)
		}
	}
	for _, pic := range slide.Pics {
		blocks = append(blocks, shapeBlock{
			kind:    blockImage,
			top:     pic.SpPr.Xfrm.Off.Y,
			left:    pic.SpPr.Xfrm.Off.X,
			embedID: pic.BlipFill.Blip.Embed,
		})
	}
	for _, gf := range slide.Tables {
		var rows [][]string
		for _, r := range gf.Tbl.Rows {
			var row []string
			for _, c := range r.Cells {
				var cellText strings.Builder
				for _, p := range c.TxBody.Paragraphs {
					cellText.WriteString(paragraphText(p))
				}
				row = append(row, cellText.String())
			}
			rows = append(rows, row)
		}
		blocks = append(blocks, shapeBlock{kind: blockTable, table: rows, top: gf.Xfrm.Off.Y, left: gf.Xfrm.Off.X})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].top != blocks[j].top {
			return blocks[i].top < blocks[j].top
		}
		return blocks[i].left < blocks[j].left
	})
	return blocks
}

func paragraphText(p ooxmlParagraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
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

type notesSlide struct {
	Shapes []ooxmlShape `xml:"cSld>spTree>sp"`
}

func extractNotesText(data []byte) string {
	var n notesSlide
	if err := xml.Unmarshal(data, &n); err != nil {
		return ""
	}
	var b strings.Builder
	for _, sp := range n.Shapes {
		if sp.NvSpPr.NvPr.PH.Type != "" && sp.NvSpPr.NvPr.PH.Type != "body" {
			continue
		}
		for _, p := range sp.TxBody.Paragraphs {
			if t := paragraphText(p); t != "" {
				b.WriteString(t + " ")
			}
		}
	}
	return strings.TrimSpace(b.String())
}
