package presentation

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestParagraphTextJoinsRuns(t *testing.T) {
	p := ooxmlParagraph{}
	p.Runs = []struct {
		T string `xml:"t"`
	}{{T: "Hello "}, {T: "world"}}
	if got := paragraphText(p); got != "Hello world" {
		t.Errorf("paragraphText = %q, want %q", got, "Hello world")
	}
}

func TestOrderedShapeBlocksSortsTopThenLeft(t *testing.T) {
	slide := &ooxmlSlide{}
	mkShape := func(text string, x, y int) ooxmlShape {
		var sp ooxmlShape
		sp.SpPr.Xfrm.Off.X = x
		sp.SpPr.Xfrm.Off.Y = y
		sp.TxBody.Paragraphs = []ooxmlParagraph{{Runs: []struct {
			T string `xml:"t"`
		}{{T: text}}}}
		return sp
	}
	slide.Shapes = []ooxmlShape{
		mkShape("second", 10, 100),
		mkShape("first", 0, 0),
	}
	blocks := orderedShapeBlocks(slide)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].text != "first" {
		t.Errorf("expected first block to be %q, got %q", "first", blocks[0].text)
	}
}

func TestTableToMarkdownEscapesPipes(t *testing.T) {
	rows := [][]string{{"a|b"}, {"c"}}
	md := tableToMarkdown(rows)
	want := "| a\\|b |\n| --- |\n| c |\n"
	if md != want {
		t.Errorf("tableToMarkdown = %q, want %q", md, want)
	}
}

func TestClassifyImageFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, "png"},
		{"gif", []byte("GIF89a"), "gif"},
		{"bmp", []byte("BM...."), "bmp"},
		{"tiff-le", []byte("II*\x00abc"), "tiff"},
		{"tiff-be", []byte("MM\x00*abc"), "tiff"},
		{"svg", []byte("<?xml version=\"1.0\"?><svg xmlns=\"x\"/>"), "svg"},
		{"unknown", []byte("not an image"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyImageFormat(tc.data); got != tc.want {
				t.Errorf("classifyImageFormat(%s) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestLoadSlideRelationshipsResolvesRelativeTargets(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	relsXML := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2" Type="image" Target="../media/image1.png"/>
</Relationships>`
	w, _ := zw.Create("ppt/slides/_rels/slide1.xml.rels")
	w.Write([]byte(relsXML))
	zw.Close()

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	filesByName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		filesByName[f.Name] = f
	}

	rels := loadSlideRelationships(filesByName, "ppt/slides/slide1.xml")
	if rels["rId2"] != "ppt/media/image1.png" {
		t.Errorf("rels[rId2] = %q, want %q", rels["rId2"], "ppt/media/image1.png")
	}
}

func TestLoadSlideRelationshipsMissingRelsReturnsNil(t *testing.T) {
	rels := loadSlideRelationships(map[string]*zip.File{}, "ppt/slides/slide1.xml")
	if rels != nil {
		t.Errorf("expected nil for missing rels part, got %v", rels)
	}
}
