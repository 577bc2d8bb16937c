package docx

import "testing"

func TestParagraphRunTextJoinsRuns(t *testing.T) {
	runs := []docxRun{{T: "Hello "}, {T: "world"}}
	if got := paragraphRunText(runs); got != "Hello world" {
		t.Errorf("paragraphRunText = %q, want %q", got, "Hello world")
	}
}

func TestParagraphToBlockDetectsHeading(t *testing.T) {
	var p docxParagraph
	p.PPr.PStyle.Val = "Heading2"
	p.Runs = []docxRun{{T: "Section title"}}

	blk := paragraphToBlock(p, nil)
	if blk.kind != blockHeading {
		t.Fatalf("expected blockHeading, got %v", blk.kind)
	}
	if blk.level != 2 {
		t.Errorf("expected level 2, got %d", blk.level)
	}
}

func TestParagraphToBlockDetectsOrderedListItem(t *testing.T) {
	var p docxParagraph
	p.PPr.NumPr = &struct {
		Ilvl struct {
			Val string `xml:"val,attr"`
		} `xml:"ilvl"`
		NumID struct {
			Val string `xml:"val,attr"`
		} `xml:"numId"`
	}{}
	p.PPr.NumPr.Ilvl.Val = "0"
	p.PPr.NumPr.NumID.Val = "1"
	p.Runs = []docxRun{{T: "first item"}}

	numFmts := map[string]string{"1": "decimal"}
	blk := paragraphToBlock(p, numFmts)
	if blk.kind != blockListItem {
		t.Fatalf("expected blockListItem, got %v", blk.kind)
	}
	if !blk.ordered {
		t.Error("expected ordered list item for decimal numFmt")
	}
}

func TestParagraphToBlockDetectsBulletListItem(t *testing.T) {
	var p docxParagraph
	p.PPr.NumPr = &struct {
		Ilvl struct {
			Val string `xml:"val,attr"`
		} `xml:"ilvl"`
		NumID struct {
			Val string `xml:"val,attr"`
		} `xml:"numId"`
	}{}
	p.PPr.NumPr.NumID.Val = "2"
	p.Runs = []docxRun{{T: "bullet item"}}

	numFmts := map[string]string{"2": "bullet"}
	blk := paragraphToBlock(p, numFmts)
	if blk.ordered {
		t.Error("expected unordered list item for bullet numFmt")
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

func TestIsOrderedFormat(t *testing.T) {
	cases := map[string]bool{
		"decimal":    true,
		"lowerRoman": true,
		"bullet":     false,
		"none":       false,
		"":           false,
	}
	for fmt, want := range cases {
		if got := isOrderedFormat(fmt); got != want {
			t.Errorf("isOrderedFormat(%q) = %v, want %v", fmt, got, want)
		}
	}
}

func TestWalkBodyPreservesDocumentOrder(t *testing.T) {
	xml := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Title</w:t></w:r></w:p>
    <w:p><w:r><w:t>Intro paragraph.</w:t></w:r></w:p>
    <w:tbl>
      <w:tr><w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc></w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Trailing paragraph.</w:t></w:r></w:p>
    <w:sectPr/>
  </w:body>
</w:document>`

	blocks, err := walkBody([]byte(xml), nil)
	if err != nil {
		t.Fatalf("walkBody: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].kind != blockHeading || blocks[0].text != "Title" {
		t.Errorf("block 0 = %+v, want heading %q", blocks[0], "Title")
	}
	if blocks[1].kind != blockParagraph || blocks[1].text != "Intro paragraph." {
		t.Errorf("block 1 = %+v", blocks[1])
	}
	if blocks[2].kind != blockTable || len(blocks[2].table) != 1 || blocks[2].table[0][1] != "B" {
		t.Errorf("block 2 = %+v", blocks[2])
	}
	if blocks[3].kind != blockParagraph || blocks[3].text != "Trailing paragraph." {
		t.Errorf("block 3 = %+v", blocks[3])
	}
}
