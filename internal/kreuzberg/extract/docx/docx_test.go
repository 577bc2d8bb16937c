package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
)

func TestSupportedMIMETypes(t *testing.T) {
	types := New().SupportedMIMETypes()
	if len(types) != 1 || types[0] != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Errorf("SupportedMIMETypes = %v", types)
	}
}

func TestClassifyImageFormat(t *testing.T) {
	cases := map[string]string{
		"jpeg":    "jpeg",
		"png":     "png",
		"gif":     "gif",
		"bmp":     "bmp",
		"unknown": "unknown",
	}
	data := map[string][]byte{
		"jpeg":    {0xFF, 0xD8, 0xFF},
		"png":     {0x89, 'P', 'N', 'G'},
		"gif":     []byte("GIF89a"),
		"bmp":     []byte("BM...."),
		"unknown": []byte("plain text"),
	}
	for name, want := range cases {
		if got := classifyImageFormat(data[name]); got != want {
			t.Errorf("classifyImageFormat(%s) = %q, want %q", name, got, want)
		}
	}
}

func TestLoadRelationshipsResolvesRelativeTargets(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	relsXML := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId5" Type="image" Target="media/image1.png"/>
</Relationships>`
	w, _ := zw.Create("word/_rels/document.xml.rels")
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

	rels := loadRelationships(filesByName, "word/document.xml")
	if rels["rId5"] != "word/media/image1.png" {
		t.Errorf("rels[rId5] = %q, want %q", rels["rId5"], "word/media/image1.png")
	}
}

func TestExtractBytesMissingDocumentXMLErrors(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/other.xml")
	w.Write([]byte("<x/>"))
	zw.Close()

	e := New()
	_, err := e.ExtractBytes(context.Background(), buf.Bytes(), "application/vnd.openxmlformats-officedocument.wordprocessingml.document", &kconfig.ExtractionConfig{})
	if err == nil {
		t.Fatal("expected error for missing word/document.xml")
	}
}
