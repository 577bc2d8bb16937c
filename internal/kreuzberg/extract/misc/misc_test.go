package misc

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
)

func TestTextExtractorCountsLinesAndWords(t *testing.T) {
	e := NewText()
	result, err := e.ExtractBytes(context.Background(), []byte("hello world\nsecond line\n"), "text/plain", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Text == nil {
		t.Fatal("expected text metadata")
	}
	if result.Metadata.Text.WordCount != 4 {
		t.Errorf("expected 4 words, got %d", result.Metadata.Text.WordCount)
	}
}

func TestEmailExtractorParsesHeadersAndBody(t *testing.T) {
	raw := "From: alice@example.com\r\nTo: bob@example.com\r\nSubject: Hi there\r\n\r\nBody text.\r\n"
	e := NewEmail()
	result, err := e.ExtractBytes(context.Background(), []byte(raw), "message/rfc822", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Subject != "Hi there" {
		t.Errorf("expected subject %q, got %q", "Hi there", result.Metadata.Subject)
	}
	if result.Metadata.Email == nil || len(result.Metadata.Email.To) != 1 || result.Metadata.Email.To[0] != "bob@example.com" {
		t.Errorf("expected one To address, got %+v", result.Metadata.Email)
	}
}

func TestArchiveExtractorListsZipEntries(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("a.txt")
	w.Write([]byte("hello"))
	zw.Close()

	e := NewArchive()
	result, err := e.ExtractBytes(context.Background(), buf.Bytes(), "application/zip", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Archive == nil || result.Metadata.Archive.EntryCount != 1 {
		t.Errorf("expected 1 entry, got %+v", result.Metadata.Archive)
	}
}

func TestArchiveExtractorRejects7z(t *testing.T) {
	e := NewArchive()
	_, err := e.ExtractBytes(context.Background(), []byte{}, "application/x-7z-compressed", kconfig.Default())
	if err == nil {
		t.Fatal("expected an error for 7z input")
	}
}

func TestXMLExtractorFindsRootElement(t *testing.T) {
	e := NewXML()
	result, err := e.ExtractBytes(context.Background(), []byte("<root><child>text</child></root>"), "application/xml", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.XML == nil || result.Metadata.XML.RootElement != "root" {
		t.Errorf("expected root element %q, got %+v", "root", result.Metadata.XML)
	}
}
