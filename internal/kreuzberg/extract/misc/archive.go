package misc

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// ArchiveExtractor lists archive contents and sizes; no recursive
// extraction is performed, per spec §4.5.6. 7z has no pure-Go reader in
// this module's dependency pack, so it reports UnsupportedFormat instead
// of silently producing an empty listing.
type ArchiveExtractor struct {
	extract.Stateless
}

func NewArchive() *ArchiveExtractor { return &ArchiveExtractor{} }

func (e *ArchiveExtractor) Name() string { return "archive" }

func (e *ArchiveExtractor) SupportedMIMETypes() []string {
	return []string{"application/zip", "application/x-tar", "application/gzip", "application/x-7z-compressed"}
}

func (e *ArchiveExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	switch mimeHint {
	case "application/zip":
		return listZip(content)
	case "application/x-tar":
		return listTar(bytes.NewReader(content))
	case "application/gzip":
		gz, err := gzip.NewReader(bytes.NewReader(content))
		if err != nil {
			return nil, kerrors.NewParsing("archive_gzip", err)
		}
		defer gz.Close()
		return listTar(gz)
	case "application/x-7z-compressed":
		return nil, kerrors.NewUnsupportedFormat(mimeHint)
	default:
		return nil, kerrors.NewUnsupportedFormat(mimeHint)
	}
}

func listZip(content []byte) (*kdoc.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, kerrors.NewParsing("archive_zip", err)
	}
	var lines []string
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
		lines = append(lines, fmt.Sprintf("%s\t%d", f.Name, f.UncompressedSize64))
	}
	meta := kdoc.Metadata{}
	meta.WithArchive(kdoc.ArchiveMetadata{EntryCount: len(names), EntryNames: names})
	return &kdoc.ExtractionResult{
		Content:  strings.Join(lines, "\n"),
		MimeType: "application/zip",
		Metadata: meta,
	}, nil
}

func listTar(r io.Reader) (*kdoc.ExtractionResult, error) {
	tr := tar.NewReader(r)
	var lines []string
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, kerrors.NewParsing("archive_tar", err)
		}
		names = append(names, hdr.Name)
		lines = append(lines, fmt.Sprintf("%s\t%d", hdr.Name, hdr.Size))
	}
	meta := kdoc.Metadata{}
	meta.WithArchive(kdoc.ArchiveMetadata{EntryCount: len(names), EntryNames: names})
	return &kdoc.ExtractionResult{
		Content:  strings.Join(lines, "\n"),
		MimeType: "application/x-tar",
		Metadata: meta,
	}, nil
}
