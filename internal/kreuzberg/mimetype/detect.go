// Package mimetype implements MIME classification by path suffix and
// content sniffing (C1).
package mimetype

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

var suffixTable = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".markdown": "text/markdown",
	".djot": "text/x-djot",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "application/xml",
	".jats": "application/jats+xml",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	".xlsb": "application/vnd.ms-excel.sheet.binary.macroEnabled.12",
	".xls":  "application/vnd.ms-excel",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".pptm": "application/vnd.ms-powerpoint.presentation.macroEnabled.12",
	".ppsx": "application/vnd.openxmlformats-officedocument.presentationml.slideshow",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".eml":  "message/rfc822",
	".msg":  "application/vnd.ms-outlook",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".7z":   "application/x-7z-compressed",
}

// Detect classifies content by path suffix first; a recognized suffix wins
// (a ".zip" is still narrowed by its entry names). When no suffix matches,
// magic-byte content sniffing runs only if allowSniff is true or no path
// was given: a path with an unrecognized suffix and allowSniff false fails
// with UnsupportedFormat without looking at the bytes.
func Detect(pathHint string, data []byte, allowSniff bool) (string, error) {
	if pathHint != "" {
		ext := strings.ToLower(filepath.Ext(pathHint))
		if mt, ok := suffixTable[ext]; ok {
			if mt == "application/zip" {
				if sniffed, ok := sniffZIP(data); ok {
					return sniffed, nil
				}
			}
			return mt, nil
		}
	}
	if allowSniff || pathHint == "" {
		if mt, ok := sniff(data); ok {
			return mt, nil
		}
	}
	return "", kerrors.NewUnsupportedFormat(pathHint)
}

func sniff(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return "application/pdf", true
	case bytes.HasPrefix(data, []byte("PK\x03\x04")) || bytes.HasPrefix(data, []byte("PK\x05\x06")):
		return sniffZIP(data)
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg", true
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png", true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif", true
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return "image/tiff", true
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp", true
	case bytes.Contains(lower(firstN(data, 512)), []byte("<svg")):
		return "image/svg+xml", true
	case looksLikeHTML(data):
		return "text/html", true
	}
	return "", false
}

func looksLikeHTML(data []byte) bool {
	head := lower(firstN(data, 512))
	return bytes.Contains(head, []byte("<!doctype html")) ||
		bytes.Contains(head, []byte("<html"))
}

func firstN(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

func lower(b []byte) []byte {
	return bytes.ToLower(b)
}

// sniffZIP disambiguates OOXML/ODF packages by inspecting central-directory
// entry names, per spec §4.1.
func sniffZIP(data []byte) (string, bool) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "application/zip", true
	}
	names := make(map[string]bool, len(r.File))
	for _, f := range r.File {
		names[f.Name] = true
	}
	switch {
	case names["word/document.xml"]:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", true
	case names["xl/workbook.xml"]:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
	case names["ppt/presentation.xml"]:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation", true
	case names["mimetype"]:
		return "application/vnd.oasis.opendocument.spreadsheet", true
	default:
		return "application/zip", true
	}
}
