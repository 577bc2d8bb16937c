package misc

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

var errNoRootElement = errors.New("no root element found")

// XMLExtractor handles generic XML (anything not claimed by a more
// specific extractor like JATS): it reports the root element and renders
// the document's text content.
type XMLExtractor struct {
	extract.Stateless
}

func NewXML() *XMLExtractor { return &XMLExtractor{} }

func (e *XMLExtractor) Name() string { return "xml" }

func (e *XMLExtractor) SupportedMIMETypes() []string {
	return []string{"application/xml", "text/xml"}
}

func (e *XMLExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var root string
	var text []byte

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root == "" {
				root = t.Name.Local
			}
		case xml.CharData:
			text = append(text, t...)
		}
	}
	if root == "" {
		return nil, kerrors.NewParsing("xml", errNoRootElement)
	}

	meta := kdoc.Metadata{}
	meta.WithXML(kdoc.XMLMetadata{RootElement: root})

	return &kdoc.ExtractionResult{
		Content:  string(text),
		MimeType: mimeHint,
		Metadata: meta,
	}, nil
}
