package kdoc

import (
	"encoding/json"
	"fmt"
)

// FormatType discriminates the one format-specific metadata variant carried
// by a Metadata value.
type FormatType string

const (
	FormatPDF     FormatType = "pdf"
	FormatExcel   FormatType = "excel"
	FormatEmail   FormatType = "email"
	FormatPPTX    FormatType = "pptx"
	FormatArchive FormatType = "archive"
	FormatImage   FormatType = "image"
	FormatXML     FormatType = "xml"
	FormatText    FormatType = "text"
	FormatHTML    FormatType = "html"
	FormatOCR     FormatType = "ocr"
)

type PDFMetadata struct {
	PageCount int  `json:"page_count"`
	Encrypted bool `json:"encrypted"`
	PDFVersion string `json:"pdf_version,omitempty"`
}

type ExcelMetadata struct {
	SheetCount int      `json:"sheet_count"`
	SheetNames []string `json:"sheet_names"`
}

type EmailMetadata struct {
	From        string   `json:"from,omitempty"`
	To          []string `json:"to,omitempty"`
	CC          []string `json:"cc,omitempty"`
	BCC         []string `json:"bcc,omitempty"`
	MessageID   string   `json:"message_id,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type PPTXMetadata struct {
	SlideCount int `json:"slide_count"`
}

type ArchiveMetadata struct {
	EntryCount int      `json:"entry_count"`
	EntryNames []string `json:"entry_names"`
}

type ImageMetadata struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Colorspace string `json:"colorspace,omitempty"`
}

type XMLMetadata struct {
	RootElement string `json:"root_element,omitempty"`
}

type TextMetadata struct {
	LineCount  int      `json:"line_count"`
	WordCount  int      `json:"word_count"`
	CharCount  int      `json:"char_count"`
	Headers    []string `json:"headers,omitempty"`
	Links      []string `json:"links,omitempty"`
	CodeBlocks int      `json:"code_blocks,omitempty"`
}

type OpenGraph struct {
	Title       string `json:"title,omitempty"`
	Type        string `json:"type,omitempty"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

type TwitterCard struct {
	Card        string `json:"card,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type HTMLHeader struct {
	Level int    `json:"level"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
}

type HTMLLink struct {
	Href     string `json:"href"`
	Text     string `json:"text,omitempty"`
	Scheme   string `json:"scheme,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Internal bool   `json:"internal"`
}

type HTMLImage struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type HTMLMetadata struct {
	OpenGraph       *OpenGraph             `json:"open_graph,omitempty"`
	TwitterCard     *TwitterCard           `json:"twitter_card,omitempty"`
	Headers         []HTMLHeader           `json:"headers,omitempty"`
	Links           []HTMLLink             `json:"links,omitempty"`
	Images          []HTMLImage            `json:"images,omitempty"`
	StructuredData  []map[string]interface{} `json:"structured_data,omitempty"`
}

type OCRMetadata struct {
	Language     string `json:"language"`
	PSM          int    `json:"psm"`
	OutputFormat string `json:"output_format"`
	TableCount   int    `json:"table_count"`
}

// Metadata carries the common top-level fields plus at most one populated
// format-specific variant, selected by FormatType. Only one of the Xxx
// pointer fields below is ever non-nil; the constructor helpers
// (WithPDF, WithExcel, ...) enforce this instead of relying on callers to
// zero out the others by hand.
type Metadata struct {
	Title      string   `json:"title,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Language   string   `json:"language,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	ModifiedAt string   `json:"modified_at,omitempty"`
	CreatedBy  string   `json:"created_by,omitempty"`
	ModifiedBy string   `json:"modified_by,omitempty"`
	Pages      PageStructure `json:"pages"`

	FormatType FormatType `json:"format_type,omitempty"`
	PDF        *PDFMetadata     `json:"-"`
	Excel      *ExcelMetadata   `json:"-"`
	Email      *EmailMetadata   `json:"-"`
	PPTX       *PPTXMetadata    `json:"-"`
	Archive    *ArchiveMetadata `json:"-"`
	Image      *ImageMetadata   `json:"-"`
	XML        *XMLMetadata     `json:"-"`
	Text       *TextMetadata    `json:"-"`
	HTML       *HTMLMetadata    `json:"-"`
	OCR        *OCRMetadata     `json:"-"`

	// Additional is free-form enrichment. Postprocessors may only write
	// here, never to the format-specific variant or the common fields.
	Additional map[string]interface{} `json:"additional,omitempty"`
}

func (m *Metadata) clearFormat() {
	m.PDF, m.Excel, m.Email, m.PPTX, m.Archive = nil, nil, nil, nil, nil
	m.Image, m.XML, m.Text, m.HTML, m.OCR = nil, nil, nil, nil, nil
}

func (m *Metadata) WithPDF(v PDFMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatPDF; m.PDF = &v; return m }
func (m *Metadata) WithExcel(v ExcelMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatExcel; m.Excel = &v; return m }
func (m *Metadata) WithEmail(v EmailMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatEmail; m.Email = &v; return m }
func (m *Metadata) WithPPTX(v PPTXMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatPPTX; m.PPTX = &v; return m }
func (m *Metadata) WithArchive(v ArchiveMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatArchive; m.Archive = &v; return m }
func (m *Metadata) WithImage(v ImageMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatImage; m.Image = &v; return m }
func (m *Metadata) WithXML(v XMLMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatXML; m.XML = &v; return m }
func (m *Metadata) WithText(v TextMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatText; m.Text = &v; return m }
func (m *Metadata) WithHTML(v HTMLMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatHTML; m.HTML = &v; return m }
func (m *Metadata) WithOCR(v OCRMetadata) *Metadata { m.clearFormat(); m.FormatType = FormatOCR; m.OCR = &v; return m }

// metadataWire is the on-the-wire shape: common fields, format_type
// discriminator naming the variant, that variant's payload under the fixed
// "format" key, and
// Additional flattened at the metadata root (per spec §6).
type metadataWire struct {
	Title      string        `json:"title,omitempty"`
	Subject    string        `json:"subject,omitempty"`
	Authors    []string      `json:"authors,omitempty"`
	Keywords   []string      `json:"keywords,omitempty"`
	Language   string        `json:"language,omitempty"`
	CreatedAt  string        `json:"created_at,omitempty"`
	ModifiedAt string        `json:"modified_at,omitempty"`
	CreatedBy  string        `json:"created_by,omitempty"`
	ModifiedBy string        `json:"modified_by,omitempty"`
	Pages      PageStructure `json:"pages"`
	FormatType FormatType    `json:"format_type,omitempty"`
	Format     json.RawMessage `json:"format,omitempty"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	w := metadataWire{
		Title: m.Title, Subject: m.Subject, Authors: m.Authors, Keywords: m.Keywords,
		Language: m.Language, CreatedAt: m.CreatedAt, ModifiedAt: m.ModifiedAt,
		CreatedBy: m.CreatedBy, ModifiedBy: m.ModifiedBy, Pages: m.Pages,
		FormatType: m.FormatType,
	}
	var payload interface{}
	switch m.FormatType {
	case FormatPDF:
		payload = m.PDF
	case FormatExcel:
		payload = m.Excel
	case FormatEmail:
		payload = m.Email
	case FormatPPTX:
		payload = m.PPTX
	case FormatArchive:
		payload = m.Archive
	case FormatImage:
		payload = m.Image
	case FormatXML:
		payload = m.XML
	case FormatText:
		payload = m.Text
	case FormatHTML:
		payload = m.HTML
	case FormatOCR:
		payload = m.OCR
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		w.Format = raw
	}

	base, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if len(m.Additional) == 0 {
		return base, nil
	}
	var flat map[string]interface{}
	if err := json.Unmarshal(base, &flat); err != nil {
		return nil, err
	}
	for k, v := range m.Additional {
		flat[k] = v
	}
	return json.Marshal(flat)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w metadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Title, m.Subject, m.Authors, m.Keywords = w.Title, w.Subject, w.Authors, w.Keywords
	m.Language, m.CreatedAt, m.ModifiedAt = w.Language, w.CreatedAt, w.ModifiedAt
	m.CreatedBy, m.ModifiedBy, m.Pages = w.CreatedBy, w.ModifiedBy, w.Pages
	m.FormatType = w.FormatType
	m.clearFormat()

	if len(w.Format) > 0 {
		switch w.FormatType {
		case FormatPDF:
			m.PDF = &PDFMetadata{}
			if err := json.Unmarshal(w.Format, m.PDF); err != nil {
				return fmt.Errorf("metadata.format (pdf): %w", err)
			}
		case FormatExcel:
			m.Excel = &ExcelMetadata{}
			if err := json.Unmarshal(w.Format, m.Excel); err != nil {
				return err
			}
		case FormatEmail:
			m.Email = &EmailMetadata{}
			if err := json.Unmarshal(w.Format, m.Email); err != nil {
				return err
			}
		case FormatPPTX:
			m.PPTX = &PPTXMetadata{}
			if err := json.Unmarshal(w.Format, m.PPTX); err != nil {
				return err
			}
		case FormatArchive:
			m.Archive = &ArchiveMetadata{}
			if err := json.Unmarshal(w.Format, m.Archive); err != nil {
				return err
			}
		case FormatImage:
			m.Image = &ImageMetadata{}
			if err := json.Unmarshal(w.Format, m.Image); err != nil {
				return err
			}
		case FormatXML:
			m.XML = &XMLMetadata{}
			if err := json.Unmarshal(w.Format, m.XML); err != nil {
				return err
			}
		case FormatText:
			m.Text = &TextMetadata{}
			if err := json.Unmarshal(w.Format, m.Text); err != nil {
				return err
			}
		case FormatHTML:
			m.HTML = &HTMLMetadata{}
			if err := json.Unmarshal(w.Format, m.HTML); err != nil {
				return err
			}
		case FormatOCR:
			m.OCR = &OCRMetadata{}
			if err := json.Unmarshal(w.Format, m.OCR); err != nil {
				return err
			}
		}
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	known := map[string]bool{
		"title": true, "subject": true, "authors": true, "keywords": true,
		"language": true, "created_at": true, "modified_at": true, "created_by": true,
		"modified_by": true, "pages": true, "format_type": true, "format": true,
	}
	for k, v := range flat {
		if !known[k] {
			if m.Additional == nil {
				m.Additional = map[string]interface{}{}
			}
			m.Additional[k] = v
		}
	}
	return nil
}
