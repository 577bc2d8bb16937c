// Package kdoc defines the extraction result data model shared by every
// extractor, the pipeline, and the cache.
package kdoc

// ExtractionResult is the value produced by every extractor and returned by
// the pipeline.
type ExtractionResult struct {
	Content            string       `json:"content"`
	MimeType           string       `json:"mime_type"`
	Metadata           Metadata     `json:"metadata"`
	Tables             []Table      `json:"tables"`
	DetectedLanguages  []string     `json:"detected_languages,omitempty"`
	Chunks             []Chunk      `json:"chunks,omitempty"`
	Images             []ExtractedImage `json:"images,omitempty"`
	Pages              []PageContent    `json:"pages,omitempty"`
	Elements           []Element        `json:"elements,omitempty"`
	OcrElements        []OcrElement     `json:"ocr_elements,omitempty"`
}

// Table is an extracted tabular region.
type Table struct {
	Cells      [][]string `json:"cells"`
	Markdown   string     `json:"markdown"`
	PageNumber int        `json:"page_number"`
}

type ChunkMetadata struct {
	ByteStart    int  `json:"byte_start"`
	ByteEnd      int  `json:"byte_end"`
	TokenCount   int  `json:"token_count"`
	ChunkIndex   int  `json:"chunk_index"`
	TotalChunks  int  `json:"total_chunks"`
	FirstPage    *int `json:"first_page,omitempty"`
	LastPage     *int `json:"last_page,omitempty"`
}

type Chunk struct {
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ExtractedImage carries raw image bytes. OCRResult is a pointer, not an
// embedded value, so the cyclic (image -> OCR result -> image) shape is an
// owned tree with no back-edges, per the design note on cyclic structures.
type ExtractedImage struct {
	Data             []byte            `json:"data"`
	Format           string            `json:"format"`
	ImageIndex       int               `json:"image_index"`
	PageNumber       *int              `json:"page_number,omitempty"`
	Width            *int              `json:"width,omitempty"`
	Height           *int              `json:"height,omitempty"`
	Colorspace       *string           `json:"colorspace,omitempty"`
	BitsPerComponent *int              `json:"bits_per_component,omitempty"`
	IsMask           bool              `json:"is_mask"`
	Description      *string           `json:"description,omitempty"`
	OCRResult        *ExtractionResult `json:"ocr_result,omitempty"`
}

type PageHierarchyBlock struct {
	Text  string `json:"text"`
	Level string `json:"level"` // h1, h2, ..., body
}

type PageContent struct {
	PageNumber int                  `json:"page_number"`
	Content    string               `json:"content"`
	Tables     []Table              `json:"tables,omitempty"`
	Images     []ExtractedImage     `json:"images,omitempty"`
	Hierarchy  []PageHierarchyBlock `json:"hierarchy,omitempty"`
}

type ElementType string

const (
	ElementTitle     ElementType = "title"
	ElementHeader    ElementType = "header"
	ElementParagraph ElementType = "paragraph"
	ElementListItem  ElementType = "list_item"
	ElementTable     ElementType = "table"
	ElementImage     ElementType = "image"
)

type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type ElementMetadata struct {
	PageNumber   *int                   `json:"page_number,omitempty"`
	Filename     *string                `json:"filename,omitempty"`
	Coordinates  *Coordinates           `json:"coordinates,omitempty"`
	ElementIndex *int                   `json:"element_index,omitempty"`
	Additional   map[string]interface{} `json:"additional,omitempty"`
}

type Element struct {
	ElementID   string          `json:"element_id"`
	ElementType ElementType     `json:"element_type"`
	Text        string          `json:"text"`
	Metadata    ElementMetadata `json:"metadata"`
}

// Quad is a quadrilateral geometry for rotated OCR word/line boxes; when Rect
// axis-aligned geometry is sufficient, all four points form a rectangle.
type Quad struct {
	X1, Y1, X2, Y2, X3, Y3, X4, Y4 float64
}

type OcrElement struct {
	Text             string   `json:"text"`
	Geometry         Quad     `json:"geometry"`
	RecognitionConf  float64  `json:"recognition_confidence"`
	DetectionConf    *float64 `json:"detection_confidence,omitempty"`
	RotationDegrees  *float64 `json:"rotation_degrees,omitempty"`
	PageNumber       int      `json:"page_number"`
}

// PageUnitType distinguishes the logical unit counted in PageStructure.
type PageUnitType string

const (
	UnitPage  PageUnitType = "page"
	UnitSlide PageUnitType = "slide"
	UnitSheet PageUnitType = "sheet"
)

type PageBoundary struct {
	ByteStart  int `json:"byte_start"`
	ByteEnd    int `json:"byte_end"`
	PageNumber int `json:"page_number"`
}

type PageInfo struct {
	Number     int     `json:"number"`
	Title      *string `json:"title,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	ImageCount *int    `json:"image_count,omitempty"`
	TableCount *int    `json:"table_count,omitempty"`
	Hidden     bool    `json:"hidden,omitempty"`
	IsBlank    bool    `json:"is_blank,omitempty"`
}

type PageStructure struct {
	TotalCount int            `json:"total_count"`
	UnitType   PageUnitType   `json:"unit_type"`
	Boundaries []PageBoundary `json:"boundaries"`
	Pages      []PageInfo     `json:"pages,omitempty"`
}
