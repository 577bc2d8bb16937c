package pdf

import (
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
)

func TestPassesQualityGate(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"rich text", "This page has plenty of meaningful searchable text content for extraction.", true},
		{"sparse punctuation", " . ; ", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := passesQualityGate(tc.text); got != tc.want {
				t.Errorf("passesQualityGate(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestKmeans1DSeparatesTwoClusters(t *testing.T) {
	vals := []float64{24, 24, 24, 10, 10, 10, 10}
	centroids := kmeans1D(vals, 2)
	if len(centroids) != 2 {
		t.Fatalf("expected 2 centroids, got %d", len(centroids))
	}
	// One centroid should be near 24, the other near 10.
	foundLarge, foundSmall := false, false
	for _, c := range centroids {
		if c > 20 {
			foundLarge = true
		}
		if c < 15 {
			foundSmall = true
		}
	}
	if !foundLarge || !foundSmall {
		t.Errorf("centroids = %v, want one near 24 and one near 10", centroids)
	}
}

func TestRebuildBodyFromTextsInsertsPageMarkersAndBoundaries(t *testing.T) {
	cfg := &kconfig.ExtractionConfig{
		Pages: &kconfig.PageConfig{
			ExtractPages:      true,
			InsertPageMarkers: true,
			MarkerFormat:      "--- page {page_num} ---\n",
		},
	}
	content, boundaries, pages := rebuildBodyFromTexts([]string{"first page ocr text", "second page ocr text"}, cfg)

	if len(boundaries) != 2 || len(pages) != 2 {
		t.Fatalf("expected 2 boundaries/pages, got %d/%d", len(boundaries), len(pages))
	}
	if boundaries[0].PageNumber != 1 || boundaries[1].PageNumber != 2 {
		t.Errorf("unexpected page numbers: %+v", boundaries)
	}
	if content[boundaries[0].ByteStart:boundaries[0].ByteEnd] != "first page ocr text" {
		t.Errorf("boundary 0 does not bound its page text: %q", content[boundaries[0].ByteStart:boundaries[0].ByteEnd])
	}
	if content[boundaries[1].ByteStart:boundaries[1].ByteEnd] != "second page ocr text" {
		t.Errorf("boundary 1 does not bound its page text: %q", content[boundaries[1].ByteStart:boundaries[1].ByteEnd])
	}
	if pages[0].Content != "first page ocr text" || pages[1].Content != "second page ocr text" {
		t.Errorf("unexpected page contents: %+v", pages)
	}
}

func TestRebuildBodyFromTextsWithoutPageTracking(t *testing.T) {
	cfg := &kconfig.ExtractionConfig{}
	content, boundaries, pages := rebuildBodyFromTexts([]string{"a", "b"}, cfg)
	if content != "a\n\nb" {
		t.Errorf("content = %q, want %q", content, "a\n\nb")
	}
	if boundaries != nil || pages != nil {
		t.Errorf("expected no boundaries/pages when page tracking is off, got %v / %v", boundaries, pages)
	}
}
