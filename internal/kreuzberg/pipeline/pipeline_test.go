package pipeline

import (
	"strings"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
)

func TestChunkContentRespectsMaxCharactersAndOverlap(t *testing.T) {
	content := strings.Repeat("abcdefghij", 5) // 50 chars
	cfg := &kconfig.ChunkingConfig{MaxCharacters: 20, Overlap: 5}
	chunks := chunkContent(content, cfg, nil)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if len(c.Content) > 20 {
			t.Errorf("chunk %d exceeds max characters: %d", i, len(c.Content))
		}
		if c.Metadata.TotalChunks != len(chunks) {
			t.Errorf("chunk %d total_chunks = %d, want %d", i, c.Metadata.TotalChunks, len(chunks))
		}
		if c.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d chunk_index = %d, want %d", i, c.Metadata.ChunkIndex, i)
		}
	}
}

func TestChunkContentEmptyReturnsNil(t *testing.T) {
	cfg := &kconfig.ChunkingConfig{MaxCharacters: 10}
	if chunks := chunkContent("", cfg, nil); chunks != nil {
		t.Errorf("expected nil chunks for empty content, got %v", chunks)
	}
}

func TestQualityScoreHigherForProseThanPunctuation(t *testing.T) {
	prose := qualityScore("This is a well formed sentence with real words.")
	noise := qualityScore("... ; : ! ? ... ; : ! ?")
	if prose <= noise {
		t.Errorf("expected prose score (%f) > noise score (%f)", prose, noise)
	}
}

func TestDetectLanguagesPicksEnglish(t *testing.T) {
	langs := detectLanguages("the quick brown fox jumps over the lazy dog and the cat", 3)
	if len(langs) == 0 || langs[0] != "en" {
		t.Errorf("expected en as the top language, got %v", langs)
	}
}
