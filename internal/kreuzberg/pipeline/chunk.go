package pipeline

import (
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// chunkContent segments content into chunks of at most MaxCharacters with
// at most Overlap overlap between adjacent chunks (spec §4.6 step 6d).
// Page boundaries, when known, are used to annotate each chunk with the
// first and last page it spans.
func chunkContent(content string, cfg *kconfig.ChunkingConfig, boundaries []kdoc.PageBoundary) []kdoc.Chunk {
	if cfg.MaxCharacters <= 0 || len(content) == 0 {
		return nil
	}
	overlap := cfg.Overlap
	if overlap < 0 || overlap >= cfg.MaxCharacters {
		overlap = 0
	}

	var spans []struct{ start, end int }
	start := 0
	for start < len(content) {
		end := start + cfg.MaxCharacters
		if end > len(content) {
			end = len(content)
		}
		spans = append(spans, struct{ start, end int }{start, end})
		if end == len(content) {
			break
		}
		start = end - overlap
		if start <= spans[len(spans)-1].start {
			start = end
		}
	}

	chunks := make([]kdoc.Chunk, 0, len(spans))
	for i, s := range spans {
		firstPage, lastPage := pagesForSpan(s.start, s.end, boundaries)
		chunks = append(chunks, kdoc.Chunk{
			Content: content[s.start:s.end],
			Metadata: kdoc.ChunkMetadata{
				ByteStart:   s.start,
				ByteEnd:     s.end,
				ChunkIndex:  i,
				TotalChunks: len(spans),
				FirstPage:   firstPage,
				LastPage:    lastPage,
			},
		})
	}
	return chunks
}

func pagesForSpan(start, end int, boundaries []kdoc.PageBoundary) (*int, *int) {
	if len(boundaries) == 0 {
		return nil, nil
	}
	var first, last *int
	for _, b := range boundaries {
		if b.ByteEnd <= start || b.ByteStart >= end {
			continue
		}
		p := b.PageNumber
		if first == nil {
			first = &p
		}
		last = &p
	}
	return first, last
}
