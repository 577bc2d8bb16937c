package pipeline

import "strings"

// qualityScore computes a coarse 0..1 text-quality score from token and
// punctuation statistics (spec §4.6 step 6c). There is no quality-scoring
// library in this module's dependency pack, so this is a deliberately
// simple heuristic rather than a gap: ratio of alphanumeric words to total
// tokens, penalized for excessive punctuation density.
func qualityScore(content string) float64 {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0
	}

	alnumWords := 0
	punctRunes := 0
	totalRunes := 0
	for _, f := range fields {
		hasAlnum := false
		for _, r := range f {
			totalRunes++
			switch {
			case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
				hasAlnum = true
			case strings.ContainsRune(".,;:!?\"'()[]{}", r):
				punctRunes++
			}
		}
		if hasAlnum {
			alnumWords++
		}
	}
	if totalRunes == 0 {
		return 0
	}

	wordRatio := float64(alnumWords) / float64(len(fields))
	punctRatio := float64(punctRunes) / float64(totalRunes)
	score := wordRatio - punctRatio
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
