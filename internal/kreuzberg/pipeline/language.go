package pipeline

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// stopwords is a tiny per-language closed set used for a coarse language-ID
// heuristic. No language-identification library exists in this module's
// dependency pack, so this trades accuracy for zero new dependencies;
// swapping in a dedicated detector later only touches this file.
var stopwords = map[string]map[string]bool{
	"en": setOf("the", "and", "of", "to", "in", "is", "that", "for", "on", "with"),
	"es": setOf("el", "la", "de", "y", "en", "que", "los", "las", "un", "una"),
	"fr": setOf("le", "la", "de", "et", "les", "des", "un", "une", "est", "que"),
	"de": setOf("der", "die", "das", "und", "ist", "ein", "eine", "mit", "zu", "den"),
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// detectLanguages returns up to topK language codes ordered by stopword
// match count, descending.
func detectLanguages(content string, topK int) []string {
	words := strings.Fields(strings.ToLower(content))
	if len(words) == 0 {
		return nil
	}

	type score struct {
		lang  string
		count int
	}
	scores := make([]score, 0, len(stopwords))
	for lang, set := range stopwords {
		count := 0
		for _, w := range words {
			if set[w] {
				count++
			}
		}
		if count > 0 {
			scores = append(scores, score{lang, count})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count > scores[j].count
		}
		return scores[i].lang < scores[j].lang
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]string, 0, topK)
	for i := 0; i < topK; i++ {
		out = append(out, canonicalLanguageTag(scores[i].lang))
	}
	return out
}

// canonicalLanguageTag normalizes a short language code to its canonical
// BCP-47 form (e.g. stable casing) so detected_languages entries compare
// consistently regardless of the stopword-set key casing. Falls back to the
// raw code if it doesn't parse as a language tag.
func canonicalLanguageTag(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}
