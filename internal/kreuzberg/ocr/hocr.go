package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// HOCRToMarkup walks an hOCR document tree (ocr_page -> ocr_carea -> ocr_par
// -> ocr_line -> ocrx_word) and emits paragraphs separated by blank lines,
// collapsing internal whitespace, per spec §4.3.1. No inline emphasis is
// emitted, so the djot flag does not change the output: it is plain text
// per paragraph either way.
func HOCRToMarkup(hocr string, djot bool) string {
	doc, err := html.Parse(strings.NewReader(hocr))
	if err != nil {
		return collapseWhitespace(hocr)
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_par") {
			text := collectText(n)
			text = collapseWhitespace(text)
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
			return // don't descend further into a paragraph we already flattened
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(paragraphs) == 0 {
		// No ocr_par blocks found (e.g. a minimal hOCR fixture); fall back
		// to whole-document text so output is never silently empty.
		return collapseWhitespace(collectText(doc))
	}
	return strings.Join(paragraphs, "\n\n")
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func collectText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(collectText(c))
		if c.Type == html.ElementNode && hasClass(c, "ocrx_word") {
			b.WriteString(" ")
		}
	}
	return b.String()
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
