package ocr

import (
	"strings"
	"testing"
)

func TestHOCRToMarkupJoinsParagraphsWithBlankLine(t *testing.T) {
	hocr := `<html><body>
		<div class="ocr_page">
			<p class="ocr_par"><span class="ocrx_word">Hello</span><span class="ocrx_word">world</span></p>
			<p class="ocr_par"><span class="ocrx_word">Second</span><span class="ocrx_word">paragraph</span></p>
		</div>
	</body></html>`

	got := HOCRToMarkup(hocr, false)
	want := "Hello world\n\nSecond paragraph"
	if strings.TrimSpace(got) != want {
		t.Errorf("HOCRToMarkup() = %q, want %q", got, want)
	}
}

func TestStripControlChars(t *testing.T) {
	in := "hello\x00world\ttab\nnewline\x1f"
	got := stripControlChars(in)
	want := "helloworld\ttab\nnewline"
	if got != want {
		t.Errorf("stripControlChars() = %q, want %q", got, want)
	}
}
