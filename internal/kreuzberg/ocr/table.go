package ocr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// reconstructTable implements spec §4.3 step 9: cluster surviving word boxes
// into columns by X-gap and rows by Y-gap scaled by the median character
// height, then emit a single reconstructed table.
func reconstructTable(boxes []gosseract.BoundingBox, cfg *kconfig.OcrConfig) *kdoc.Table {
	type word struct {
		text       string
		left, top  int
		width, height int
	}

	var words []word
	for _, b := range boxes {
		if b.Confidence < cfg.TableMinConfidence {
			continue
		}
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		words = append(words, word{
			text:   text,
			left:   b.Box.Min.X,
			top:    b.Box.Min.Y,
			width:  b.Box.Dx(),
			height: b.Box.Dy(),
		})
	}
	if len(words) == 0 {
		return nil
	}

	medianHeight := medianInt(func() []int {
		hs := make([]int, len(words))
		for i, w := range words {
			hs[i] = w.height
		}
		return hs
	}())
	rowThreshold := float64(medianHeight) * cfg.TableRowThresholdRatio
	if rowThreshold <= 0 {
		rowThreshold = 1
	}

	sort.Slice(words, func(i, j int) bool { return words[i].top < words[j].top })

	var rows [][]word
	for _, w := range words {
		placed := false
		for i := range rows {
			if len(rows[i]) > 0 && absInt(w.top-rows[i][0].top) <= int(rowThreshold) {
				rows[i] = append(rows[i], w)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []word{w})
		}
	}

	// Cluster columns globally by X position across all rows, using the
	// configured column gap threshold (in pixels).
	var allLefts []int
	for _, w := range words {
		allLefts = append(allLefts, w.left)
	}
	sort.Ints(allLefts)
	var colBoundaries []int
	for i, l := range allLefts {
		if i == 0 || l-allLefts[i-1] > int(cfg.TableColumnThreshold) {
			colBoundaries = append(colBoundaries, l)
		}
	}

	colIndexFor := func(left int) int {
		idx := 0
		for i, b := range colBoundaries {
			if left >= b {
				idx = i
			}
		}
		return idx
	}

	numCols := len(colBoundaries)
	if numCols == 0 {
		numCols = 1
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].left < row[j].left })
		rowCells := make([]string, numCols)
		for _, w := range row {
			ci := colIndexFor(w.left)
			if rowCells[ci] == "" {
				rowCells[ci] = w.text
			} else {
				rowCells[ci] = rowCells[ci] + " " + w.text
			}
		}
		cells = append(cells, rowCells)
	}

	return &kdoc.Table{
		Cells:    cells,
		Markdown: cellsToMarkdown(cells),
	}
}

func cellsToMarkdown(cells [][]string) string {
	if len(cells) == 0 {
		return ""
	}
	var b strings.Builder
	header := cells[0]
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range cells[1:] {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

func medianInt(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// boxesToTSV renders word boxes in the same field order Tesseract's own TSV
// output uses, so downstream table reconstruction can treat either source
// uniformly: level, page, block, par, line, word, left, top, width, height,
// conf, text.
func boxesToTSV(boxes []gosseract.BoundingBox) string {
	var b strings.Builder
	b.WriteString("level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n")
	for i, box := range boxes {
		fmt.Fprintf(&b, "5\t1\t1\t1\t1\t%d\t%d\t%d\t%d\t%d\t%.1f\t%s\n",
			i+1, box.Box.Min.X, box.Box.Min.Y, box.Box.Dx(), box.Box.Dy(), box.Confidence, box.Word)
	}
	return b.String()
}
