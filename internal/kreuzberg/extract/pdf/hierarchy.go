package pdf

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// hierarchyForPage merges character-level text runs into blocks by font
// size, clusters the distinct sizes via k-means (k clamped to the number of
// distinct blocks), and assigns heading levels: the cluster with the
// largest centroid becomes h1, the next h2, and so on, with the smallest
// cluster treated as body text (spec §4.5.1 step 3).
func hierarchyForPage(page pdf.Page, kClusters int) ([]kdoc.PageHierarchyBlock, error) {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil, nil
	}

	type run struct {
		text string
		size float64
	}
	var runs []run
	var cur run
	for _, t := range content.Text {
		if cur.text != "" && floatsClose(t.FontSize, cur.size) {
			cur.text += t.S
			continue
		}
		if cur.text != "" {
			runs = append(runs, cur)
		}
		cur = run{text: t.S, size: t.FontSize}
	}
	if cur.text != "" {
		runs = append(runs, cur)
	}
	if len(runs) == 0 {
		return nil, nil
	}

	k := kClusters
	if k <= 0 {
		k = 5
	}
	if k > len(runs) {
		k = len(runs)
	}

	sizes := make([]float64, len(runs))
	for i, r := range runs {
		sizes[i] = r.size
	}
	centroids := kmeans1D(sizes, k)

	// Sort centroid indices by value descending: largest -> h1.
	order := make([]int, len(centroids))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return centroids[order[i]] > centroids[order[j]] })
	levelForCentroid := make(map[int]string, len(centroids))
	for rank, ci := range order {
		if rank == len(order)-1 {
			levelForCentroid[ci] = "body"
			continue
		}
		levelForCentroid[ci] = "h" + strconv.Itoa(rank+1)
	}

	blocks := make([]kdoc.PageHierarchyBlock, 0, len(runs))
	for _, r := range runs {
		text := strings.TrimSpace(r.text)
		if text == "" {
			continue
		}
		ci := nearestCentroid(r.size, centroids)
		blocks = append(blocks, kdoc.PageHierarchyBlock{Text: text, Level: levelForCentroid[ci]})
	}
	return blocks, nil
}

func floatsClose(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.5
}

// kmeans1D runs a small, fixed-iteration 1-D k-means over vals, returning k
// centroids. Deterministic seeding: initial centroids are evenly spaced
// order statistics of the sorted input, so the same input always produces
// the same clustering.
func kmeans1D(vals []float64, k int) []float64 {
	if k <= 1 {
		return []float64{mean(vals)}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	centroids := make([]float64, k)
	for i := 0; i < k; i++ {
		idx := i * (len(sorted) - 1) / max(1, k-1)
		centroids[i] = sorted[idx]
	}

	for iter := 0; iter < 10; iter++ {
		sums := make([]float64, k)
		counts := make([]int, k)
		for _, v := range vals {
			ci := nearestCentroid(v, centroids)
			sums[ci] += v
			counts[ci]++
		}
		changed := false
		for i := range centroids {
			if counts[i] == 0 {
				continue
			}
			newCentroid := sums[i] / float64(counts[i])
			if !floatsClose(newCentroid, centroids[i]) {
				changed = true
			}
			centroids[i] = newCentroid
		}
		if !changed {
			break
		}
	}
	return centroids
}

func nearestCentroid(v float64, centroids []float64) int {
	best, bestDist := 0, -1.0
	for i, c := range centroids {
		d := v - c
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

