package pdf

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfcpumodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPageImages adapts pdfcpu's per-page image extraction to a slice of
// readers, one per embedded image on the page.
func extractPageImages(ctx *pdfcpumodel.Context, pageNr int) ([]io.Reader, error) {
	imgs, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
	if err != nil {
		return nil, err
	}
	readers := make([]io.Reader, 0, len(imgs))
	for _, img := range imgs {
		if img.Reader != nil {
			readers = append(readers, img.Reader)
		}
	}
	return readers, nil
}
