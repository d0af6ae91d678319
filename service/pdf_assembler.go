package service

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// AssemblePDF composes captured page PNGs, keyed by page number, into a
// single A4 PDF in page order.
func AssemblePDF(pages map[int][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to assemble")
	}

	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	readers := make([]io.Reader, 0, len(nums))
	for _, n := range nums {
		readers = append(readers, bytes.NewReader(pages[n]))
	}

	imp, err := api.Import("form:A4, pos:full", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse import config: %w", err)
	}

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, readers, imp, nil); err != nil {
		return nil, fmt.Errorf("failed to assemble PDF: %w", err)
	}
	return buf.Bytes(), nil
}
