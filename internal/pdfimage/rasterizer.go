// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfimage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/docutils/internal/tool"
	"github.com/pdiddy/docutils/pkg/types"
)

// Rasterizer renders a single PDF page to a PNG file.
type Rasterizer interface {
	Name() string

	// RenderPage writes page (1-based) of pdfPath at dpi to outPath.
	RenderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error
}

// NewRasterizer wraps a detected tool in the matching Rasterizer.
func NewRasterizer(t tool.Tool) (Rasterizer, error) {
	switch types.RasterBackend(t.Name()) {
	case types.RasterPdftoppm:
		return &pdftoppm{t: t}, nil
	case types.RasterMutool:
		return &mutool{t: t}, nil
	}
	return nil, fmt.Errorf("unsupported rasterizer %q", t.Name())
}

// DetectRasterizer uses backend when set, otherwise the first rasterizer
// found on PATH (pdftoppm, then mutool).
func DetectRasterizer(backend types.RasterBackend) (Rasterizer, error) {
	candidates := tool.RasterizerBinaries
	if backend != "" {
		candidates = []string{string(backend)}
	}
	t, err := tool.Detect(candidates...)
	if err != nil {
		return nil, err
	}
	return NewRasterizer(t)
}

// pdftoppm renders with poppler. -singlefile writes <base>.png without a
// page-number suffix.
type pdftoppm struct{ t tool.Tool }

func (p *pdftoppm) Name() string { return p.t.Name() }

func (p *pdftoppm) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error {
	n := strconv.Itoa(page)
	base := strings.TrimSuffix(outPath, ".png")
	return p.t.Run(ctx, nil, "-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", pdfPath, base)
}

// mutool renders with MuPDF.
type mutool struct{ t tool.Tool }

func (m *mutool) Name() string { return m.t.Name() }

func (m *mutool) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outPath string) error {
	return m.t.Run(ctx, nil, "draw", "-q", "-r", strconv.Itoa(dpi), "-o", outPath, pdfPath, strconv.Itoa(page))
}

// CountPages returns the number of pages in the PDF at path. The parser
// panics on some damaged files; that is reported as an error.
func CountPages(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
