// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfimage renders every page of every PDF under a directory tree
// to PNG files, preserving the relative folder structure.
package pdfimage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/docutils/internal/ledger"
	"github.com/pdiddy/docutils/pkg/types"
)

// Tool is the ledger name for this converter.
const Tool = "pdf2image"

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 300

// Result extends BatchResult with the number of images written. Outputs
// lists every image, including pages written before a PDF failed.
type Result struct {
	types.BatchResult
	Images int
}

// Converter renders PDFs with a Rasterizer.
type Converter struct {
	Rasterizer Rasterizer

	// PageCount returns a PDF's page count; nil means CountPages.
	PageCount func(path string) (int, error)

	// DPI is the render resolution; 0 means DefaultDPI.
	DPI int

	Ledger *ledger.Ledger
	Force  bool
	Logger *slog.Logger

	// Progress receives a progress bar when non-nil.
	Progress io.Writer
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// PageFileName names the image for page (1-based) of the PDF with the given stem.
func PageFileName(stem string, page int) string {
	return fmt.Sprintf("%s_page_%03d.png", stem, page)
}

// ConvertTree renders all PDFs under srcRoot into destRoot. It fails only
// when srcRoot is missing or destRoot cannot be created; a PDF that fails
// is reported on w and counted.
func (c *Converter) ConvertTree(ctx context.Context, srcRoot, destRoot string, w io.Writer) (Result, error) {
	if _, err := os.Stat(srcRoot); err != nil {
		return Result{}, fmt.Errorf("source root does not exist: %s", srcRoot)
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating destination %s: %w", destRoot, err)
	}

	files, err := FindPDFs(srcRoot)
	if err != nil {
		return Result{}, err
	}

	run, err := c.Ledger.BeginRun(ctx, Tool)
	if err != nil {
		return Result{}, err
	}

	var bar *progressbar.ProgressBar
	if c.Progress != nil && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(c.Progress),
			progressbar.OptionSetDescription(Tool),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var result Result
	for _, pdfPath := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		status, written := c.convertOne(ctx, run, srcRoot, destRoot, pdfPath, w)
		result.Count(status)
		result.Images += len(written)
		result.Outputs = append(result.Outputs, written...)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := run.Finish(ctx, result.BatchResult); err != nil {
		c.logger().Warn("ledger update failed", "err", err)
	}
	return result, nil
}

func (c *Converter) convertOne(ctx context.Context, run *ledger.Run, srcRoot, destRoot, pdfPath string, w io.Writer) (types.ConversionStatus, []string) {
	rel, err := filepath.Rel(srcRoot, filepath.Dir(pdfPath))
	if err != nil {
		rel = "."
	}
	outDir := filepath.Join(destRoot, rel)
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	name := filepath.Join(rel, filepath.Base(pdfPath))

	info, err := os.Stat(pdfPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.ConversionFailed, nil
	}
	key := ledgerKey(pdfPath)

	if !c.Force {
		firstPage := ledgerKey(filepath.Join(outDir, PageFileName(stem, 1)))
		unchanged, err := c.Ledger.Unchanged(ctx, Tool, key, firstPage, info.ModTime())
		if err != nil {
			c.logger().Warn("ledger lookup failed", "file", pdfPath, "err", err)
		}
		if unchanged {
			fmt.Fprintf(w, "skipped: %s (unchanged)\n", name)
			return types.ConversionSkipped, nil
		}
	}

	written, err := c.render(ctx, pdfPath, outDir, stem)
	rec := ledger.Conversion{
		Source:        key,
		SourceModTime: info.ModTime(),
		Status:        types.ConversionDone,
		Detail:        fmt.Sprintf("%d pages", len(written)),
	}
	if len(written) > 0 {
		rec.Output = ledgerKey(written[0])
	}
	if err != nil {
		rec.Status = types.ConversionFailed
		rec.Detail = err.Error()
	}
	if recErr := run.Record(ctx, rec); recErr != nil {
		c.logger().Warn("ledger update failed", "file", pdfPath, "err", recErr)
	}

	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.ConversionFailed, written
	}
	fmt.Fprintf(w, "rendered: %s (%d pages)\n", name, len(written))
	return types.ConversionDone, written
}

// render writes every page and returns the paths written, including those
// written before a failure.
func (c *Converter) render(ctx context.Context, pdfPath, outDir, stem string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outDir, err)
	}

	count := c.PageCount
	if count == nil {
		count = CountPages
	}
	pages, err := count(pdfPath)
	if err != nil {
		return nil, err
	}

	dpi := c.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	written := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		out := filepath.Join(outDir, PageFileName(stem, i))
		if err := c.Rasterizer.RenderPage(ctx, pdfPath, i, dpi, out); err != nil {
			return written, fmt.Errorf("page %d: %w", i, err)
		}
		written = append(written, out)
	}
	c.logger().Debug("rendered pdf", "file", pdfPath, "pages", pages, "dpi", dpi, "rasterizer", c.Rasterizer.Name())
	return written, nil
}

// FindPDFs returns every *.pdf file under root, sorted.
func FindPDFs(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && filepath.Ext(d.Name()) == ".pdf" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func ledgerKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
