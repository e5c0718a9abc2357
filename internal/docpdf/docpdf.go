// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docpdf converts word-processor documents to PDF with a headless
// office suite. Each PDF is written next to its source document.
package docpdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pdiddy/docutils/internal/ledger"
	"github.com/pdiddy/docutils/internal/tool"
	"github.com/pdiddy/docutils/pkg/types"
)

// Tool is the ledger name for this converter.
const Tool = "doc2pdf"

// Defaults applied when the Converter fields are zero.
var (
	DefaultExtensions = []string{".doc", ".docx"}
	DefaultTimeout    = 2 * time.Minute
)

// Converter runs an office binary over every matching document in a tree.
type Converter struct {
	Office tool.Tool

	// Extensions lists the file extensions to convert, with leading dot.
	Extensions []string
	Timeout    time.Duration
	Force      bool

	// Validate checks a produced PDF; nil means pdfcpu validation.
	Validate func(path string) error

	Ledger *ledger.Ledger
	Logger *slog.Logger
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ValidatePDF checks path with pdfcpu in relaxed mode.
func ValidatePDF(path string) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("invalid pdf %s: %w", filepath.Base(path), err)
	}
	return nil
}

// OutputPath returns where the PDF for doc is written.
func OutputPath(doc string) string {
	return strings.TrimSuffix(doc, filepath.Ext(doc)) + ".pdf"
}

// ConvertTree converts every matching document under root. A document
// that fails is reported on w and counted. The batch stops with an error
// when root is not a directory or the office binary cannot be found.
func (c *Converter) ConvertTree(ctx context.Context, root string, w io.Writer) (types.BatchResult, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return types.BatchResult{}, fmt.Errorf("not a directory: %s", root)
	}

	docs, err := FindDocuments(root, c.extensions())
	if err != nil {
		return types.BatchResult{}, err
	}

	run, err := c.Ledger.BeginRun(ctx, Tool)
	if err != nil {
		return types.BatchResult{}, err
	}

	var result types.BatchResult
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		status, err := c.convertOne(ctx, run, root, doc, w)
		result.Count(status)
		if status == types.ConversionDone {
			result.Outputs = append(result.Outputs, OutputPath(doc))
		}
		if errors.Is(err, tool.ErrNotFound) {
			c.finish(ctx, run, result)
			return result, err
		}
	}

	c.finish(ctx, run, result)
	return result, nil
}

func (c *Converter) finish(ctx context.Context, run *ledger.Run, result types.BatchResult) {
	if err := run.Finish(ctx, result); err != nil {
		c.logger().Warn("ledger update failed", "err", err)
	}
}

func (c *Converter) convertOne(ctx context.Context, run *ledger.Run, root, doc string, w io.Writer) (types.ConversionStatus, error) {
	name, err := filepath.Rel(root, doc)
	if err != nil {
		name = filepath.Base(doc)
	}
	pdfPath := OutputPath(doc)

	if !c.Force {
		if _, err := os.Stat(pdfPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (pdf exists)\n", name)
			return types.ConversionSkipped, nil
		}
	}

	info, err := os.Stat(doc)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.ConversionFailed, nil
	}

	fmt.Fprintf(w, "converting: %s\n", name)
	convErr := c.convert(ctx, doc, pdfPath)

	rec := ledger.Conversion{
		Source:        absPath(doc),
		Output:        pdfPath,
		SourceModTime: info.ModTime(),
		Status:        types.ConversionDone,
	}
	if convErr != nil {
		rec.Status = types.ConversionFailed
		rec.Detail = convErr.Error()
	}
	if err := run.Record(ctx, rec); err != nil {
		c.logger().Warn("ledger update failed", "file", doc, "err", err)
	}

	if convErr != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, convErr)
		return types.ConversionFailed, convErr
	}
	fmt.Fprintf(w, "converted: %s -> %s\n", name, filepath.Base(pdfPath))
	return types.ConversionDone, nil
}

func (c *Converter) convert(ctx context.Context, doc, pdfPath string) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := c.Office.Run(ctx, nil,
		"--headless", "--convert-to", "pdf", "--outdir", filepath.Dir(doc), doc)
	if err != nil {
		return err
	}
	// The office suite exits 0 on some conversion failures.
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("%s produced no pdf", c.Office.Name())
	}

	validate := c.Validate
	if validate == nil {
		validate = ValidatePDF
	}
	if err := validate(pdfPath); err != nil {
		return err
	}
	c.logger().Debug("converted document", "file", doc, "office", c.Office.Name(), "elapsed", time.Since(start))
	return nil
}

func (c *Converter) extensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultExtensions
	}
	return c.Extensions
}

// FindDocuments returns every file under root whose extension is in exts,
// compared case-insensitively, sorted. Office lock files (~$name) are
// ignored.
func FindDocuments(root string, exts []string) ([]string, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	var docs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if want[strings.ToLower(filepath.Ext(d.Name()))] {
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(docs)
	return docs, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
