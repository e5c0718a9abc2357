// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package json2excel converts classification-run JSON files into xlsx
// spreadsheets, one row per result entry.
package json2excel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/docutils/internal/flatten"
	"github.com/pdiddy/docutils/internal/ledger"
	"github.com/pdiddy/docutils/internal/sheet"
	"github.com/pdiddy/docutils/pkg/types"
)

// Tool is the ledger name for this converter.
const Tool = "json2excel"

// DefaultPattern matches the JSON files of a directory.
const DefaultPattern = "*.json"

const xlsxExt = ".xlsx"

// OutputPath returns jsonPath with its extension replaced by .xlsx.
func OutputPath(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + xlsxExt
}

// ConvertFile reads jsonPath, flattens it, and writes the workbook to
// outputPath. An empty outputPath means OutputPath(jsonPath); an existing
// directory receives <stem>.xlsx. It returns the path written.
func ConvertFile(jsonPath, outputPath string) (string, sheet.Summary, flatten.Report, error) {
	outputPath = resolveOutput(jsonPath, outputPath)

	f, err := os.Open(jsonPath)
	if err != nil {
		return "", sheet.Summary{}, flatten.Report{}, fmt.Errorf("opening %s: %w", jsonPath, err)
	}
	defer f.Close()

	rows, report, err := flatten.FlattenReader(f)
	if err != nil {
		return "", sheet.Summary{}, report, fmt.Errorf("reading %s: %w", jsonPath, err)
	}

	if err := sheet.WriteXLSX(outputPath, rows); err != nil {
		return "", sheet.Summary{}, report, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return outputPath, sheet.Summarize(rows), report, nil
}

func resolveOutput(jsonPath, outputPath string) string {
	if outputPath == "" {
		return OutputPath(jsonPath)
	}
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		return filepath.Join(outputPath, filepath.Base(OutputPath(jsonPath)))
	}
	return outputPath
}

// Converter runs conversions and records them in a ledger.
type Converter struct {
	// Ledger records conversions; nil disables skip detection.
	Ledger *ledger.Ledger
	// Force converts inputs the ledger reports as unchanged.
	Force bool
	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ConvertSingle converts one file unconditionally and records the outcome.
func (c *Converter) ConvertSingle(ctx context.Context, jsonPath, outputPath string) (string, sheet.Summary, error) {
	run, err := c.Ledger.BeginRun(ctx, Tool)
	if err != nil {
		return "", sheet.Summary{}, err
	}

	var result types.BatchResult
	out, summary, convErr := c.convert(ctx, run, jsonPath, outputPath)
	if convErr != nil {
		result.Count(types.ConversionFailed)
	} else {
		result.Count(types.ConversionDone)
		result.Outputs = append(result.Outputs, out)
	}
	if err := run.Finish(ctx, result); err != nil {
		c.logger().Warn("ledger update failed", "err", err)
	}
	return out, summary, convErr
}

// ConvertDir converts every regular file in dir matching pattern ("**" is
// supported) into outDir/<stem>.xlsx. An empty outDir means dir. Per-file
// failures are reported on w and counted; they do not stop the batch.
func (c *Converter) ConvertDir(ctx context.Context, dir, outDir, pattern string, w io.Writer) (types.BatchResult, error) {
	if outDir == "" {
		outDir = dir
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	files, err := MatchFiles(dir, pattern)
	if err != nil {
		return types.BatchResult{}, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return types.BatchResult{}, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	run, err := c.Ledger.BeginRun(ctx, Tool)
	if err != nil {
		return types.BatchResult{}, err
	}

	var result types.BatchResult
	for _, src := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		name := filepath.Base(src)
		out := filepath.Join(outDir, filepath.Base(OutputPath(src)))

		if !c.Force {
			if skip := c.unchanged(ctx, src, out); skip {
				fmt.Fprintf(w, "skipped: %s (unchanged)\n", name)
				result.Count(types.ConversionSkipped)
				continue
			}
		}

		created, summary, err := c.convert(ctx, run, src, out)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			result.Count(types.ConversionFailed)
			continue
		}
		fmt.Fprintf(w, "Converted: %s -> %s\n", name, filepath.Base(created))
		c.logger().Debug("converted", "file", src, "summary", summary.String())
		result.Count(types.ConversionDone)
		result.Outputs = append(result.Outputs, created)
	}

	if err := run.Finish(ctx, result); err != nil {
		c.logger().Warn("ledger update failed", "err", err)
	}
	return result, nil
}

// unchanged reports whether the ledger shows src already converted into out.
func (c *Converter) unchanged(ctx context.Context, src, out string) bool {
	info, err := os.Stat(src)
	if err != nil {
		return false
	}
	ok, err := c.Ledger.Unchanged(ctx, Tool, ledgerKey(src), ledgerKey(out), info.ModTime())
	if err != nil {
		c.logger().Warn("ledger lookup failed", "file", src, "err", err)
		return false
	}
	return ok
}

func (c *Converter) convert(ctx context.Context, run *ledger.Run, src, out string) (string, sheet.Summary, error) {
	var modTime time.Time
	if info, err := os.Stat(src); err == nil {
		modTime = info.ModTime()
	}

	created, summary, report, err := ConvertFile(src, out)
	if !report.Clean() {
		c.logger().Warn("skipped malformed parts of document",
			"file", src,
			"results_ignored", report.ResultsIgnored,
			"groups", report.SkippedGroups,
			"entries", report.SkippedEntries)
	}

	rec := ledger.Conversion{
		Source:        ledgerKey(src),
		SourceModTime: modTime,
		Status:        types.ConversionDone,
		Detail:        summary.String(),
	}
	if created != "" {
		rec.Output = ledgerKey(created)
	}
	if err != nil {
		rec.Status = types.ConversionFailed
		rec.Detail = err.Error()
	}
	if recErr := run.Record(ctx, rec); recErr != nil {
		c.logger().Warn("ledger update failed", "file", src, "err", recErr)
	}
	return created, summary, err
}

// MatchFiles returns the regular files under dir matching pattern, sorted.
func MatchFiles(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), filepath.ToSlash(pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %q in %s: %w", pattern, dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		p := filepath.Join(dir, filepath.FromSlash(m))
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, p)
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
