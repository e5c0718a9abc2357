// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfimage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docutils/internal/ledger"
)

// fakeRasterizer writes a small file per page and can fail on one PDF.
type fakeRasterizer struct {
	failOn string
	dpis   []int
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) RenderPage(_ context.Context, pdfPath string, page, dpi int, outPath string) error {
	f.dpis = append(f.dpis, dpi)
	if f.failOn != "" && strings.HasSuffix(pdfPath, f.failOn) {
		return errors.New("render crashed")
	}
	return os.WriteFile(outPath, []byte(fmt.Sprintf("%s#%d", filepath.Base(pdfPath), page)), 0o644)
}

func pageCounts(counts map[string]int) func(string) (int, error) {
	return func(path string) (int, error) {
		n, ok := counts[filepath.Base(path)]
		if !ok {
			return 0, errors.New("not a pdf")
		}
		return n, nil
	}
}

func writePDF(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
}

func TestConvertTree_SourceMissing(t *testing.T) {
	dir := t.TempDir()
	c := &Converter{Rasterizer: &fakeRasterizer{}}
	_, err := c.ConvertTree(context.Background(), filepath.Join(dir, "nonexistent"), filepath.Join(dir, "output"), io.Discard)
	assert.ErrorContains(t, err, "source root does not exist")
}

func TestConvertTree_CreatesDestForEmptySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(src, 0o755))
	dest := filepath.Join(dir, "output", "nested")

	c := &Converter{Rasterizer: &fakeRasterizer{}}
	result, err := c.ConvertTree(context.Background(), src, dest, io.Discard)
	require.NoError(t, err)
	assert.DirExists(t, dest)
	assert.Equal(t, 0, result.Images)
	assert.Equal(t, 0, result.Total())
}

func TestConvertTree_PreservesStructure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data")
	dest := filepath.Join(dir, "converted")
	writePDF(t, src, "top.pdf")
	writePDF(t, src, "reports/2025/q1.pdf")
	writePDF(t, src, "reports/readme.txt")

	r := &fakeRasterizer{}
	c := &Converter{
		Rasterizer: r,
		PageCount:  pageCounts(map[string]int{"top.pdf": 2, "q1.pdf": 1}),
	}

	var log, progress bytes.Buffer
	c.Progress = &progress
	result, err := c.ConvertTree(context.Background(), src, dest, &log)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Images)
	assert.Equal(t, 2, result.Converted)
	assert.Len(t, result.Outputs, 3)
	assert.FileExists(t, filepath.Join(dest, "top_page_001.png"))
	assert.FileExists(t, filepath.Join(dest, "top_page_002.png"))
	assert.FileExists(t, filepath.Join(dest, "reports", "2025", "q1_page_001.png"))
	assert.Equal(t, []int{300, 300, 300}, r.dpis)
	assert.Contains(t, log.String(), "rendered: top.pdf (2 pages)")
	assert.NotEmpty(t, progress.String())
}

func TestConvertTree_FailureIsSkipped(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writePDF(t, src, "a.pdf")
	writePDF(t, src, "b.pdf")
	writePDF(t, src, "c.pdf")

	c := &Converter{
		Rasterizer: &fakeRasterizer{failOn: "b.pdf"},
		PageCount:  pageCounts(map[string]int{"a.pdf": 1, "b.pdf": 2}),
		DPI:        72,
	}
	var log bytes.Buffer
	result, err := c.ConvertTree(context.Background(), src, filepath.Join(dir, "out"), &log)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 1, result.Images)
	assert.Contains(t, log.String(), "failed:  b.pdf (page 1: render crashed)")
	assert.Contains(t, log.String(), "failed:  c.pdf (not a pdf)")
}

func TestConvertTree_LedgerSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "out")
	writePDF(t, src, "a.pdf")

	l, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	c := &Converter{
		Rasterizer: &fakeRasterizer{},
		PageCount:  pageCounts(map[string]int{"a.pdf": 2}),
		Ledger:     l,
	}
	ctx := context.Background()

	first, err := c.ConvertTree(ctx, src, dest, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Images)

	second, err := c.ConvertTree(ctx, src, dest, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Images)

	require.NoError(t, os.Remove(filepath.Join(dest, "a_page_001.png")))
	third, err := c.ConvertTree(ctx, src, dest, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Images, "removed output forces a re-render")
}

func TestConvertTree_LedgerRendersIntoNewDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writePDF(t, src, "sub/a.pdf")

	l, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	c := &Converter{
		Rasterizer: &fakeRasterizer{},
		PageCount:  pageCounts(map[string]int{"a.pdf": 1}),
		Ledger:     l,
	}
	ctx := context.Background()

	_, err = c.ConvertTree(ctx, src, filepath.Join(dir, "out1"), io.Discard)
	require.NoError(t, err)

	second, err := c.ConvertTree(ctx, src, filepath.Join(dir, "out2"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Converted)
	assert.Equal(t, 0, second.Skipped)
	assert.FileExists(t, filepath.Join(dir, "out2", "sub", "a_page_001.png"))
}

func TestPageFileName(t *testing.T) {
	assert.Equal(t, "scan_page_001.png", PageFileName("scan", 1))
	assert.Equal(t, "scan_page_120.png", PageFileName("scan", 120))
	assert.Equal(t, "scan_page_1000.png", PageFileName("scan", 1000))
}

func TestCountPages_InvalidFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(p, []byte("not a pdf at all"), 0o644))

	_, err := CountPages(p)
	assert.Error(t, err)
}
