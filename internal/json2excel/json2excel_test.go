// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package json2excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docutils/internal/flatten"
	"github.com/pdiddy/docutils/internal/ledger"
	"github.com/pdiddy/docutils/internal/sheet"
)

const runDoc = `{"model":"gpt-4","has_probs":true,"results":[[
	{"prompt":"p1","malicious":false,"prob":0.1,"content":"c1"},
	{"prompt":"p2","malicious":true,"prob":0.9,"content":"c2"}]]}`

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestConvertFile_DefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	in := writeJSON(t, dir, "test.json", `{"model":"test","has_probs":true,"results":[]}`)

	out, summary, _, err := ConvertFile(in, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test.xlsx"), out)
	assert.Equal(t, 0, summary.Rows)
	assert.FileExists(t, out)
}

func TestConvertFile_CustomOutputPath(t *testing.T) {
	dir := t.TempDir()
	in := writeJSON(t, dir, "input.json", runDoc)
	custom := filepath.Join(dir, "custom_output.xlsx")

	out, summary, _, err := ConvertFile(in, custom)
	require.NoError(t, err)
	assert.Equal(t, custom, out)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 1, summary.Malicious)

	rows, err := sheet.ReadRows(out)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p2", rows[2][2])
}

func TestConvertFile_OutputDirectory(t *testing.T) {
	dir := t.TempDir()
	in := writeJSON(t, dir, "input.json", runDoc)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	out, _, _, err := ConvertFile(in, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "input.xlsx"), out)
}

func TestConvertFile_InvalidInput(t *testing.T) {
	dir := t.TempDir()
	in := writeJSON(t, dir, "list.json", `[1,2,3]`)

	_, _, _, err := ConvertFile(in, "")
	var invalid *flatten.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.NoFileExists(t, filepath.Join(dir, "list.xlsx"))
}

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "a.json", runDoc)
	writeJSON(t, dir, "b.json", `{"results":[[{"prompt":"x"}]]}`)
	writeJSON(t, dir, "bad.json", `{"results":`)
	writeJSON(t, dir, "notes.txt", `ignored`)
	writeJSON(t, dir, "nested/c.json", runDoc)
	outDir := filepath.Join(dir, "excel")

	c := &Converter{}
	var log bytes.Buffer
	result, err := c.ConvertDir(context.Background(), dir, outDir, "", &log)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.Equal(t, []string{filepath.Join(outDir, "a.xlsx"), filepath.Join(outDir, "b.xlsx")}, result.Outputs)
	assert.Contains(t, log.String(), "Converted: a.json -> a.xlsx")
	assert.Contains(t, log.String(), "failed:  bad.json")
	assert.NoFileExists(t, filepath.Join(outDir, "c.xlsx"))
}

func TestConvertDir_RecursivePattern(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "a.json", runDoc)
	writeJSON(t, dir, "nested/deeper/c.json", runDoc)

	result, err := (&Converter{}).ConvertDir(context.Background(), dir, "", "**/*.json", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Converted)
	assert.FileExists(t, filepath.Join(dir, "a.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "c.xlsx"))
}

func TestConvertDir_InvalidPattern(t *testing.T) {
	_, err := (&Converter{}).ConvertDir(context.Background(), t.TempDir(), "", "[", &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid pattern")
}

func TestConvertDir_LedgerSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "a.json", runDoc)

	l, err := ledger.Open(filepath.Join(dir, ".state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	c := &Converter{Ledger: l}
	ctx := context.Background()

	first, err := c.ConvertDir(ctx, dir, "", "", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Converted)

	var log bytes.Buffer
	second, err := c.ConvertDir(ctx, dir, "", "", &log)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Contains(t, log.String(), "skipped: a.json (unchanged)")

	c.Force = true
	third, err := c.ConvertDir(ctx, dir, "", "", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Converted)

	hist, err := l.History(ctx, ledger.HistoryOptions{Tool: Tool})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "2 rows, 1 malicious, mean prob 0.5", hist[0].Detail)
}

func TestConvertDir_LedgerConvertsIntoNewOutputDir(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "a.json", runDoc)
	out1 := filepath.Join(dir, "out1")
	out2 := filepath.Join(dir, "out2")

	l, err := ledger.Open(filepath.Join(dir, ".state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	c := &Converter{Ledger: l}
	ctx := context.Background()

	first, err := c.ConvertDir(ctx, dir, out1, "", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Converted)

	second, err := c.ConvertDir(ctx, dir, out2, "", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Converted)
	assert.Equal(t, 0, second.Skipped)
	assert.FileExists(t, filepath.Join(out2, "a.xlsx"))

	third, err := c.ConvertDir(ctx, dir, out2, "", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Skipped)
}

func TestConvertSingle_RecordsFailure(t *testing.T) {
	dir := t.TempDir()
	in := writeJSON(t, dir, "bad.json", `"just a string"`)

	l, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	_, _, err = (&Converter{Ledger: l}).ConvertSingle(context.Background(), in, "")
	require.Error(t, err)

	runs, err := l.Runs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestMatchFiles_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.json"), 0o755))
	writeJSON(t, dir, "z.json", "{}")
	writeJSON(t, dir, "a.json", "{}")

	files, err := MatchFiles(dir, DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "z.json")}, files)
}
