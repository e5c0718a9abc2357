// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package flatten

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docutils/pkg/types"
)

func flattenString(t *testing.T, doc string) ([]types.FlatRow, Report) {
	t.Helper()
	rows, report, err := FlattenReader(strings.NewReader(doc))
	require.NoError(t, err)
	return rows, report
}

func TestFlatten_TwoEntries(t *testing.T) {
	rows, report := flattenString(t, `{"model":"gpt-4","has_probs":false,"results":[[
		{"prompt":"p1","malicious":false,"prob":0.1,"content":"c1"},
		{"prompt":"p2","malicious":true,"prob":0.9,"content":"c2"}]]}`)

	require.Len(t, rows, 2)
	assert.True(t, report.Clean())

	want := [][]any{
		{"gpt-4", false, "p1", false, json.Number("0.1"), "c1"},
		{"gpt-4", false, "p2", true, json.Number("0.9"), "c2"},
	}
	for i, row := range rows {
		got := make([]any, 0, len(types.Columns))
		for _, v := range row.Values() {
			got = append(got, v.Raw())
		}
		assert.Equal(t, want[i], got, "row %d", i)
	}
}

func TestFlatten_MissingKeys(t *testing.T) {
	rows, _ := flattenString(t, `{"model":null,"has_probs":null,"results":[[{"prompt":"p1"}]]}`)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.True(t, row.Model.IsNull())
	assert.True(t, row.HasProbs.IsNull())
	assert.Equal(t, "p1", row.Prompt.Raw())
	assert.True(t, row.Malicious.IsMissing())
	assert.True(t, row.Prob.IsMissing())
	assert.True(t, row.Content.IsMissing())
}

func TestFlatten_RowCounts(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{name: "empty results", doc: `{"model":"test","has_probs":true,"results":[]}`, want: 0},
		{name: "results absent", doc: `{"model":"test"}`, want: 0},
		{name: "results null", doc: `{"results":null}`, want: 0},
		{name: "empty object", doc: `{}`, want: 0},
		{name: "empty groups", doc: `{"results":[[],[]]}`, want: 0},
		{name: "several groups", doc: `{"results":[[{},{}],[{"prompt":"x"}],[{},{},{}]]}`, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _ := flattenString(t, tt.doc)
			assert.Len(t, rows, tt.want)
		})
	}
}

func TestFlatten_OrderAndRunFieldsShared(t *testing.T) {
	rows, _ := flattenString(t, `{"model":"m","has_probs":true,"results":[
		[{"prompt":"a"},{"prompt":"b"}],
		[{"prompt":"c"}]]}`)

	require.Len(t, rows, 3)
	var prompts []any
	for _, r := range rows {
		prompts = append(prompts, r.Prompt.Raw())
		assert.Equal(t, "m", r.Model.Raw())
		assert.Equal(t, true, r.HasProbs.Raw())
	}
	assert.Equal(t, []any{"a", "b", "c"}, prompts)
}

func TestFlatten_ValuesPassedThrough(t *testing.T) {
	rows, _ := flattenString(t, `{"results":[[{"malicious":"yes","prob":"high","content":{"k":[1,2]}}]]}`)

	require.Len(t, rows, 1)
	assert.Equal(t, "yes", rows[0].Malicious.Raw())
	assert.Equal(t, "high", rows[0].Prob.Raw())
	assert.Equal(t, map[string]any{"k": []any{json.Number("1"), json.Number("2")}}, rows[0].Content.Raw())
	assert.True(t, rows[0].Model.IsMissing())
}

func TestFlatten_MalformedPartsSkipped(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		rows   int
		report Report
	}{
		{
			name:   "entry not an object",
			doc:    `{"results":[[{"prompt":"ok"}, "bad", 3, null]]}`,
			rows:   1,
			report: Report{SkippedEntries: 3},
		},
		{
			name:   "group not an array",
			doc:    `{"results":[{"prompt":"x"}, [{"prompt":"ok"}]]}`,
			rows:   1,
			report: Report{SkippedGroups: 1},
		},
		{
			name:   "results not an array",
			doc:    `{"model":"m","results":{"a":1}}`,
			rows:   0,
			report: Report{ResultsIgnored: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, report := flattenString(t, tt.doc)
			assert.Len(t, rows, tt.rows)
			assert.Equal(t, tt.report, report)
			assert.False(t, report.Clean())
		})
	}
}

func TestParse_InvalidInput(t *testing.T) {
	for _, doc := range []any{nil, []any{}, "text", json.Number("1"), true} {
		_, _, err := Parse(doc)
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid, "doc %#v", doc)
		assert.Contains(t, invalid.Error(), "want object")
	}
}

func TestDecode_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{name: "empty", in: "", msg: "empty document"},
		{name: "truncated", in: `{"model":`, msg: "malformed JSON"},
		{name: "garbage", in: `not json`, msg: "malformed JSON"},
		{name: "two documents", in: "{\"model\":\"a\"}\n{\"model\":\"b\"}", msg: "trailing data after document"},
		{name: "trailing garbage", in: `{"model":"a"} x`, msg: "trailing data after document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	doc, err := Decode(strings.NewReader("{\"model\":\"a\"}\n\t "))
	require.NoError(t, err, "trailing whitespace is accepted")
	assert.Equal(t, map[string]any{"model": "a"}, doc)
}

func TestFlatten_DoesNotMutateRecord(t *testing.T) {
	rec := types.RunRecord{
		Model:   types.Present("m"),
		Results: [][]types.Entry{{{Prompt: types.Present("p")}}},
	}
	rows := Flatten(rec)
	rows[0].Prompt = types.Present("changed")

	assert.Equal(t, "p", rec.Results[0][0].Prompt.Raw())
	assert.Len(t, Flatten(rec), 1)
}
