// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package flatten turns a classification-run document into one table row
// per result entry.
//
// A run document has the shape
//
//	{"model": ..., "has_probs": ..., "results": [[{entry}, ...], ...]}
//
// Every key is optional. Absent entry fields become types.Missing in the
// produced rows; they never fail the conversion and never default to zero
// values. Only a document that is not a JSON object is rejected.
package flatten

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/docutils/pkg/types"
)

const (
	keyModel    = "model"
	keyHasProbs = "has_probs"
	keyResults  = "results"

	keyPrompt    = "prompt"
	keyMalicious = "malicious"
	keyProb      = "prob"
	keyContent   = "content"
)

// InvalidInputError reports a document that cannot be flattened at all.
type InvalidInputError struct {
	// Reason describes what was wrong with the document.
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// Report counts the parts of a document that were skipped because they did
// not have the expected shape.
type Report struct {
	// ResultsIgnored is set when "results" was present but not an array.
	ResultsIgnored bool `json:"results_ignored,omitempty" yaml:"results_ignored,omitempty"`

	// SkippedGroups counts groups that were not arrays.
	SkippedGroups int `json:"skipped_groups" yaml:"skipped_groups"`

	// SkippedEntries counts entries that were not objects.
	SkippedEntries int `json:"skipped_entries" yaml:"skipped_entries"`
}

// Clean reports whether nothing was skipped.
func (r Report) Clean() bool {
	return !r.ResultsIgnored && r.SkippedGroups == 0 && r.SkippedEntries == 0
}

// Decode reads one JSON document from r. Numbers are kept as json.Number.
// Malformed JSON or anything after the document yields an
// *InvalidInputError.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, &InvalidInputError{Reason: "empty document"}
		}
		return nil, &InvalidInputError{Reason: "malformed JSON", Err: err}
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, &InvalidInputError{Reason: "trailing data after document", Err: err}
	}
	return doc, nil
}

// Parse builds a RunRecord from a decoded document. It fails only when doc
// is not a JSON object. Groups that are not arrays and entries that are not
// objects are dropped and counted in the Report.
func Parse(doc any) (types.RunRecord, Report, error) {
	var report Report

	m, ok := doc.(map[string]any)
	if !ok {
		return types.RunRecord{}, report, &InvalidInputError{
			Reason: fmt.Sprintf("top-level value is %s, want object", jsonKind(doc)),
		}
	}

	rec := types.RunRecord{
		Model:    types.Lookup(m, keyModel),
		HasProbs: types.Lookup(m, keyHasProbs),
	}

	raw, ok := m[keyResults]
	if !ok || raw == nil {
		return rec, report, nil
	}
	groups, ok := raw.([]any)
	if !ok {
		report.ResultsIgnored = true
		return rec, report, nil
	}

	rec.Results = make([][]types.Entry, 0, len(groups))
	for _, g := range groups {
		items, ok := g.([]any)
		if !ok {
			report.SkippedGroups++
			continue
		}
		entries := make([]types.Entry, 0, len(items))
		for _, it := range items {
			em, ok := it.(map[string]any)
			if !ok {
				report.SkippedEntries++
				continue
			}
			entries = append(entries, types.Entry{
				Prompt:    types.Lookup(em, keyPrompt),
				Malicious: types.Lookup(em, keyMalicious),
				Prob:      types.Lookup(em, keyProb),
				Content:   types.Lookup(em, keyContent),
			})
		}
		rec.Results = append(rec.Results, entries)
	}

	return rec, report, nil
}

// Flatten emits one row per entry, in group order then entry order. Every
// row carries the record's model and has_probs. Flatten does not modify rec.
func Flatten(rec types.RunRecord) []types.FlatRow {
	rows := make([]types.FlatRow, 0, rec.EntryCount())
	for _, group := range rec.Results {
		for _, e := range group {
			rows = append(rows, types.FlatRow{
				Model:     rec.Model,
				HasProbs:  rec.HasProbs,
				Prompt:    e.Prompt,
				Malicious: e.Malicious,
				Prob:      e.Prob,
				Content:   e.Content,
			})
		}
	}
	return rows
}

// FlattenDocument parses doc and flattens the resulting record.
func FlattenDocument(doc any) ([]types.FlatRow, Report, error) {
	rec, report, err := Parse(doc)
	if err != nil {
		return nil, report, err
	}
	return Flatten(rec), report, nil
}

// FlattenReader decodes a document from r and flattens it.
func FlattenReader(r io.Reader) ([]types.FlatRow, Report, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, Report{}, err
	}
	return FlattenDocument(doc)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
