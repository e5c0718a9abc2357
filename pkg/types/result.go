// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docutils commands:
// the classification-run documents consumed by json2excel, the flattened
// rows it produces, and the option structs each stage is configured with.
package types

// Column names of a flattened result table, in output order.
const (
	ColumnModel     = "model"
	ColumnHasProbs  = "has_probs"
	ColumnPrompt    = "prompt"
	ColumnMalicious = "malicious"
	ColumnProb      = "prob"
	ColumnContent   = "content"
)

// Columns is the fixed column order of a flattened result table.
var Columns = []string{
	ColumnModel,
	ColumnHasProbs,
	ColumnPrompt,
	ColumnMalicious,
	ColumnProb,
	ColumnContent,
}

// RunRecord is one model's classification run as read from a results
// document.
type RunRecord struct {
	// Model identifies the evaluated model.
	Model Value `json:"model" yaml:"model"`

	// HasProbs records whether probability scores are present.
	HasProbs Value `json:"has_probs" yaml:"has_probs"`

	// Results holds the entry groups in document order.
	Results [][]Entry `json:"results" yaml:"results"`
}

// EntryCount returns the number of entries across all groups.
func (r RunRecord) EntryCount() int {
	n := 0
	for _, g := range r.Results {
		n += len(g)
	}
	return n
}

// Entry is one classification result within a group.
type Entry struct {
	Prompt    Value `json:"prompt" yaml:"prompt"`
	Malicious Value `json:"malicious" yaml:"malicious"`
	Prob      Value `json:"prob" yaml:"prob"`
	Content   Value `json:"content" yaml:"content"`
}

// FlatRow is one output row: the run-level fields of a RunRecord combined
// with the fields of a single Entry.
type FlatRow struct {
	Model     Value `json:"model" yaml:"model"`
	HasProbs  Value `json:"has_probs" yaml:"has_probs"`
	Prompt    Value `json:"prompt" yaml:"prompt"`
	Malicious Value `json:"malicious" yaml:"malicious"`
	Prob      Value `json:"prob" yaml:"prob"`
	Content   Value `json:"content" yaml:"content"`
}

// Values returns the row's fields in Columns order.
func (r FlatRow) Values() []Value {
	return []Value{r.Model, r.HasProbs, r.Prompt, r.Malicious, r.Prob, r.Content}
}
