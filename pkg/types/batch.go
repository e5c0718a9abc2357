// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus is the outcome of converting a single input file.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int `json:"converted" yaml:"converted"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`

	// Outputs lists the files written by converted inputs, in processing order.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Total returns the total number of inputs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any input failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Count tallies one input with the given status.
func (r *BatchResult) Count(status ConversionStatus) {
	switch status {
	case ConversionDone:
		r.Converted++
	case ConversionSkipped:
		r.Skipped++
	case ConversionFailed:
		r.Failed++
	}
}
