// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheet

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/docutils/pkg/types"
)

// Summary describes a flattened table for status output.
type Summary struct {
	Rows      int `json:"rows" yaml:"rows"`
	Malicious int `json:"malicious" yaml:"malicious"`

	// Scored counts rows whose prob is a number.
	Scored int `json:"scored" yaml:"scored"`

	// MeanProb is the exact mean over scored rows; zero when Scored is 0.
	MeanProb decimal.Decimal `json:"mean_prob" yaml:"mean_prob"`
}

// Summarize counts rows flagged malicious and averages numeric probabilities.
// Non-boolean malicious values and non-numeric probs are not counted.
func Summarize(rows []types.FlatRow) Summary {
	s := Summary{Rows: len(rows)}
	sum := decimal.Zero
	for _, r := range rows {
		if b, ok := r.Malicious.Raw().(bool); ok && b {
			s.Malicious++
		}
		if d, ok := numeric(r.Prob); ok {
			sum = sum.Add(d)
			s.Scored++
		}
	}
	if s.Scored > 0 {
		s.MeanProb = sum.Div(decimal.NewFromInt(int64(s.Scored)))
	}
	return s
}

func (s Summary) String() string {
	if s.Scored == 0 {
		return fmt.Sprintf("%d rows, %d malicious", s.Rows, s.Malicious)
	}
	return fmt.Sprintf("%d rows, %d malicious, mean prob %s",
		s.Rows, s.Malicious, s.MeanProb.Round(4).String())
}

func numeric(v types.Value) (decimal.Decimal, bool) {
	switch x := v.Raw().(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	}
	return decimal.Decimal{}, false
}
