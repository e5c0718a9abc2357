// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// Value is an optional JSON value copied out of an input document. It
// distinguishes three states: missing (the key was not in the document),
// null (the key was present with a JSON null), and present (anything else).
// Present values are kept exactly as decoded; numbers arrive as json.Number
// so their textual form survives.
type Value struct {
	v       any
	present bool
}

// Missing is the marker for a field that was not provided.
var Missing = Value{}

// Present wraps a decoded JSON value. Present(nil) is the null state.
func Present(v any) Value {
	return Value{v: v, present: true}
}

// Lookup returns the value stored under key in m, or Missing.
func Lookup(m map[string]any, key string) Value {
	v, ok := m[key]
	if !ok {
		return Missing
	}
	return Present(v)
}

// IsMissing reports whether the field was absent from the document.
func (v Value) IsMissing() bool { return !v.present }

// IsNull reports whether the field was present with a JSON null.
func (v Value) IsNull() bool { return v.present && v.v == nil }

// IsBlank reports whether the value is missing or null. Blank values
// produce empty spreadsheet cells.
func (v Value) IsBlank() bool { return v.v == nil }

// Raw returns the decoded value, or nil when missing or null.
func (v Value) Raw() any { return v.v }

func (v Value) String() string {
	switch {
	case v.IsMissing():
		return "<missing>"
	case v.IsNull():
		return "null"
	}
	if s, ok := v.v.(string); ok {
		return s
	}
	if b, err := json.Marshal(v.v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v.v)
}

// MarshalJSON encodes missing and null both as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

// MarshalYAML encodes missing and null both as YAML null.
func (v Value) MarshalYAML() (any, error) {
	return v.v, nil
}
