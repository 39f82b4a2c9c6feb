// Package records defines the generic record type flowing between the
// parser and the typed transform stages.
//
// A Record is a single decoded JSON object. Values keep the shapes
// produced by encoding/json with UseNumber enabled: string, bool,
// json.Number, nil, nested map[string]any / []any. The typed accessors
// below perform only the minimal coercion the transforms need (numbers
// arrive as json.Number, and a handful of upstream fields switch between
// string and numeric encodings across export batches).
package records

import (
	"encoding/json"
	"strconv"
)

// Record is one decoded JSON object keyed by field name.
type Record map[string]any

// String returns the value for key as a string. json.Number values are
// returned in their literal form; missing keys, nulls, and other types
// report ok=false.
func (r Record) String(key string) (string, bool) {
	switch v := r[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// Float returns the value for key as a float64, accepting json.Number,
// float64, and numeric strings.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns the value for key as an int64. Fractional values truncate
// toward zero, matching integer division semantics elsewhere in the
// pipeline.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		return int64(f), err == nil
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
