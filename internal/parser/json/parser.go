// Package json implements the JSON parser that turns raw catalog and
// event-log objects into records.Record maps.
//
// It is deliberately simple and conservative:
//
//   - Supports newline-delimited JSON objects (the event-log export
//     format):
//     {"page":"NextSong","ts":1541106106796,...}
//     {"page":"Home","ts":1541106132796,...}
//   - Supports a single top-level object per file (the catalog format,
//     one song per file).
//   - Supports a top-level array of objects.
//
// Numbers are decoded with UseNumber so that durations survive as their
// literal text until the transforms decide how to interpret them; the
// songplay join relies on both sides taking the same decode path.
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"songlake/pkg/records"
)

// Decoder wraps encoding/json.Decoder to provide a record-oriented API
// for streaming NDJSON input.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a Decoder from an io.Reader.
func NewDecoder(r io.Reader) *Decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d}
}

// Next reads the next JSON object and converts it into a records.Record.
// A non-object top-level value is an error: malformed input aborts the
// whole batch, there is no per-record quarantine. EOF is returned when
// the stream is exhausted.
func (d *Decoder) Next() (records.Record, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json parser: top-level value is %T, want object", raw)
	}
	return records.Record(obj), nil
}

// DecodeAll reads every record from r. A top-level array of objects is
// expanded; a single object yields one record; NDJSON yields one record
// per line. Empty input yields nil.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := json.NewDecoder(r)
	d.UseNumber()

	var out []records.Record

	var root any
	if err := d.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("json parser: decode root: %w", err)
	}

	switch v := root.(type) {
	case map[string]any:
		out = append(out, records.Record(v))

	case []any:
		for i, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json parser: element %d in array is not an object", i)
			}
			out = append(out, records.Record(obj))
		}

	default:
		return nil, fmt.Errorf("json parser: unsupported top-level JSON type %T", v)
	}

	// Trailing content after the root value is treated as NDJSON.
	dec := &Decoder{dec: d}
	for {
		rec, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}
