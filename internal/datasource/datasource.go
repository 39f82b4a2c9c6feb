// Package datasource abstracts where raw JSON input comes from.
//
// Both input trees (song catalog, event logs) are addressed the same
// way: a prefix is listed recursively for .json keys, and each key is
// opened as a stream. Implementations live in subpackages (file, s3).
package datasource

import (
	"context"
	"io"
)

// Source lists and opens raw JSON objects.
type Source interface {
	// List returns all .json keys under prefix, recursively, in
	// lexicographic order. The ordering is part of the contract: it keeps
	// record order, and therefore dedup winners, stable across runs.
	List(ctx context.Context, prefix string) ([]string, error)

	// Open opens a single key returned by List for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
