// Package transform derives the five star-schema tables from raw
// catalog and event-log records.
//
// Every function here is a pure projection over its input slice: same
// input, same output (the distinct steps keep the first occurrence, so
// output order follows input order). All set-level semantics live in
// this package; reading and writing are the pipeline's problem.
package transform

import (
	"strings"

	"github.com/zeebo/xxh3"
)

// fieldSep joins tuple fields when building distinct keys. It cannot
// occur in the source data.
const fieldSep = "\x1f"

// distinctBy removes exact duplicates as identified by key, keeping the
// first occurrence and preserving input order. Keys are tracked as
// 128-bit xxh3 digests so large batches don't retain every key string.
func distinctBy[T any](in []T, key func(T) string) []T {
	if len(in) == 0 {
		return in
	}
	seen := make(map[xxh3.Uint128]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		h := xxh3.HashString128(key(v))
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, v)
	}
	return out
}

// tupleKey builds a distinct key from already-stringified fields.
func tupleKey(fields ...string) string {
	return strings.Join(fields, fieldSep)
}
