// Package config defines the canonical, JSON-serializable configuration
// model for a songlake run. It is intentionally small, explicit, and
// dependency-free so that pipeline files can be loaded from disk and
// passed through the program without additional glue code.
//
// Credentials and paths are plain struct fields handed to the source
// and sink constructors; nothing here mutates the process environment.
//
// Example (trimmed):
//
//	{
//	  "job":    "songlake",
//	  "source": { "kind": "file", "file": { "root": "testdata" } },
//	  "input":  { "song_prefix": "song_data", "log_prefix": "log_data" },
//	  "sink":   { "kind": "file", "file": { "root": "out" } },
//	  "runtime": { "reader_workers": 4 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for logs and metrics labeling.
	Job string `json:"job"`

	// Source describes where raw JSON input comes from.
	Source Source `json:"source"`

	// Input locates the two record trees below the source root.
	Input Input `json:"input"`

	// Sink describes where the Parquet tables are written.
	Sink Sink `json:"sink"`

	// Warehouse optionally loads the same tables into Postgres.
	Warehouse Warehouse `json:"warehouse"`

	// Runtime controls concurrency.
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "s3".
	Kind string `json:"kind"`

	File FileLocation `json:"file"`
	S3   S3Location   `json:"s3"`
}

// Sink identifies the output destination.
type Sink struct {
	// Kind selects the sink implementation: "file" or "s3".
	Kind string `json:"kind"`

	File FileLocation `json:"file"`
	S3   S3Location   `json:"s3"`
}

// FileLocation holds options for the "file" kind.
type FileLocation struct {
	// Root is the local directory below which input prefixes (or
	// output tables) live.
	Root string `json:"root"`
}

// S3Location holds options for the "s3" kind. When the sink leaves
// credential fields empty they are inherited from the source.
type S3Location struct {
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// Input names the two record trees. Both default to the conventional
// dataset layout when empty.
type Input struct {
	SongPrefix string `json:"song_prefix"`
	LogPrefix  string `json:"log_prefix"`
}

// Warehouse configures the optional Postgres load.
type Warehouse struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
	Schema  string `json:"schema"`
}

// RuntimeConfig controls concurrency for the read phase.
type RuntimeConfig struct {
	// ReaderWorkers bounds concurrent input-file fetches. Zero means
	// the default (4).
	ReaderWorkers int `json:"reader_workers"`

	// RowGroupParallel is the parquet marshal parallelism per output
	// file. Zero means the default (2).
	RowGroupParallel int `json:"row_group_parallel"`
}

// Defaults applied by Normalize.
const (
	DefaultSongPrefix       = "song_data"
	DefaultLogPrefix        = "log_data"
	DefaultReaderWorkers    = 4
	DefaultRowGroupParallel = 2
)

// Load reads and decodes a pipeline file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a pipeline definition from r and applies defaults.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	p.Normalize()
	return p, nil
}

// Normalize fills defaulted fields in place.
func (p *Pipeline) Normalize() {
	if p.Input.SongPrefix == "" {
		p.Input.SongPrefix = DefaultSongPrefix
	}
	if p.Input.LogPrefix == "" {
		p.Input.LogPrefix = DefaultLogPrefix
	}
	if p.Runtime.ReaderWorkers <= 0 {
		p.Runtime.ReaderWorkers = DefaultReaderWorkers
	}
	if p.Runtime.RowGroupParallel <= 0 {
		p.Runtime.RowGroupParallel = DefaultRowGroupParallel
	}
	// Sink S3 credentials inherit from the source when unset, so a
	// same-account config is written once.
	if p.Sink.Kind == "s3" && p.Sink.S3.AccessKeyID == "" {
		p.Sink.S3.AccessKeyID = p.Source.S3.AccessKeyID
		p.Sink.S3.SecretAccessKey = p.Source.S3.SecretAccessKey
		if p.Sink.S3.Region == "" {
			p.Sink.S3.Region = p.Source.S3.Region
		}
	}
}
