// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or
// tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sink.s3.bucket").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does
// not mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateLocation("source", p.Source.Kind, p.Source.File, p.Source.S3)...)
	issues = append(issues, validateLocation("sink", p.Sink.Kind, p.Sink.File, p.Sink.S3)...)
	issues = append(issues, validateWarehouse(p.Warehouse)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateLocation covers the shared shape of source and sink configs.
func validateLocation(path, kind string, file FileLocation, s3 S3Location) []Issue {
	var issues []Issue

	if strings.TrimSpace(kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  path + ".kind must not be empty",
		})
	}

	switch kind {
	case "file":
		if strings.TrimSpace(file.Root) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".file.root",
				Message:  "file " + path + " requires a non-empty root",
			})
		}
	case "s3":
		if strings.TrimSpace(s3.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".s3.bucket",
				Message:  "s3 " + path + " requires a non-empty bucket",
			})
		}
		if strings.TrimSpace(s3.Region) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".s3.region",
				Message:  "no region configured; the SDK default chain must supply one",
			})
		}
		if (s3.AccessKeyID == "") != (s3.SecretAccessKey == "") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".s3",
				Message:  "access_key_id and secret_access_key must be set together",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown %s kind %q (want file or s3)", path, kind),
		})
	}

	return issues
}

func validateWarehouse(w Warehouse) []Issue {
	var issues []Issue
	if !w.Enabled {
		return issues
	}
	if strings.TrimSpace(w.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.dsn",
			Message:  "warehouse is enabled but dsn is empty",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.ReaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.reader_workers",
			Message:  "reader_workers must not be negative",
		})
	}
	if r.RowGroupParallel < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.row_group_parallel",
			Message:  "row_group_parallel must not be negative",
		})
	}
	return issues
}
