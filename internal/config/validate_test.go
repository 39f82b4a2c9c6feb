package config

import "testing"

func validPipeline() Pipeline {
	return Pipeline{
		Job:    "nightly",
		Source: Source{Kind: "file", File: FileLocation{Root: "testdata"}},
		Sink:   Sink{Kind: "file", File: FileLocation{Root: "out"}},
	}
}

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, iss := range issues {
		if iss.Path == path {
			return iss, true
		}
	}
	return Issue{}, false
}

func TestValidatePipelineClean(t *testing.T) {
	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("valid pipeline reported issues: %v", issues)
	}
}

func TestValidatePipelineEmptyJob(t *testing.T) {
	p := validPipeline()
	p.Job = "  "
	iss, ok := findIssue(ValidatePipeline(p), "job")
	if !ok || iss.Severity != SeverityError {
		t.Fatalf("blank job must be an error, got %v", iss)
	}
}

func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Pipeline)
		path     string
		severity IssueSeverity
	}{
		{
			name:     "missing file root",
			mutate:   func(p *Pipeline) { p.Source.File.Root = "" },
			path:     "source.file.root",
			severity: SeverityError,
		},
		{
			name: "missing s3 bucket",
			mutate: func(p *Pipeline) {
				p.Sink = Sink{Kind: "s3", S3: S3Location{Region: "us-west-2"}}
			},
			path:     "sink.s3.bucket",
			severity: SeverityError,
		},
		{
			name: "missing s3 region is a warning",
			mutate: func(p *Pipeline) {
				p.Sink = Sink{Kind: "s3", S3: S3Location{Bucket: "b"}}
			},
			path:     "sink.s3.region",
			severity: SeverityWarning,
		},
		{
			name: "half a credential pair",
			mutate: func(p *Pipeline) {
				p.Source = Source{Kind: "s3", S3: S3Location{
					Bucket: "b", Region: "us-west-2", AccessKeyID: "AKIA123",
				}}
			},
			path:     "source.s3",
			severity: SeverityError,
		},
		{
			name:     "unknown kind",
			mutate:   func(p *Pipeline) { p.Source.Kind = "gcs" },
			path:     "source.kind",
			severity: SeverityError,
		},
		{
			name:     "empty kind",
			mutate:   func(p *Pipeline) { p.Sink.Kind = "" },
			path:     "sink.kind",
			severity: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPipeline()
			tt.mutate(&p)
			iss, ok := findIssue(ValidatePipeline(p), tt.path)
			if !ok {
				t.Fatalf("no issue at %s: %v", tt.path, ValidatePipeline(p))
			}
			if iss.Severity != tt.severity {
				t.Fatalf("issue at %s: severity %s, want %s", tt.path, iss.Severity, tt.severity)
			}
		})
	}
}

func TestValidateWarehouse(t *testing.T) {
	p := validPipeline()
	p.Warehouse = Warehouse{Enabled: true}
	if _, ok := findIssue(ValidatePipeline(p), "warehouse.dsn"); !ok {
		t.Fatal("enabled warehouse without dsn must be an error")
	}

	p.Warehouse = Warehouse{Enabled: false}
	if _, ok := findIssue(ValidatePipeline(p), "warehouse.dsn"); ok {
		t.Fatal("disabled warehouse must not be validated")
	}
}

func TestValidateRuntime(t *testing.T) {
	p := validPipeline()
	p.Runtime.ReaderWorkers = -1
	if _, ok := findIssue(ValidatePipeline(p), "runtime.reader_workers"); !ok {
		t.Fatal("negative reader_workers must be an error")
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "sink.kind", Message: "boom"}
	want := "error at sink.kind: boom"
	if got := iss.Error(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
