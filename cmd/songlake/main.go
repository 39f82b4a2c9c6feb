// Command songlake runs the batch ETL: it reads the song catalog and
// event logs from the configured source, derives the five star-schema
// tables, and writes them as partitioned Parquet (plus an optional
// Postgres warehouse load).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"songlake/internal/config"
	"songlake/internal/datasource"
	dsfile "songlake/internal/datasource/file"
	dss3 "songlake/internal/datasource/s3"
	"songlake/internal/metrics"
	"songlake/internal/metrics/prompush"
	"songlake/internal/pipeline"
	parquetsink "songlake/internal/sink/parquet"
	"songlake/internal/sink/warehouse"
)

// main loads the pipeline config, optionally initializes a metrics
// backend, and executes the run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/songlake.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	initMetrics(p.Job, metricsBackendFlg, pushGatewayURLFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	src, err := buildSource(p.Source)
	if err != nil {
		fatalf("%v", err)
	}
	sink, err := buildSink(p)
	if err != nil {
		fatalf("%v", err)
	}

	var wh *warehouse.Warehouse
	if p.Warehouse.Enabled {
		wh, err = warehouse.Open(ctx, warehouse.Config{DSN: p.Warehouse.DSN, Schema: p.Warehouse.Schema})
		if err != nil {
			fatalf("%v", err)
		}
		defer wh.Close()
	}

	if *verbose {
		log.Printf("pipeline: job=%s source=%s sink=%s warehouse=%t",
			p.Job, p.Source.Kind, p.Sink.Kind, p.Warehouse.Enabled)
	}

	run := &pipeline.Pipeline{
		Job:           p.Job,
		Source:        src,
		Sink:          sink,
		Warehouse:     wh,
		Input:         p.Input,
		ReaderWorkers: p.Runtime.ReaderWorkers,
		Verbose:       *verbose,
	}
	if err := run.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
}

// initMetrics selects the metrics backend: flag, then env, then none.
func initMetrics(job, backendName, gwURL string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%v backend=%v job=%v", gwURL, backendName, job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// buildSource maps source configuration onto a concrete datasource.
func buildSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return dsfile.New(s.File.Root), nil
	case "s3":
		return dss3.New(dss3.Config{
			Bucket:          s.S3.Bucket,
			Region:          s.S3.Region,
			AccessKeyID:     s.S3.AccessKeyID,
			SecretAccessKey: s.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", s.Kind)
	}
}

// buildSink maps sink configuration onto a Parquet writer.
func buildSink(p config.Pipeline) (*parquetsink.Writer, error) {
	parallel := int64(p.Runtime.RowGroupParallel)
	switch p.Sink.Kind {
	case "file":
		return parquetsink.NewLocal(p.Sink.File.Root, parallel), nil
	case "s3":
		return parquetsink.NewS3(parquetsink.S3Config{
			Bucket:          p.Sink.S3.Bucket,
			Prefix:          p.Sink.S3.Prefix,
			Region:          p.Sink.S3.Region,
			AccessKeyID:     p.Sink.S3.AccessKeyID,
			SecretAccessKey: p.Sink.S3.SecretAccessKey,
		}, parallel)
	default:
		return nil, fmt.Errorf("unsupported sink.kind=%s", p.Sink.Kind)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
