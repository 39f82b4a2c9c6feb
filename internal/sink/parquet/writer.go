// Package parquet persists tables as partitioned, Snappy-compressed
// Parquet files, either under a local directory or an S3 prefix.
//
// Writes are total overwrites: the table's destination directory (or
// key prefix) is removed before any partition file is written. Each
// partition gets a single part-00000.parquet; one batch run produces
// one file per partition.
package parquet

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	goparquet "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"songlake/internal/schema"
)

const partFile = "part-00000.parquet"

// destination abstracts where partition files end up.
type destination interface {
	// reset removes everything previously written for the table.
	reset(ctx context.Context, table string) error

	// put creates relPath, hands a parquet file handle to write, and
	// finalizes the object once write returns.
	put(ctx context.Context, relPath string, write func(source.ParquetFile) error) error
}

// Writer writes tables to a single destination.
type Writer struct {
	dest destination

	// parallel is the parquet-go marshal parallelism per file.
	parallel int64
}

// NewLocal returns a Writer that writes below root on the local
// filesystem.
func NewLocal(root string, parallel int64) *Writer {
	if parallel <= 0 {
		parallel = 2
	}
	return &Writer{dest: &localDest{root: root}, parallel: parallel}
}

// WriteTable overwrites table with rows, one file per partition.
// Partitions are written in sorted path order so repeated runs touch
// the destination identically.
func WriteTable[T schema.Row](ctx context.Context, w *Writer, table schema.Table, rows []T) error {
	if err := w.dest.reset(ctx, table.Name); err != nil {
		return fmt.Errorf("overwrite %s: %w", table.Name, err)
	}

	groups := make(map[string][]T)
	for _, row := range rows {
		p := row.Partition()
		groups[p] = append(groups[p], row)
	}
	parts := make([]string, 0, len(groups))
	for p := range groups {
		parts = append(parts, p)
	}
	sort.Strings(parts)

	for _, p := range parts {
		rel := path.Join(table.Name, p, partFile)
		group := groups[p]
		err := w.dest.put(ctx, rel, func(fw source.ParquetFile) error {
			pw, err := writer.NewParquetWriter(fw, new(T), w.parallel)
			if err != nil {
				return fmt.Errorf("parquet writer: %w", err)
			}
			pw.CompressionType = goparquet.CompressionCodec_SNAPPY
			for _, row := range group {
				if err := pw.Write(row); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
			return pw.WriteStop()
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

// writeLocalFile is the shared "create file, run write, close" step
// used by both destinations (the S3 destination stages locally first).
func writeLocalFile(absPath string, write func(source.ParquetFile) error) error {
	fw, err := local.NewLocalFileWriter(absPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", absPath, err)
	}
	if err := write(fw); err != nil {
		fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", absPath, err)
	}
	return nil
}
