package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/source"
)

// localDest writes partition files under a root directory.
type localDest struct{ root string }

func (d *localDest) reset(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(d.root, table))
}

func (d *localDest) put(ctx context.Context, relPath string, write func(source.ParquetFile) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs := filepath.Join(d.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(abs), err)
	}
	return writeLocalFile(abs, write)
}
