// Package warehouse implements the optional Postgres load of the star
// schema using pgx v5. Each table is truncated and re-filled via COPY,
// matching the Parquet sink's full-overwrite semantics.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"songlake/internal/schema"
)

// Config holds the warehouse connection settings.
type Config struct {
	// DSN is the connection string for pgxpool.
	DSN string

	// Schema is the target Postgres schema; empty means "public".
	Schema string
}

// Warehouse is a pgx-backed loader for the five output tables.
type Warehouse struct {
	pool   *pgxpool.Pool
	schema string
}

// Open connects to the warehouse and ensures the schema objects exist.
func Open(ctx context.Context, cfg Config) (*Warehouse, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("warehouse: pgxpool: %w", err)
	}
	sch := cfg.Schema
	if sch == "" {
		sch = "public"
	}
	w := &Warehouse{pool: pool, schema: sch}
	if err := w.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the connection pool.
func (w *Warehouse) Close() { w.pool.Close() }

func (w *Warehouse) ensureTables(ctx context.Context) error {
	for _, ddl := range tableDDL {
		stmt := fmt.Sprintf(ddl, pgIdent(w.schema))
		if _, err := w.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("warehouse: ensure tables: %w", err)
		}
	}
	return nil
}

// Load replaces the contents of table with rows. The truncate and COPY
// run in one transaction so a failed load leaves the previous contents
// intact.
func Load[T schema.Row](ctx context.Context, w *Warehouse, table schema.Table, rows []T) (int64, error) {
	fqn := pgx.Identifier{w.schema, table.Name}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("warehouse: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+fqn.Sanitize()); err != nil {
		return 0, fmt.Errorf("warehouse: truncate %s: %w", table.Name, err)
	}

	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = r.Values()
	}
	n, err := tx.CopyFrom(ctx, fqn, table.Columns, pgx.CopyFromRows(vals))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("warehouse: copy %s: %s (%s)", table.Name, pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("warehouse: copy %s: %w", table.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("warehouse: commit %s: %w", table.Name, err)
	}

	log.Printf("warehouse: loaded table=%s rows=%d", table.Name, n)
	return n, nil
}

// pgIdent quotes a single identifier.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
