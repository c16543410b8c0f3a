// Package introspect reads the live catalog to learn which expected tables,
// columns and indexes already exist.
package introspect

import (
	"context"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

// Introspector answers existence questions about the live schema. A false
// result means the object is absent; an error means the catalog could not be
// read and is always an *Error.
type Introspector interface {
	TableExists(ctx context.Context, table string) (bool, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)
	IndexExists(ctx context.Context, index string) (bool, error)
}

// Catalog is the Introspector backed by the engine's system catalog.
type Catalog struct {
	q       database.Querier
	dialect database.Dialect
}

// New returns a catalog introspector that runs its probes through q.
func New(q database.Querier, d database.Dialect) *Catalog {
	return &Catalog{q: q, dialect: d}
}

// TableExists reports whether the table is present.
func (c *Catalog) TableExists(ctx context.Context, table string) (bool, error) {
	return c.count(ctx, "table", table, c.dialect.TableExistsQuery(), table)
}

// ColumnExists reports whether the column is present. A missing table yields
// false rather than an error.
func (c *Catalog) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	return c.count(ctx, "column", table+"."+column, c.dialect.ColumnExistsQuery(), table, column)
}

// IndexExists reports whether a usable index with this name is present.
func (c *Catalog) IndexExists(ctx context.Context, index string) (bool, error) {
	return c.count(ctx, "index", index, c.dialect.IndexExistsQuery(), index)
}

func (c *Catalog) count(ctx context.Context, probe, object, query string, args ...any) (bool, error) {
	var n int

	if err := c.q.QueryRowContext(ctx, c.dialect.Rebind(query), args...).Scan(&n); err != nil {
		return false, &Error{Probe: probe, Object: object, Err: err}
	}

	return n > 0, nil
}
