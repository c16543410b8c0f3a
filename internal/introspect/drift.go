package introspect

import (
	"context"
	"fmt"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// Drift is an existing column the live database holds as NOT NULL while the
// catalog allows NULL. The reconciler only adds, so it never relaxes such a
// column; inserts that leave it empty fail until an operator rebuilds it.
type Drift struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (d Drift) String() string {
	return d.Table + "." + d.Column + " is NOT NULL in the database but nullable in the catalog"
}

// NotNullColumns returns the NOT NULL columns of table. A missing table has
// none.
func (c *Catalog) NotNullColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := c.q.QueryContext(ctx, c.dialect.Rebind(c.dialect.NotNullColumnsQuery()), table)
	if err != nil {
		return nil, &Error{Probe: "nullability", Object: table, Err: err}
	}
	defer rows.Close()

	out := make(map[string]bool)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &Error{Probe: "nullability", Object: table, Err: err}
		}

		out[name] = true
	}

	if err := rows.Err(); err != nil {
		return nil, &Error{Probe: "nullability", Object: table, Err: fmt.Errorf("reading columns: %w", err)}
	}

	return out, nil
}

// NullabilityDrift compares every nullable catalog column with the live
// table. Primary keys and columns that do not exist yet are skipped.
func NullabilityDrift(ctx context.Context, c *Catalog, cat *schema.Catalog) ([]Drift, error) {
	var out []Drift

	for _, t := range cat.Tables {
		live, err := c.NotNullColumns(ctx, t.Name)
		if err != nil {
			return nil, err
		}

		for _, col := range t.Columns {
			if col.PrimaryKey || col.NotNull {
				continue
			}

			if live[col.Name] {
				out = append(out, Drift{Table: t.Name, Column: col.Name})
			}
		}
	}

	return out, nil
}
