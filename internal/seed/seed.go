// Package seed inserts default rows into tables that are still empty.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/metrics"
)

// Set is a batch of default rows for one table.
type Set struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Outcome reports what happened to one set.
type Outcome struct {
	Table    string
	Inserted int
	// Skipped is true when the table already held rows.
	Skipped bool
}

// Seed applies each set in its own transaction. A set is inserted only when
// its table is empty at the moment of the check, so repeated runs and runs
// after user edits never duplicate or resurrect rows.
func Seed(ctx context.Context, db *database.DB, sets ...Set) ([]Outcome, error) {
	out := make([]Outcome, 0, len(sets))

	for _, s := range sets {
		o, err := seedOne(ctx, db, s)
		if err != nil {
			return out, err
		}

		out = append(out, o)
	}

	return out, nil
}

func seedOne(ctx context.Context, db *database.DB, s Set) (Outcome, error) {
	o := Outcome{Table: s.Table}
	table := db.Dialect.Quote(s.Table)

	insert := db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, quoteAll(db.Dialect, s.Columns), placeholders(len(s.Columns))))

	err := database.ExecInTransaction(ctx, db.DB, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return fmt.Errorf("%w: counting %s: %w", ErrSeedFailed, s.Table, err)
		}

		if n > 0 {
			o.Skipped = true

			return nil
		}

		for _, row := range s.Rows {
			if _, err := tx.ExecContext(ctx, insert, row...); err != nil {
				return fmt.Errorf("%w: inserting into %s: %w", ErrSeedFailed, s.Table, err)
			}
		}

		o.Inserted = len(s.Rows)

		return nil
	})
	if err != nil {
		return Outcome{Table: s.Table}, err
	}

	metrics.SeedRowsTotal.WithLabelValues(s.Table).Add(float64(o.Inserted))

	return o, nil
}

func quoteAll(d database.Dialect, cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = d.Quote(c)
	}

	return strings.Join(q, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
