// Package bootstrap creates every expected table that does not exist yet
// and fills fresh tables with default rows.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
	"github.com/davebowl/Canna-spot-mobile/internal/seed"
)

// Options controls a bootstrap run.
type Options struct {
	// Seed inserts default rows into empty tables after creation.
	Seed bool
	// Sets overrides the default seed sets.
	Sets []seed.Set
	// LockWait bounds how long to wait for a schema lock held elsewhere.
	LockWait time.Duration
	// SkipIfLocked turns a lock still busy after LockWait into a skipped run
	// instead of an error. Whoever holds the lock is creating the schema.
	SkipIfLocked bool
}

// Result reports the tables present after creation and the seed outcomes.
type Result struct {
	Tables []string
	Seeded []seed.Outcome
	// LockBusy is set when the run was skipped under SkipIfLocked.
	LockBusy bool
}

// Run creates the catalog's tables and indexes in dependency order inside a
// single transaction. Existing tables are left untouched; missing columns on
// them are the reconciler's job.
func Run(ctx context.Context, db *database.DB, cat *schema.Catalog, opts Options, log zerolog.Logger) (*Result, error) {
	lock, err := database.WaitForLock(ctx, db, opts.LockWait)
	if errors.Is(err, database.ErrLockNotAcquired) && opts.SkipIfLocked {
		log.Warn().Dur("waited", opts.LockWait).Msg("schema lock busy, skipping table creation")

		return &Result{LockBusy: true}, nil
	}

	if err != nil {
		return nil, err
	}

	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("releasing schema lock")
		}
	}()

	ordered, err := schema.DependencyOrder(cat.Tables)
	if err != nil {
		return nil, err
	}

	err = database.ExecInTransaction(ctx, db.DB, func(tx *sql.Tx) error {
		for _, t := range ordered {
			if _, err := tx.ExecContext(ctx, db.Dialect.CreateTable(t, true)); err != nil {
				return fmt.Errorf("%w: table %s: %w", ErrCreateFailed, t.Name, err)
			}

			for _, ix := range t.Indexes {
				if _, err := tx.ExecContext(ctx, db.Dialect.CreateIndex(ix, true, false)); err != nil {
					return fmt.Errorf("%w: index %s: %w", ErrCreateFailed, ix.Name, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Tables: make([]string, len(ordered))}
	for i, t := range ordered {
		res.Tables[i] = t.Name
	}

	log.Info().Int("tables", len(ordered)).Msg("tables ensured")

	if !opts.Seed {
		return res, nil
	}

	sets := opts.Sets
	if sets == nil {
		sets = seed.Defaults()
	}

	res.Seeded, err = seed.Seed(ctx, db, sets...)
	if err != nil {
		return res, err
	}

	for _, o := range res.Seeded {
		if o.Inserted > 0 {
			log.Info().Str("table", o.Table).Int("rows", o.Inserted).Msg("seeded default rows")
		}
	}

	return res, nil
}
