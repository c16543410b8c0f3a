package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

// execStatements runs each statement through q, stopping at the first error.
func execStatements(ctx context.Context, q database.Querier, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}
	}

	return nil
}

// execInTransaction runs the statements and then record inside one
// transaction, so a step and its ledger rows commit together.
func execInTransaction(ctx context.Context, db *database.DB, setup func(tx *sql.Tx) error,
	stmts []string, record func(q database.Querier) error,
) error {
	return database.ExecInTransaction(ctx, db.DB, func(tx *sql.Tx) error {
		if err := setup(tx); err != nil {
			return err
		}

		if err := execStatements(ctx, tx, stmts); err != nil {
			return err
		}

		return record(tx)
	})
}

// execWithoutTransaction executes statements directly on the pool, outside
// any transaction. Required for statements like CREATE INDEX CONCURRENTLY
// which cannot run inside a transaction block. The ledger is written after
// the statements succeed.
func execWithoutTransaction(ctx context.Context, db *database.DB, stmts []string, record func(q database.Querier) error) error {
	if err := execStatements(ctx, db, stmts); err != nil {
		return err
	}

	return record(db)
}
