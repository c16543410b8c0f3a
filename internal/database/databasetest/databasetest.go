// Package databasetest opens isolated databases for unit tests.
package databasetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

// OpenMemory returns a private in-memory SQLite database that is closed when
// the test ends.
func OpenMemory(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), "sqlite://")
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// Exec runs each statement, failing the test on the first error.
func Exec(t *testing.T, db *database.DB, stmts ...string) {
	t.Helper()

	for _, s := range stmts {
		_, err := db.ExecContext(context.Background(), s)
		require.NoError(t, err, s)
	}
}
