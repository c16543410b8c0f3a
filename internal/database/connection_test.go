package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/database/databasetest"
)

func TestOpen_invalidURL_returnsInvalidURLError(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), "not-a-valid-url")

	require.ErrorIs(t, err, database.ErrInvalidDatabaseURL)
}

func TestOpen_emptyURL_returnsError(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), "")

	require.Error(t, err)
}

func TestOpen_memory_enablesForeignKeys(t *testing.T) {
	t.Parallel()

	db := databasetest.OpenMemory(t)

	var on int
	require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&on))

	assert.Equal(t, 1, on)
	assert.Equal(t, database.SQLite, db.Dialect.Engine())
}

func TestOpen_memory_isPrivatePerHandle(t *testing.T) {
	t.Parallel()

	a := databasetest.OpenMemory(t)
	b := databasetest.OpenMemory(t)

	databasetest.Exec(t, a, "CREATE TABLE only_in_a (id INTEGER)")

	var n int
	require.NoError(t, b.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE name = 'only_in_a'").Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_file_createsDatabase(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/app.db"

	db, err := database.Open(context.Background(), "sqlite:///"+path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Target.Path)
	assert.FileExists(t, path)
}

func TestAcquireLock_sqlite_isNoop(t *testing.T) {
	t.Parallel()

	db := databasetest.OpenMemory(t)
	ctx := context.Background()

	first, err := database.AcquireLock(ctx, db)
	require.NoError(t, err)

	second, err := database.AcquireLock(ctx, db)
	require.NoError(t, err)

	require.NoError(t, first.Release(ctx))
	require.NoError(t, second.Release(ctx))
}

func TestWaitForLock_sqlite_returnsImmediately(t *testing.T) {
	t.Parallel()

	db := databasetest.OpenMemory(t)
	ctx := context.Background()

	start := time.Now()
	lock, err := database.WaitForLock(ctx, db, time.Minute)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), database.LockRetryInterval)
	require.NoError(t, lock.Release(ctx))
}

func TestExecInTransaction(t *testing.T) {
	t.Parallel()

	db := databasetest.OpenMemory(t)
	ctx := context.Background()
	databasetest.Exec(t, db, "CREATE TABLE t (v INTEGER)")

	require.NoError(t, database.ExecInTransaction(ctx, db.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (1)")
		return err
	}))

	boom := errors.New("boom")
	err := database.ExecInTransaction(ctx, db.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (2)"); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&n))
	assert.Equal(t, 1, n)
}
