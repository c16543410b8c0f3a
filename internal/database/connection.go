package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

const defaultMaxConns = 5

// Querier is satisfied by both *sql.DB and *sql.Tx, so helpers can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is an open database handle together with the dialect used to talk to it.
type DB struct {
	*sql.DB
	Target  Target
	Dialect Dialect
}

// Open parses the DATABASE_URL, opens a handle with a conservative
// connection limit, and pings the database to verify connectivity.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	target, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	dialect, err := DialectFor(target.Engine)
	if err != nil {
		return nil, err
	}

	driver := "sqlite"
	if target.Engine == Postgres {
		driver = "pgx"
	}

	sqlDB, err := sql.Open(driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if target.Engine == SQLite {
		// One connection serializes writers and keeps an in-memory
		// database alive for the lifetime of the handle.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(defaultMaxConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// DSN pragmas do not apply to :memory:.
	if target.Memory() {
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			_ = sqlDB.Close()

			return nil, fmt.Errorf("%w: enabling foreign keys: %w", ErrConnectionFailed, err)
		}
	}

	return &DB{DB: sqlDB, Target: target, Dialect: dialect}, nil
}

// Rebind is shorthand for db.Dialect.Rebind.
func (db *DB) Rebind(query string) string {
	return db.Dialect.Rebind(query)
}
