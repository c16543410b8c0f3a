package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Engine names a supported SQL engine.
type Engine string

// Supported engines.
const (
	SQLite   Engine = "sqlite"
	Postgres Engine = "postgres"
)

const memoryPath = ":memory:"

// Target is a parsed DATABASE_URL.
type Target struct {
	Engine Engine
	// DSN is what gets handed to the database/sql driver.
	DSN string
	// Path is the SQLite database file, empty for in-memory databases.
	Path string
}

// Memory reports whether the target is an in-memory SQLite database.
func (t Target) Memory() bool {
	return t.Engine == SQLite && t.Path == ""
}

// ParseURL parses a DATABASE_URL. SQLite URLs follow the SQLAlchemy form:
// sqlite:///relative.db, sqlite:////absolute/path.db, and sqlite:// or
// sqlite:///:memory: for a private in-memory database. Postgres URLs use the
// postgres:// or postgresql:// scheme.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case raw == "":
		return Target{}, fmt.Errorf("%w: empty URL", ErrInvalidDatabaseURL)
	case strings.HasPrefix(raw, "sqlite://"):
		return parseSQLite(strings.TrimPrefix(raw, "sqlite://"))
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, err := pgx.ParseConfig(raw); err != nil {
			return Target{}, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
		}

		return Target{Engine: Postgres, DSN: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return Target{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidDatabaseURL, raw)
	}

	return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedEngine, u.Scheme)
}

func parseSQLite(rest string) (Target, error) {
	path, query, _ := strings.Cut(rest, "?")

	switch {
	case path == "", path == "/", path == "/"+memoryPath:
		return Target{Engine: SQLite, DSN: memoryPath}, nil
	case !strings.HasPrefix(path, "/"):
		// sqlite://host/... has no meaning for a file database.
		return Target{}, fmt.Errorf("%w: sqlite URL needs three slashes", ErrInvalidDatabaseURL)
	}

	// Strip the separator slash. A fourth slash survives and makes the path absolute.
	path = strings.TrimPrefix(path, "/")

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if query != "" {
		dsn += "&" + query
	}

	return Target{Engine: SQLite, DSN: dsn, Path: path}, nil
}
