package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

type postgresDialect struct{}

func (postgresDialect) Engine() Engine { return Postgres }

func (postgresDialect) Quote(ident string) string { return quoteIdent(ident) }

// Rebind rewrites ? placeholders to $1, $2, ... Queries in this module never
// contain a literal question mark.
func (postgresDialect) Rebind(query string) string {
	var b strings.Builder

	n := 0

	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func (postgresDialect) ColumnType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.Integer:
		return "INTEGER"
	case schema.String:
		return "VARCHAR(" + itoa(t.Length) + ")"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.DateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (d postgresDialect) CreateTable(t schema.Table, ifNotExists bool) string {
	return createTable(d, t, ifNotExists, "SERIAL PRIMARY KEY", "TRUE", "FALSE")
}

func (d postgresDialect) AddColumn(table string, c schema.Column) string {
	return addColumn(d, table, c, func(schema.Default) bool { return true }, "TRUE", "FALSE")
}

func (d postgresDialect) CreateIndex(ix schema.Index, ifNotExists, concurrently bool) string {
	return createIndex(d, ix, ifNotExists, concurrently)
}

func (d postgresDialect) DropInvalidIndex(name string) string {
	return "DROP INDEX CONCURRENTLY IF EXISTS " + d.Quote(name)
}

func (postgresDialect) SupportsConcurrentIndex() bool { return true }

func (postgresDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name = ?`
}

func (postgresDialect) ColumnExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
}

func (postgresDialect) NotNullColumnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ? AND is_nullable = 'NO'`
}

// IndexExistsQuery ignores invalid indexes left behind by a failed
// CREATE INDEX CONCURRENTLY.
func (postgresDialect) IndexExistsQuery() string {
	return `SELECT COUNT(*) FROM pg_class c
JOIN pg_index i ON i.indexrelid = c.oid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = current_schema() AND c.relname = ? AND i.indisvalid`
}

func (postgresDialect) TimeoutStatements(lockTimeout, statementTimeout time.Duration) []string {
	var stmts []string

	if lockTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds()))
	}

	if statementTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", statementTimeout.Milliseconds()))
	}

	return stmts
}

func (postgresDialect) TimeArg(t time.Time) any {
	return t.UTC()
}
