package database

import (
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// sqliteTimeLayout sorts lexically in time order and matches CURRENT_TIMESTAMP.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

type sqliteDialect struct{}

func (sqliteDialect) Engine() Engine { return SQLite }

func (sqliteDialect) Quote(ident string) string { return quoteIdent(ident) }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) ColumnType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.Integer:
		return "INTEGER"
	case schema.String:
		return "VARCHAR(" + itoa(t.Length) + ")"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.DateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (d sqliteDialect) CreateTable(t schema.Table, ifNotExists bool) string {
	return createTable(d, t, ifNotExists, "INTEGER PRIMARY KEY AUTOINCREMENT", "1", "0")
}

// AddColumn also drops CURRENT_TIMESTAMP defaults, which SQLite rejects in
// ALTER TABLE ADD COLUMN.
func (d sqliteDialect) AddColumn(table string, c schema.Column) string {
	return addColumn(d, table, c, func(def schema.Default) bool {
		return def.Kind == schema.LiteralDefault
	}, "1", "0")
}

func (d sqliteDialect) CreateIndex(ix schema.Index, ifNotExists, _ bool) string {
	return createIndex(d, ix, ifNotExists, false)
}

func (sqliteDialect) DropInvalidIndex(string) string { return "" }

func (sqliteDialect) SupportsConcurrentIndex() bool { return false }

func (sqliteDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (sqliteDialect) ColumnExistsQuery() string {
	return "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?"
}

func (sqliteDialect) IndexExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?"
}

func (sqliteDialect) NotNullColumnsQuery() string {
	return `SELECT name FROM pragma_table_info(?) WHERE "notnull" = 1`
}

// SQLite has no per-statement lock timeout; busy_timeout is set on the DSN.
func (sqliteDialect) TimeoutStatements(_, _ time.Duration) []string { return nil }

func (sqliteDialect) TimeArg(t time.Time) any {
	return t.UTC().Format(sqliteTimeLayout)
}
