package tracker

// createSchemaSQL is the DDL for the schema_migrations ledger. It is valid on
// both engines; timestamps are stored as RFC 3339 text in UTC.
const createSchemaSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version          TEXT PRIMARY KEY,
    kind             TEXT NOT NULL,
    checksum         TEXT NOT NULL,
    catalog_version  TEXT NOT NULL DEFAULT '',
    applied_at       TEXT NOT NULL,
    duration_ms      INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'applied'
)`

const upsertSQL = `INSERT INTO schema_migrations
    (version, kind, checksum, catalog_version, applied_at, duration_ms, status)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (version) DO UPDATE SET
    kind = excluded.kind,
    checksum = excluded.checksum,
    catalog_version = excluded.catalog_version,
    applied_at = excluded.applied_at,
    duration_ms = excluded.duration_ms,
    status = excluded.status`
