// Package tracker owns the schema_migrations ledger: one row per expected
// table, column or index known to exist, keyed by its item ID.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

// Ledger row statuses.
const (
	// StatusApplied marks items created by a reconciler step.
	StatusApplied = "applied"
	// StatusPresent marks items found already in place, either by
	// introspection or because their step hit an existing object.
	StatusPresent = "present"
)

// AppliedMigration represents a row from the schema_migrations table.
type AppliedMigration struct {
	Version        string
	Kind           string
	Checksum       string
	CatalogVersion string
	AppliedAt      time.Time
	DurationMs     int
	Status         string
}

// RecordParams contains the fields needed to record an item in the ledger.
type RecordParams struct {
	Version        string
	Kind           string
	Checksum       string
	CatalogVersion string
	DurationMs     int
	Status         string
}

// Tracker manages the schema_migrations table.
type Tracker struct {
	db  *database.DB
	now func() time.Time
}

// New creates a Tracker backed by the given database.
func New(db *database.DB) *Tracker {
	return &Tracker{db: db, now: time.Now}
}

// EnsureTable creates the schema_migrations table if it does not exist.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// Known returns the checksum of every item recorded in the ledger, keyed by
// item ID.
func (t *Tracker) Known(ctx context.Context) (map[string]string, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}
	defer rows.Close()

	known := make(map[string]string)

	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", ErrLedgerRead, err)
		}

		known[version] = checksum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}

	return known, nil
}

// GetApplied returns every ledger row ordered by time recorded, then version.
func (t *Tracker) GetApplied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT version, kind, checksum, catalog_version, applied_at, duration_ms, status
		 FROM schema_migrations
		 ORDER BY applied_at, version`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}
	defer rows.Close()

	var applied []AppliedMigration

	for rows.Next() {
		var (
			m  AppliedMigration
			at database.Time
		)

		if err := rows.Scan(&m.Version, &m.Kind, &m.Checksum, &m.CatalogVersion, &at, &m.DurationMs, &m.Status); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", ErrLedgerRead, err)
		}

		m.AppliedAt = at.Time
		applied = append(applied, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}

	return applied, nil
}

// Record upserts ledger rows through q, which may be the transaction that
// applied the corresponding step. An empty Status records StatusApplied.
func (t *Tracker) Record(ctx context.Context, q database.Querier, params ...RecordParams) error {
	at := t.now().UTC().Format(time.RFC3339Nano)
	query := t.db.Rebind(upsertSQL)

	for _, p := range params {
		status := p.Status
		if status == "" {
			status = StatusApplied
		}

		if _, err := q.ExecContext(ctx, query,
			p.Version, p.Kind, p.Checksum, p.CatalogVersion, at, p.DurationMs, status,
		); err != nil {
			return fmt.Errorf("recording %s as %s: %w", p.Version, status, err)
		}
	}

	return nil
}
