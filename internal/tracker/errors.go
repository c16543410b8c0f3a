package tracker

import "errors"

// ErrTableCreation indicates the schema_migrations table could not be created.
var ErrTableCreation = errors.New("creating schema_migrations table")

// ErrLedgerRead indicates the ledger exists but could not be read.
var ErrLedgerRead = errors.New("reading schema_migrations")
