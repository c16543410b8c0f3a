// Package migration turns the difference between the expected and the
// observed schema into an ordered plan of additive steps.
package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// Kind is the action a step performs.
type Kind string

// Step kinds, in the order their phases run.
const (
	CreateTable Kind = "create_table"
	AddColumn   Kind = "add_column"
	CreateIndex Kind = "create_index"
)

// Step is one idempotent action that closes a gap in the live schema.
type Step struct {
	ID    string // ledger id of Target, e.g. "column:user.avatar"
	Kind  Kind
	Table string
	Name  string // "add column user.avatar"
	// Statements run in order. Transactional steps run them in a single
	// transaction together with the ledger update.
	Statements    []string
	Transactional bool
	// Target is re-probed when the step fails to tell "already there" from
	// a genuine failure.
	Target schema.Item
	// Covers lists every ledger item the step brings into existence.
	Covers   []schema.Item
	Checksum string // SHA-256 hex digest of Statements
}

// SQL returns the statements joined for display.
func (s Step) SQL() string {
	return strings.Join(s.Statements, ";\n") + ";"
}

// Plan is the ordered sequence of steps for one reconciler run.
type Plan struct {
	CatalogVersion string
	Steps          []Step
}

// Empty reports whether the live schema already satisfies the catalog.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Steps) == 0
}

// ComputeChecksum returns the SHA-256 hex digest of the given SQL string.
func ComputeChecksum(sql string) string {
	h := sha256.Sum256([]byte(sql))

	return hex.EncodeToString(h[:])
}
