// Package executor applies a migration plan step by step, committing each
// step on its own and classifying every outcome.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/migration"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
	"github.com/davebowl/Canna-spot-mobile/internal/tracker"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusDryRun    = "dry-run"
)

// ProgressEvent is emitted by the executor for each step processed.
type ProgressEvent struct {
	Step     *migration.Step
	Status   string
	Duration time.Duration
	Error    error
}

// Ledger abstracts schema_migrations writes for testability.
type Ledger interface {
	Record(ctx context.Context, q database.Querier, params ...tracker.RecordParams) error
}

// stepExecFunc executes a step's statements and, on success, its ledger rows.
type stepExecFunc func(ctx context.Context, s *migration.Step, record func(q database.Querier) error) error

// Executor applies plan steps with per-step transactions, timeouts and
// typed outcomes. Failure of one step never stops the remaining steps; only
// an introspection failure or cancellation aborts the run.
type Executor struct {
	db               *database.DB
	ledger           Ledger
	introspector     introspect.Introspector
	lockTimeout      time.Duration
	statementTimeout time.Duration
	dryRun           bool
	catalogVersion   string
	onProgress       func(ProgressEvent)
	execStep         stepExecFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithLockTimeout sets the per-transaction lock_timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Executor) { e.lockTimeout = d }
}

// WithStatementTimeout sets the per-transaction statement_timeout.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.statementTimeout = d }
}

// WithDryRun enables dry-run mode where no SQL is executed.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithProgressCallback sets a function called for each step processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// WithCatalogVersion stamps ledger rows with the catalog revision.
func WithCatalogVersion(v string) Option {
	return func(e *Executor) { e.catalogVersion = v }
}

// WithIntrospector overrides the introspector used to classify failures.
func WithIntrospector(in introspect.Introspector) Option {
	return func(e *Executor) { e.introspector = in }
}

// New creates an Executor writing to db and recording into ledger.
func New(db *database.DB, ledger Ledger, opts ...Option) *Executor {
	e := &Executor{
		db:     db,
		ledger: ledger,
	}

	for _, opt := range opts {
		opt(e)
	}

	// Set defaults for injectable functions after options are applied,
	// so tests can override them via options.
	if e.introspector == nil {
		e.introspector = introspect.New(db, db.Dialect)
	}

	if e.execStep == nil {
		e.execStep = e.executeStep
	}

	return e
}

// Apply runs every step of the plan in order and returns a report of
// outcomes. The error is non-nil only when the run had to stop early: the
// context was cancelled, a failed step could not be classified because the
// catalog was unreadable, or the ledger could not be written. The report
// covers the steps processed up to that point.
func (e *Executor) Apply(ctx context.Context, plan *migration.Plan) (*Report, error) {
	report := &Report{}

	if plan.Empty() {
		return report, nil
	}

	for i := range plan.Steps {
		res, err := e.applyOne(ctx, &plan.Steps[i])
		if res != nil {
			report.Results = append(report.Results, *res)
		}

		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// applyOne executes a step and classifies the outcome.
func (e *Executor) applyOne(ctx context.Context, s *migration.Step) (*StepResult, error) {
	if e.dryRun {
		e.fireProgress(ProgressEvent{Step: s, Status: StatusDryRun})

		return &StepResult{Step: *s, Outcome: DryRun}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.fireProgress(ProgressEvent{Step: s, Status: StatusStarting})

	start := time.Now()
	execErr := e.execStep(ctx, s, func(q database.Querier) error {
		return e.record(ctx, q, s.Covers, tracker.StatusApplied, time.Since(start))
	})
	duration := time.Since(start)

	if execErr == nil {
		e.fireProgress(ProgressEvent{Step: s, Status: StatusCompleted, Duration: duration})

		return &StepResult{Step: *s, Outcome: Applied, Duration: duration}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.classifyFailure(ctx, s, execErr, duration)
}

// classifyFailure re-probes the step's target. A target that exists means a
// concurrent or earlier run got there first; that is success, not failure.
func (e *Executor) classifyFailure(ctx context.Context, s *migration.Step, execErr error, duration time.Duration) (*StepResult, error) {
	present, err := e.targetExists(ctx, s.Target)
	if err != nil {
		e.fireProgress(ProgressEvent{Step: s, Status: StatusFailed, Duration: duration, Error: err})

		return &StepResult{Step: *s, Outcome: Failed, Reason: execErr.Error(), Duration: duration},
			fmt.Errorf("classifying failure of %s: %w", s.Name, err)
	}

	if !present {
		e.fireProgress(ProgressEvent{Step: s, Status: StatusFailed, Duration: duration, Error: execErr})

		return &StepResult{Step: *s, Outcome: Failed, Reason: execErr.Error(), Duration: duration}, nil
	}

	if err := e.record(ctx, e.db, []schema.Item{s.Target}, tracker.StatusPresent, duration); err != nil {
		return &StepResult{Step: *s, Outcome: AlreadyPresent, Duration: duration}, err
	}

	e.fireProgress(ProgressEvent{Step: s, Status: StatusSkipped, Duration: duration})

	return &StepResult{Step: *s, Outcome: AlreadyPresent, Duration: duration}, nil
}

func (e *Executor) targetExists(ctx context.Context, it schema.Item) (bool, error) {
	switch it.Kind {
	case schema.KindTable:
		return e.introspector.TableExists(ctx, it.Table)
	case schema.KindColumn:
		return e.introspector.ColumnExists(ctx, it.Table, it.Column.Name)
	case schema.KindIndex:
		return e.introspector.IndexExists(ctx, it.Index.Name)
	default:
		return false, nil
	}
}

func (e *Executor) record(ctx context.Context, q database.Querier, items []schema.Item, status string, d time.Duration) error {
	params := make([]tracker.RecordParams, len(items))

	for i, it := range items {
		params[i] = tracker.RecordParams{
			Version:        it.ID(),
			Kind:           string(it.Kind),
			Checksum:       it.Checksum(),
			CatalogVersion: e.catalogVersion,
			DurationMs:     int(d.Milliseconds()),
			Status:         status,
		}
	}

	if err := e.ledger.Record(ctx, q, params...); err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}

	return nil
}

// executeStep runs a step inside a transaction with timeouts, or directly
// when the step cannot run in one.
func (e *Executor) executeStep(ctx context.Context, s *migration.Step, record func(q database.Querier) error) error {
	if !s.Transactional {
		return execWithoutTransaction(ctx, e.db, s.Statements, record)
	}

	return execInTransaction(ctx, e.db, func(tx *sql.Tx) error {
		return SetTimeouts(ctx, tx, e.db.Dialect, e.lockTimeout, e.statementTimeout)
	}, s.Statements, record)
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}
