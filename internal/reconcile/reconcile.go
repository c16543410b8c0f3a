// Package reconcile brings a live database up to the expected catalog:
// observe, plan, lint, execute, record.
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
	"github.com/davebowl/Canna-spot-mobile/internal/analyzer/rules"
	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/executor"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/metrics"
	"github.com/davebowl/Canna-spot-mobile/internal/migration"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
	"github.com/davebowl/Canna-spot-mobile/internal/tracker"
)

const ledgerTable = "schema_migrations"

// Options controls a reconciler run.
type Options struct {
	DryRun bool
	// Verify probes every item even when the ledger vouches for it.
	Verify bool
	// Lint parses the plan's Postgres DDL and reports lock hazards.
	Lint bool
	// Force runs a plan even when lint findings reach Threshold.
	Force bool
	// Threshold is the lowest severity that blocks a run. Zero means High.
	Threshold analyzer.Severity

	LockTimeout      time.Duration
	StatementTimeout time.Duration
	OnProgress       func(executor.ProgressEvent)
}

// Result is everything a run learned and did.
type Result struct {
	Plan     *migration.Plan
	Report   *executor.Report
	Findings []analyzer.AnalysisResult
	// Blocked holds the findings that stopped the run, if any.
	Blocked []analyzer.AnalysisResult
	Probes  int
	// Drift lists nullability mismatches the reconciler cannot repair. Only
	// filled on verify runs.
	Drift []introspect.Drift
	// Baselined counts items found in place and newly recorded in the ledger.
	Baselined int
}

// Partial reports whether at least one step failed.
func (r *Result) Partial() bool {
	return r.Report != nil && r.Report.Partial()
}

// Reconciler owns one database handle and the expected catalog.
type Reconciler struct {
	db       *database.DB
	catalog  *schema.Catalog
	ledger   *tracker.Tracker
	analyzer *analyzer.Analyzer
	log      zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

// WithAnalyzer overrides the lint analyzer.
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(r *Reconciler) { r.analyzer = a }
}

// New creates a Reconciler for db and the given catalog.
func New(db *database.DB, cat *schema.Catalog, opts ...Option) *Reconciler {
	r := &Reconciler{
		db:      db,
		catalog: cat,
		ledger:  tracker.New(db),
		log:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.analyzer == nil {
		r.analyzer = analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))
	}

	return r
}

// Run reconciles the database under the schema lock. The error is non-nil
// for fatal conditions only; failed steps are reported through Result.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	lock, err := database.AcquireLock(ctx, r.db)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			r.log.Warn().Err(err).Msg("releasing schema lock")
		}
	}()

	if !opts.DryRun {
		if err := r.ledger.EnsureTable(ctx); err != nil {
			return nil, err
		}
	}

	res, obs, err := r.plan(ctx, opts.Verify)
	if err != nil {
		return nil, err
	}

	if opts.Lint {
		if err := r.lint(res, opts); err != nil {
			return res, err
		}
	}

	exec := executor.New(r.db, r.ledger,
		executor.WithDryRun(opts.DryRun),
		executor.WithLockTimeout(opts.LockTimeout),
		executor.WithStatementTimeout(opts.StatementTimeout),
		executor.WithCatalogVersion(r.catalog.Version),
		executor.WithProgressCallback(r.progress(opts.OnProgress)),
	)

	report, err := exec.Apply(ctx, res.Plan)
	res.Report = report

	if err != nil {
		return res, fmt.Errorf("applying plan: %w", err)
	}

	if opts.DryRun || len(obs.Baseline) == 0 {
		return res, nil
	}

	if err := r.recordBaseline(ctx, obs.Baseline); err != nil {
		return res, err
	}

	res.Baselined = len(obs.Baseline)

	return res, nil
}

// Plan observes the database and builds the plan without changing anything.
// Lint findings are included when lint is set.
func (r *Reconciler) Plan(ctx context.Context, verify, lint bool) (*Result, error) {
	res, _, err := r.plan(ctx, verify)
	if err != nil {
		return nil, err
	}

	if lint && r.db.Target.Engine == database.Postgres {
		res.Findings, err = r.analyzer.AnalyzePlan(res.Plan)
		if err != nil {
			return nil, fmt.Errorf("linting plan: %w", err)
		}
	}

	return res, nil
}

func (r *Reconciler) plan(ctx context.Context, verify bool) (*Result, *introspect.Observed, error) {
	in := introspect.New(r.db, r.db.Dialect)

	known, err := r.known(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	obs, err := introspect.Observe(ctx, in, r.catalog, known, verify)
	if err != nil {
		return nil, nil, err
	}

	metrics.ReconcileProbesTotal.Add(float64(obs.Probes))

	plan, err := migration.Build(r.catalog, obs, r.db.Dialect)
	if err != nil {
		return nil, nil, err
	}

	res := &Result{Plan: plan, Probes: obs.Probes}

	if verify {
		if res.Drift, err = introspect.NullabilityDrift(ctx, in, r.catalog); err != nil {
			return nil, nil, err
		}

		for _, d := range res.Drift {
			r.log.Warn().Str("table", d.Table).Str("column", d.Column).
				Msg("column is NOT NULL but the catalog allows NULL")
		}
	}

	r.log.Debug().
		Int("probes", obs.Probes).
		Int("ledger_items", len(known)).
		Int("steps", len(plan.Steps)).
		Msg("plan built")

	return res, obs, nil
}

// known reads the ledger. A database that was never reconciled has no
// ledger table, which is the same as an empty ledger.
func (r *Reconciler) known(ctx context.Context, in introspect.Introspector) (map[string]string, error) {
	exists, err := in.TableExists(ctx, ledgerTable)
	if err != nil {
		return nil, err
	}

	if !exists {
		return map[string]string{}, nil
	}

	return r.ledger.Known(ctx)
}

// lint runs the analyzer over Postgres plans. SQLite DDL is not Postgres
// syntax and takes no comparable locks.
func (r *Reconciler) lint(res *Result, opts Options) error {
	if r.db.Target.Engine != database.Postgres {
		return nil
	}

	findings, err := r.analyzer.AnalyzePlan(res.Plan)
	if err != nil {
		return fmt.Errorf("linting plan: %w", err)
	}

	threshold := opts.Threshold
	if threshold == analyzer.Safe {
		threshold = analyzer.High
	}

	res.Findings = findings
	res.Blocked = analyzer.Blocking(findings, threshold)

	if len(res.Blocked) == 0 {
		return nil
	}

	if opts.Force {
		r.log.Warn().Int("steps", len(res.Blocked)).Msg("running plan with blocking lint findings (forced)")

		return nil
	}

	return fmt.Errorf("%w: %d step(s) at or above %s", ErrPlanBlocked, len(res.Blocked), threshold)
}

func (r *Reconciler) recordBaseline(ctx context.Context, items []schema.Item) error {
	params := make([]tracker.RecordParams, len(items))

	for i, it := range items {
		params[i] = tracker.RecordParams{
			Version:        it.ID(),
			Kind:           string(it.Kind),
			Checksum:       it.Checksum(),
			CatalogVersion: r.catalog.Version,
			Status:         tracker.StatusPresent,
		}
	}

	err := database.ExecInTransaction(ctx, r.db.DB, func(tx *sql.Tx) error {
		return r.ledger.Record(ctx, tx, params...)
	})
	if err != nil {
		return fmt.Errorf("%w: baseline: %w", executor.ErrLedgerWrite, err)
	}

	r.log.Info().Int("items", len(items)).Msg("recorded existing schema in ledger")

	return nil
}

// progress wraps the caller's callback with logging and step metrics.
func (r *Reconciler) progress(next func(executor.ProgressEvent)) func(executor.ProgressEvent) {
	return func(ev executor.ProgressEvent) {
		switch ev.Status {
		case executor.StatusCompleted:
			metrics.ReconcileStepsTotal.WithLabelValues(string(ev.Step.Kind), executor.Applied.String()).Inc()
			r.log.Info().Str("step", ev.Step.Name).Dur("took", ev.Duration).Msg("step applied")
		case executor.StatusSkipped:
			metrics.ReconcileStepsTotal.WithLabelValues(string(ev.Step.Kind), executor.AlreadyPresent.String()).Inc()
			r.log.Info().Str("step", ev.Step.Name).Msg("step target already present")
		case executor.StatusFailed:
			metrics.ReconcileStepsTotal.WithLabelValues(string(ev.Step.Kind), executor.Failed.String()).Inc()
			r.log.Error().Str("step", ev.Step.Name).Err(ev.Error).Msg("step failed")
		}

		if next != nil {
			next(ev)
		}
	}
}
