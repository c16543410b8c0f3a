package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
	"github.com/davebowl/Canna-spot-mobile/internal/analyzer/rules"
	"github.com/davebowl/Canna-spot-mobile/internal/config"
	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/executor"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/logging"
	"github.com/davebowl/Canna-spot-mobile/internal/reconcile"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// errDangerousSteps is returned when migrate is blocked by lint findings.
var errDangerousSteps = errors.New("migrate aborted: dangerous steps detected (use --force to override)")

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Long: `Compare the live database with the CannaSpot model and apply the missing
tables, columns and indexes. Each step commits on its own; a failed step is
reported and the rest still run. Exits 2 when any step failed.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	cmd.Flags().Bool("force", false, "run even when lint findings reach the threshold")
	cmd.Flags().Bool("verify", false, "probe every item even when the ledger vouches for it")
	cmd.Flags().String("threshold", "high", "lowest lint severity that blocks a run")
	cmd.Flags().Duration("lock-timeout", 0, "override lock timeout (e.g., 10s, 1m)")
	cmd.Flags().Duration("statement-timeout", 0, "override statement timeout (e.g., 30s, 5m)")

	return cmd
}

type migrateOpts struct {
	dryRun      bool
	force       bool
	verify      bool
	threshold   analyzer.Severity
	lockTimeout time.Duration
	stmtTimeout time.Duration
}

func migrateOptions(cmd *cobra.Command, cfg *config.Config) (migrateOpts, error) {
	opts := migrateOpts{
		lockTimeout: cfg.LockTimeout,
		stmtTimeout: cfg.StatementTimeout,
	}

	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.force, _ = cmd.Flags().GetBool("force")
	opts.verify, _ = cmd.Flags().GetBool("verify")

	label, _ := cmd.Flags().GetString("threshold")

	threshold, err := analyzer.ParseSeverity(label)
	if err != nil {
		return opts, err
	}

	opts.threshold = threshold

	if cmd.Flags().Changed("lock-timeout") {
		opts.lockTimeout, _ = cmd.Flags().GetDuration("lock-timeout")
	}

	if cmd.Flags().Changed("statement-timeout") {
		opts.stmtTimeout, _ = cmd.Flags().GetDuration("statement-timeout")
	}

	return opts, nil
}

func newReconciler(db *database.DB, cfg *config.Config) *reconcile.Reconciler {
	return reconcile.New(db, schema.CannaSpot(),
		reconcile.WithLogger(logging.Component(appLog, "reconcile")),
		reconcile.WithAnalyzer(analyzer.New(
			analyzer.WithRegistry(rules.NewDefaultRegistry()),
			analyzer.WithPGVersion(cfg.TargetPGVersion),
		)),
	)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	opts, err := migrateOptions(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	return executeMigrate(cmd, newReconciler(db, cfg), opts)
}

func executeMigrate(cmd *cobra.Command, rec *reconcile.Reconciler, opts migrateOpts) error {
	out := cmd.OutOrStdout()
	text := !jsonOutput()

	runOpts := reconcile.Options{
		DryRun:           opts.dryRun,
		Verify:           opts.verify,
		Lint:             true,
		Force:            opts.force || opts.dryRun,
		Threshold:        opts.threshold,
		LockTimeout:      opts.lockTimeout,
		StatementTimeout: opts.stmtTimeout,
	}

	if text {
		runOpts.OnProgress = textProgress(out)

		if opts.dryRun {
			fmt.Fprintln(out, "--- DRY RUN (no changes will be made) ---")
		}
	}

	res, err := rec.Run(commandContext(cmd), runOpts)
	if errors.Is(err, reconcile.ErrPlanBlocked) {
		if text {
			printFindings(out, res.Blocked)
		} else if jerr := writeJSON(out, migrateView(res, opts.dryRun)); jerr != nil {
			return jerr
		}

		return errDangerousSteps
	}

	if err != nil {
		return err
	}

	if text {
		printMigrateSummary(out, res, opts.dryRun)
	} else if err := writeJSON(out, migrateView(res, opts.dryRun)); err != nil {
		return err
	}

	if res.Partial() {
		return &ExitError{Code: ExitPartial, Err: fmt.Errorf("%w: %d of %d", errPartial,
			len(res.Report.Failed()), res.Report.Attempted())}
	}

	return nil
}

// textProgress prints one line per step as the executor reports it.
func textProgress(out io.Writer) func(executor.ProgressEvent) {
	return func(event executor.ProgressEvent) {
		switch event.Status {
		case executor.StatusStarting:
			fmt.Fprintf(out, "  Applying %s ... ", event.Step.Name)
		case executor.StatusCompleted:
			fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
		case executor.StatusSkipped:
			fmt.Fprintln(out, "already present")
		case executor.StatusFailed:
			fmt.Fprintln(out, "FAILED")
			fmt.Fprintf(out, "    Error: %v\n", event.Error)
		case executor.StatusDryRun:
			fmt.Fprintf(out, "  Would apply %s\n", event.Step.Name)

			for _, stmt := range event.Step.Statements {
				fmt.Fprintf(out, "    %s;\n", stmt)
			}
		}
	}
}

func printMigrateSummary(out io.Writer, res *reconcile.Result, dryRun bool) {
	if len(res.Findings) > 0 {
		printFindings(out, res.Findings)
	}

	if res.Plan.Empty() {
		fmt.Fprintln(out, "Schema is up to date.")
	}

	r := res.Report

	switch {
	case dryRun:
		fmt.Fprintf(out, "\nDry run complete: %d step(s) would be applied.\n", len(res.Plan.Steps))
	case r != nil:
		fmt.Fprintf(out, "\nMigrate complete: %d applied, %d already present, %d failed.\n",
			r.Applied(), r.AlreadyPresent(), len(r.Failed()))
	}

	if res.Baselined > 0 {
		fmt.Fprintf(out, "Recorded %d existing item(s) in the ledger.\n", res.Baselined)
	}

	printDrift(out, res.Drift)

	if r == nil {
		return
	}

	for _, f := range r.Failed() {
		fmt.Fprintf(out, "  failed: %s: %s\n", f.Step.Name, f.Reason)
	}
}

type migrateResult struct {
	DryRun         bool          `json:"dry_run"`
	Probes         int           `json:"probes"`
	Applied        int           `json:"applied"`
	AlreadyPresent int           `json:"already_present"`
	Failed         int           `json:"failed"`
	Baselined      int           `json:"baselined"`
	Blocked        bool          `json:"blocked"`
	Steps          []stepView    `json:"steps"`
	Findings       []findingView `json:"findings,omitempty"`

	Drift []introspect.Drift `json:"drift,omitempty"`
}

func migrateView(res *reconcile.Result, dryRun bool) migrateResult {
	v := migrateResult{
		DryRun:    dryRun,
		Probes:    res.Probes,
		Baselined: res.Baselined,
		Blocked:   len(res.Blocked) > 0,
		Findings:  findingViews(res.Findings),
		Drift:     res.Drift,
	}

	if r := res.Report; r != nil {
		v.Applied = r.Applied()
		v.AlreadyPresent = r.AlreadyPresent()
		v.Failed = len(r.Failed())
		v.Steps = reportSteps(r)
	} else if res.Plan != nil {
		v.Steps = planSteps(res.Plan)
	}

	return v
}
