package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/tracker"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show reconcile status",
		Long: `Display the ledger of schema items the reconciler has applied or found in
place, and how many steps are still pending.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

type ledgerView struct {
	Item           string    `json:"item"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	CatalogVersion string    `json:"catalog_version"`
	RecordedAt     time.Time `json:"recorded_at"`
	DurationMs     int       `json:"duration_ms"`
}

type statusResult struct {
	Engine  string       `json:"engine"`
	Ledger  []ledgerView `json:"ledger"`
	Pending []stepView   `json:"pending"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	exists, err := introspect.New(db, db.Dialect).TableExists(ctx, "schema_migrations")
	if err != nil {
		return err
	}

	var applied []tracker.AppliedMigration

	if exists {
		applied, err = tracker.New(db).GetApplied(ctx)
		if err != nil {
			return err
		}
	}

	res, err := newReconciler(db, AppConfig).Plan(ctx, false, false)
	if err != nil {
		return err
	}

	view := statusResult{Engine: string(db.Target.Engine), Pending: planSteps(res.Plan)}

	for _, a := range applied {
		view.Ledger = append(view.Ledger, ledgerView{
			Item:           a.Version,
			Kind:           a.Kind,
			Status:         a.Status,
			CatalogVersion: a.CatalogVersion,
			RecordedAt:     a.AppliedAt,
			DurationMs:     a.DurationMs,
		})
	}

	out := cmd.OutOrStdout()

	if jsonOutput() {
		return writeJSON(out, view)
	}

	if len(view.Ledger) == 0 {
		fmt.Fprintln(out, "No reconciler runs recorded.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
		fmt.Fprintln(tw, "ITEM\tSTATUS\tCATALOG\tRECORDED")

		for _, l := range view.Ledger {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Item, l.Status, l.CatalogVersion,
				l.RecordedAt.Local().Format(time.DateTime))
		}

		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\n%d item(s) recorded, %d step(s) pending.\n", len(view.Ledger), len(view.Pending))

	return nil
}
