package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/reconcile"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the steps migrate would run",
		Long: `Observe the live database and print the ordered steps needed to match the
CannaSpot model. Nothing is changed. With --lint, Postgres steps are checked
for lock hazards.`,
		Args: cobra.NoArgs,
		RunE: runPlan,
	}

	cmd.Flags().Bool("verify", false, "probe every item even when the ledger vouches for it")
	cmd.Flags().Bool("lint", false, "report lock hazards of the planned DDL (Postgres only)")

	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	verify, _ := cmd.Flags().GetBool("verify")
	lint, _ := cmd.Flags().GetBool("lint")

	res, err := newReconciler(db, AppConfig).Plan(ctx, verify, lint)
	if err != nil {
		return err
	}

	return printPlan(cmd, res)
}

type planResult struct {
	CatalogVersion string        `json:"catalog_version"`
	Probes         int           `json:"probes"`
	Steps          []stepView    `json:"steps"`
	Findings       []findingView `json:"findings,omitempty"`

	Drift []introspect.Drift `json:"drift,omitempty"`
}

func printPlan(cmd *cobra.Command, res *reconcile.Result) error {
	out := cmd.OutOrStdout()

	if jsonOutput() {
		return writeJSON(out, planResult{
			CatalogVersion: res.Plan.CatalogVersion,
			Probes:         res.Probes,
			Steps:          planSteps(res.Plan),
			Findings:       findingViews(res.Findings),
			Drift:          res.Drift,
		})
	}

	if res.Plan.Empty() {
		fmt.Fprintf(out, "Schema is up to date (catalog version %s, %d probe(s)).\n",
			res.Plan.CatalogVersion, res.Probes)
		printDrift(out, res.Drift)

		return nil
	}

	fmt.Fprintf(out, "Plan for catalog version %s (%d probe(s)):\n\n", res.Plan.CatalogVersion, res.Probes)

	for i, s := range res.Plan.Steps {
		fmt.Fprintf(out, "  %d. %s\n", i+1, s.Name)

		for _, stmt := range s.Statements {
			fmt.Fprintf(out, "       %s;\n", stmt)
		}
	}

	if len(res.Findings) > 0 {
		printFindings(out, res.Findings)
	}

	printDrift(out, res.Drift)
	fmt.Fprintf(out, "\n%d step(s) pending. Run migrate to apply.\n", len(res.Plan.Steps))

	return nil
}
