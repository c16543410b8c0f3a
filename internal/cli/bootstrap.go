package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/bootstrap"
	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/logging"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create missing tables and seed defaults",
		Long: `Create every CannaSpot table and index that does not exist yet, in
foreign-key order and in one transaction, then insert the default sponsors
and site settings into tables that are still empty.`,
		Args: cobra.NoArgs,
		RunE: runBootstrap,
	}

	cmd.Flags().Bool("no-seed", false, "create tables only")

	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	noSeed, _ := cmd.Flags().GetBool("no-seed")

	res, err := runBootstrapOn(ctx, db, bootstrap.Options{Seed: !noSeed})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if jsonOutput() {
		return writeJSON(out, res)
	}

	fmt.Fprintf(out, "Ensured %d table(s).\n", len(res.Tables))

	for _, o := range res.Seeded {
		if o.Skipped {
			fmt.Fprintf(out, "  %s: already has rows, left alone\n", o.Table)
		} else {
			fmt.Fprintf(out, "  %s: seeded %d row(s)\n", o.Table, o.Inserted)
		}
	}

	return nil
}

func runBootstrapOn(ctx context.Context, db *database.DB, opts bootstrap.Options) (*bootstrap.Result, error) {
	return bootstrap.Run(ctx, db, schema.CannaSpot(), opts, logging.Component(appLog, "bootstrap"))
}
