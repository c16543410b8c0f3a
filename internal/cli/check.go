package cli

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/accounts"
	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Inspect tables, row counts and users",
		Long: `List every table the CannaSpot model expects with its row count, flag the
missing ones and summarize user accounts. Columns the database holds as NOT
NULL where the model allows NULL are listed as warnings. Exits 1 when tables
are missing.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
}

type tableCheck struct {
	Table   string `json:"table"`
	Present bool   `json:"present"`
	Rows    int64  `json:"rows"`
}

type checkResult struct {
	Engine  string             `json:"engine"`
	Tables  []tableCheck       `json:"tables"`
	Missing []string           `json:"missing"`
	Users   *accounts.Summary  `json:"users,omitempty"`
	Drift   []introspect.Drift `json:"drift,omitempty"`
}

func inspect(ctx context.Context, db *database.DB, cat *schema.Catalog) (*checkResult, error) {
	in := introspect.New(db, db.Dialect)
	res := &checkResult{Engine: string(db.Target.Engine)}

	for _, t := range cat.Tables {
		ok, err := in.TableExists(ctx, t.Name)
		if err != nil {
			return nil, err
		}

		tc := tableCheck{Table: t.Name, Present: ok}

		if ok {
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+db.Dialect.Quote(t.Name)).
				Scan(&tc.Rows); err != nil {
				return nil, fmt.Errorf("counting %s: %w", t.Name, err)
			}
		} else {
			res.Missing = append(res.Missing, t.Name)
		}

		res.Tables = append(res.Tables, tc)
	}

	drift, err := introspect.NullabilityDrift(ctx, in, cat)
	if err != nil {
		return nil, err
	}

	res.Drift = drift

	if _, ok := cat.Table("user"); ok && !slices.Contains(res.Missing, "user") {
		sum, err := accounts.New(db).Summary(ctx)
		if err != nil {
			return nil, err
		}

		res.Users = &sum
	}

	return res, nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	res, err := inspect(ctx, db, schema.CannaSpot())
	if err != nil {
		return err
	}

	if err := printCheck(cmd, res); err != nil {
		return err
	}

	if len(res.Missing) > 0 {
		return fmt.Errorf("%w: %d table(s) missing", errSchemaIncomplete, len(res.Missing))
	}

	return nil
}

func printCheck(cmd *cobra.Command, res *checkResult) error {
	out := cmd.OutOrStdout()

	if jsonOutput() {
		return writeJSON(out, res)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(tw, "TABLE\tROWS")

	for _, t := range res.Tables {
		if t.Present {
			fmt.Fprintf(tw, "%s\t%d\n", t.Table, t.Rows)
		} else {
			fmt.Fprintf(tw, "%s\tMISSING\n", t.Table)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d of %d table(s) present.\n", len(res.Tables)-len(res.Missing), len(res.Tables))

	if res.Users != nil {
		fmt.Fprintf(out, "Users: %d total, %d admin(s), %d regular.\n",
			res.Users.Total, res.Users.Admins, res.Users.Regular)
	}

	printDrift(out, res.Drift)

	return nil
}
