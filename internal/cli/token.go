package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/accounts"
	"github.com/davebowl/Canna-spot-mobile/internal/api"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <username_or_email>",
		Short: "Issue a signaling relay token for a user",
		Args:  usageArgs(1, 1),
		RunE:  runToken,
	}

	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime") //nolint:mnd // one day

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	secret, err := AppConfig.Secret()
	if err != nil {
		return err
	}

	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	u, err := accounts.New(db).Find(ctx, args[0])
	if err != nil {
		return notFound(args[0], err)
	}

	tok, err := api.IssueToken(secret, u.ID, u.Username, ttl)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"user_id":    u.ID,
			"username":   u.Username,
			"token":      tok,
			"expires_at": time.Now().Add(ttl).UTC(),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), tok)

	return nil
}
