package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/accounts"
)

func newResetPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-password <username_or_email> [new_password]",
		Short: "Set a user's password",
		Long: `Set a new password for the user matched by username, or by email
ignoring case. A random password is generated and printed when none is
given. --admin also grants admin rights.`,
		Args: usageArgs(1, 2),
		RunE: runResetPassword,
	}

	cmd.Flags().Bool("admin", false, "also grant admin rights")

	return cmd
}

func newMakeAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "make-admin <username_or_email>",
		Short: "Grant or revoke admin rights",
		Args:  usageArgs(1, 1),
		RunE:  runMakeAdmin,
	}

	cmd.Flags().Bool("revoke", false, "revoke admin rights instead")

	return cmd
}

func newCreateUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-users",
		Short: "Create the development admin and user accounts",
		Long: `Create the "admin" and "user" development accounts unless accounts with
those usernames already exist. Not for production databases.`,
		Args: cobra.NoArgs,
		RunE: runCreateUsers,
	}
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Admin    bool   `json:"admin"`
	Password string `json:"password,omitempty"`
	Created  *bool  `json:"created,omitempty"`
}

func notFound(target string, err error) error {
	if errors.Is(err, accounts.ErrUserNotFound) {
		return fmt.Errorf("no user matches %q", target)
	}

	return err
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	target := args[0]

	password, generated := "", false
	if len(args) == 2 {
		password = args[1]
	} else {
		p, err := accounts.GeneratePassword()
		if err != nil {
			return err
		}

		password, generated = p, true
	}

	grantAdmin, _ := cmd.Flags().GetBool("admin")
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	u, err := accounts.New(db).ResetPassword(ctx, target, password, grantAdmin)
	if err != nil {
		return notFound(target, err)
	}

	out := cmd.OutOrStdout()

	if jsonOutput() {
		v := userView{ID: u.ID, Username: u.Username, Email: u.Email, Admin: u.Admin}
		if generated {
			v.Password = password
		}

		return writeJSON(out, v)
	}

	fmt.Fprintf(out, "Password reset for %s (%s).\n", u.Username, u.Email)

	if generated {
		fmt.Fprintf(out, "New password: %s\n", password)
	}

	if grantAdmin {
		fmt.Fprintln(out, "Admin rights granted.")
	}

	return nil
}

func runMakeAdmin(cmd *cobra.Command, args []string) error {
	revoke, _ := cmd.Flags().GetBool("revoke")
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	u, err := accounts.New(db).SetAdmin(ctx, args[0], !revoke)
	if err != nil {
		return notFound(args[0], err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), userView{ID: u.ID, Username: u.Username, Email: u.Email, Admin: u.Admin})
	}

	state := "is now an admin"
	if revoke {
		state = "is no longer an admin"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s.\n", u.Username, state)

	return nil
}

func runCreateUsers(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	store := accounts.New(db)
	views := make([]userView, 0, len(accounts.DefaultUsers()))

	for _, nu := range accounts.DefaultUsers() {
		created, err := store.EnsureUser(ctx, nu)
		if err != nil {
			return err
		}

		views = append(views, userView{
			Username: nu.Username,
			Email:    nu.Email,
			Admin:    nu.Admin,
			Password: nu.Password,
			Created:  &created,
		})
	}

	out := cmd.OutOrStdout()

	if jsonOutput() {
		return writeJSON(out, views)
	}

	for _, v := range views {
		if *v.Created {
			fmt.Fprintf(out, "Created %s (password: %s)\n", v.Username, v.Password)
		} else {
			fmt.Fprintf(out, "%s already exists, left alone\n", v.Username)
		}
	}

	return nil
}
