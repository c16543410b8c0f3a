package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/install"
)

func newResetForInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-for-install",
		Short: "Back up and wipe the database and uploads",
		Long: `Prepare a clean install: copy every SQLite database file and the uploads
directory into the backup directory with a timestamp, then delete the
database files and the uploaded files. Directories are kept. Postgres
databases are refused.`,
		Args: cobra.NoArgs,
		RunE: runResetForInstall,
	}

	cmd.Flags().Bool("yes", false, "do not ask for confirmation")

	return cmd
}

// confirm asks a yes/no question on in, defaulting to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (yes/no): ", question)

	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(sc.Text()))

	return answer == "yes" || answer == "y"
}

func runResetForInstall(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	target, err := installTarget(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Fprintln(out, "This backs up and then deletes:")

		for _, f := range target {
			fmt.Fprintf(out, "  %s\n", f)
		}

		fmt.Fprintf(out, "  every file under %s\n", cfg.UploadDir)

		if !confirm(cmd.InOrStdin(), out, "Continue?") {
			fmt.Fprintln(out, "Cancelled, nothing changed.")

			return nil
		}
	}

	report, err := install.Reset(install.Options{
		DatabaseURL: cfg.DatabaseURL,
		UploadDir:   cfg.UploadDir,
		BackupDir:   cfg.BackupDir,
	})
	if report != nil {
		for _, w := range report.Warnings {
			appLog.Warn().Msg(w)
		}
	}

	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(out, report)
	}

	for _, b := range report.Databases {
		fmt.Fprintf(out, "Backed up %s to %s and deleted it.\n", b.Source, b.Dest)
	}

	if len(report.Databases) == 0 {
		fmt.Fprintln(out, "No database file found.")
	}

	if report.UploadsBackup != "" {
		fmt.Fprintf(out, "Backed up uploads to %s, removed %d file(s).\n", report.UploadsBackup, report.ClearedFiles)
	}

	fmt.Fprintln(out, "Ready for a fresh install. Run bootstrap or serve to recreate the database.")

	return nil
}

func installTarget(databaseURL string) ([]string, error) {
	t, err := database.ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	return install.DatabaseFiles(t)
}
