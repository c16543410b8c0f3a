package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitFatal   = 1
	ExitPartial = 2
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}

	return ExitFatal
}

var (
	// errDatabaseURLRequired is returned when no database URL is configured.
	errDatabaseURLRequired = errors.New(
		"database URL is required (set --database-url, DATABASE_URL, or database_url in config)",
	)
	// errPartial is wrapped in an ExitError when some reconcile steps failed.
	errPartial = errors.New("reconcile finished with failed steps")
	// errSchemaIncomplete is returned by check when catalog tables are missing.
	errSchemaIncomplete = errors.New("schema is incomplete (run migrate)")
)

// usageArgs accepts between lo and hi positional arguments and otherwise
// fails with the command's usage line.
func usageArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return fmt.Errorf("usage: %s", cmd.UseLine())
		}

		return nil
	}
}
