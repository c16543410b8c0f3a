package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
)

// SetTimeouts bounds lock waits and statement runtime for the given
// transaction. A step that cannot get its lock fails fast instead of queueing
// behind application traffic. Engines without such settings are left alone.
func SetTimeouts(ctx context.Context, tx *sql.Tx, d database.Dialect, lockTimeout, statementTimeout time.Duration) error {
	for _, stmt := range d.TimeoutStatements(lockTimeout, statementTimeout) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("setting timeouts: %w", err)
		}
	}

	return nil
}
