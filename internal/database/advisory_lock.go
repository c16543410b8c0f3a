package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SchemaLockID is the advisory lock identifier used to prevent concurrent
// reconciler and bootstrap runs against the same Postgres database.
const SchemaLockID int64 = 0x43414e4e41 // "CANNA"

// Lock is held until Release is called.
type Lock interface {
	Release(ctx context.Context) error
}

// LockHandle wraps a dedicated connection that holds a session-level
// advisory lock. Call Release to unlock and return the connection to the pool.
type LockHandle struct {
	conn *sql.Conn
}

type nopLock struct{}

func (nopLock) Release(context.Context) error { return nil }

// AcquireLock takes the schema lock. On Postgres it is a session-level
// advisory lock and ErrLockNotAcquired is returned if another process holds
// it. SQLite serializes writers itself and gets a no-op lock.
func AcquireLock(ctx context.Context, db *DB) (Lock, error) {
	if db.Target.Engine != Postgres {
		return nopLock{}, nil
	}

	return TryAcquireLock(ctx, db.DB)
}

// LockRetryInterval is how often WaitForLock retries a busy lock.
const LockRetryInterval = 250 * time.Millisecond

// WaitForLock retries AcquireLock until it succeeds, wait elapses or ctx is
// done. A zero wait tries once. After the wait runs out the error is
// ErrLockNotAcquired.
func WaitForLock(ctx context.Context, db *DB, wait time.Duration) (Lock, error) {
	deadline := time.Now().Add(wait)

	for {
		lock, err := AcquireLock(ctx, db)
		if !errors.Is(err, ErrLockNotAcquired) || !time.Now().Before(deadline) {
			return lock, err
		}

		timer := time.NewTimer(min(LockRetryInterval, time.Until(deadline)))

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquireLock attempts to acquire a session-level advisory lock.
// Returns a LockHandle if successful, or ErrLockNotAcquired if the
// lock is already held by another process. The caller must call
// handle.Release() when done.
func TryAcquireLock(ctx context.Context, db *sql.DB) (*LockHandle, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	var acquired bool

	err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", SchemaLockID).Scan(&acquired)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		_ = conn.Close()

		return nil, ErrLockNotAcquired
	}

	return &LockHandle{conn: conn}, nil
}

// Release unlocks the advisory lock and returns the connection to the pool.
// Safe to call multiple times; subsequent calls are no-ops.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", SchemaLockID)
	_ = h.conn.Close()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}
