package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const maxBusyRetries = 3

// IsBusy reports whether err indicates an SQLite BUSY condition.
// It checks for SQLITE_BUSY, "database is locked", and "database table is locked".
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// execBusy executes a statement with automatic retry on SQLITE_BUSY.
// External readers hold short read locks against the same file, so a
// transient BUSY during a bulk load is expected. Retries up to 3 times
// with 100/200/300 ms backoff.
func execBusy(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	for i := range maxBusyRetries {
		result, err := db.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}
		if !IsBusy(err) || i == maxBusyRetries-1 {
			return nil, err
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return nil, fmt.Errorf("store: context cancelled during retry: %w", err)
		}
	}
	return nil, fmt.Errorf("store: exec: max retries exceeded")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
