package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMS bounds how long a writer waits on the file lock before the
// driver reports SQLITE_BUSY.
const busyTimeoutMS = 5000

// Open opens the ledger file. Foreign keys are enforced and all timestamps
// read back in UTC. A single connection serializes every caller, so the
// driver never sees concurrent writers.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d&_loc=UTC", path, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// WithTx runs fn as one atomic unit. Any error out of fn rolls back every
// statement executed inside it; partial multi-table writes never survive.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Now returns UTC truncated to seconds, matching SQLite timestamp precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
