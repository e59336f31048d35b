// Package sqlitedb owns the SQLite connection, schema and transaction helper
// shared by every repository.
package sqlitedb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Open opens (creating when necessary) the database at path and applies the
// schema. WAL and a busy timeout keep concurrent writers queued instead of
// failing, and _txlock=immediate makes every write transaction take the
// write lock up front so check-then-write sequences serialize.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var memDBSeq atomic.Int64

// OpenInMemory opens a fresh in-memory database, used by tests. Each call
// gets its own database; the shared cache only ties together the pool's
// connections to it.
func OpenInMemory(ctx context.Context) (*sql.DB, error) {
	name := fmt.Sprintf("questdesk-mem-%d", memDBSeq.Add(1))
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared&_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory sqlite db: %w", err)
	}
	// A shared-cache memory db disappears when its last connection closes.
	db.SetMaxIdleConns(1)
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	now := Now()
	for _, key := range []string{"created_at", "last_updated"} {
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO metadata (key, value, updated_at) VALUES (?, ?, ?)`, key, now, now); err != nil {
			return fmt.Errorf("failed to seed metadata: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a transaction; all writes commit together or roll back
// together on error or panic.
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// TimeFormat is the canonical timestamp representation stored in every
// table: UTC with fixed microsecond precision, so values sort lexically in
// time order and successive mutations get strictly increasing stamps.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

func Now() string {
	return time.Now().UTC().Format(TimeFormat)
}

// Touch bumps the last_updated metadata row inside the caller's transaction
// so the bump commits (or rolls back) together with the mutation.
func Touch(ctx context.Context, tx *sql.Tx) error {
	now := Now()
	if _, err := tx.ExecContext(ctx, `UPDATE metadata SET value = ?, updated_at = ? WHERE key = 'last_updated'`, now, now); err != nil {
		return fmt.Errorf("failed to bump last_updated: %w", err)
	}
	return nil
}
