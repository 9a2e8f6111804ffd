// Package sqlite is the single-file backend. Write transactions start with
// BEGIN IMMEDIATE, so SQLite serializes commits; readers keep going under WAL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage"
)

// DefaultBusyTimeout bounds how long a writer waits for the database lock.
const DefaultBusyTimeout = 5 * time.Second

// SQLiteLedgerStore is the SQLite backend of the shared SQL store.
type SQLiteLedgerStore struct {
	*storage.SQLStore
	path string
}

// Dialect returns the sqlite flavour of the shared SQL store.
func Dialect() storage.Dialect {
	return storage.Dialect{
		Name:       "sqlite",
		IsConflict: IsConflict,
	}
}

// IsConflict reports SQLITE_BUSY and SQLITE_LOCKED.
func IsConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// Open opens (creating if needed) the database at path, applies migrations and
// returns a ready store.
func Open(ctx context.Context, path string, busyTimeout time.Duration) (*SQLiteLedgerStore, error) {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	if err := Migrate(path); err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=%d",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteLedgerStore{
		SQLStore: storage.NewSQLStore(db, Dialect()),
		path:     path,
	}, nil
}

// Path returns the database file path.
func (s *SQLiteLedgerStore) Path() string { return s.path }
