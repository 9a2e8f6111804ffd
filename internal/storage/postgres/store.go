package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage"
)

// DefaultLockTimeout is applied with SET LOCAL lock_timeout to every write
// transaction.
const DefaultLockTimeout = 5 * time.Second

// SQLSTATEs that mean another writer holds or won the rows we need.
var conflictCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// PostgresLedgerStore is the PostgreSQL backend. Commits lock journals and
// then ledgers with SELECT ... ORDER BY id FOR UPDATE.
type PostgresLedgerStore struct {
	*storage.SQLStore
}

// NewPostgresLedgerStore wraps an open lib/pq handle. The schema must already
// be migrated; see Migrate.
func NewPostgresLedgerStore(db *sql.DB, lockTimeout time.Duration) *PostgresLedgerStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &PostgresLedgerStore{
		SQLStore: storage.NewSQLStore(db, Dialect(lockTimeout)),
	}
}

// Dialect returns the postgres flavour of the shared SQL store.
func Dialect(lockTimeout time.Duration) storage.Dialect {
	setTimeout := fmt.Sprintf("SET LOCAL lock_timeout = %d", lockTimeout.Milliseconds())
	return storage.Dialect{
		Name:            "postgres",
		Numbered:        true,
		ForUpdate:       " FOR UPDATE",
		LockLedgerTable: "LOCK TABLE ledgers IN SHARE ROW EXCLUSIVE MODE",
		OnBegin: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, setTimeout)
			return err
		},
		IsConflict: IsConflict,
	}
}

// IsConflict reports lock timeouts, deadlocks and serialization failures.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return conflictCodes[pqErr.Code]
	}
	return false
}

// Open connects to dsn (a postgres:// URL), applies migrations and returns a
// ready store.
func Open(ctx context.Context, dsn string, lockTimeout time.Duration) (*PostgresLedgerStore, error) {
	if err := Migrate(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresLedgerStore(db, lockTimeout), nil
}
