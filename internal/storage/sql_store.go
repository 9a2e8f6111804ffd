// Package storage holds the SQL implementation of interfaces.LedgerStore that
// the postgres and sqlite backends share. Backends differ only in their
// Dialect: placeholder syntax, row locking clause, per-transaction setup and
// which driver errors mean "lost a lock race".
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of '?'.
	Numbered bool
	// ForUpdate is appended to row-locking selects, e.g. " FOR UPDATE".
	ForUpdate string
	// LockLedgerTable serializes ledger creation when name+type must be unique.
	LockLedgerTable string
	// OnBegin runs first inside every write transaction.
	OnBegin func(ctx context.Context, tx *sql.Tx) error
	// IsConflict reports driver errors that mean another writer won.
	IsConflict func(err error) bool
}

// SQLStore implements interfaces.LedgerStore over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database whose schema is already migrated.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Close closes the underlying handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// rebind rewrites '?' placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// translate maps lock conflicts onto models.ErrConcurrentModification and
// leaves everything else alone.
func (s *SQLStore) translate(err error) error {
	if err == nil {
		return nil
	}
	if s.dialect.IsConflict != nil && s.dialect.IsConflict(err) {
		return fmt.Errorf("%w: %w", models.ErrConcurrentModification, err)
	}
	return err
}

// inTx runs fn in one database transaction. If fn returns an error or panics,
// the transaction is rolled back; otherwise it is committed.
func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.translate(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if s.dialect.OnBegin != nil {
		if err := s.dialect.OnBegin(ctx, tx); err != nil {
			_ = tx.Rollback()
			return s.translate(err)
		}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback error: %v)", s.translate(err), rbErr)
		}
		return s.translate(err)
	}

	if err := tx.Commit(); err != nil {
		return s.translate(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ interfaces.LedgerStore = (*SQLStore)(nil)
