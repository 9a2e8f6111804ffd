package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// Scope selects a journal or a ledger for balance and history queries.
type Scope struct {
	id      uuid.UUID
	journal bool
}

func JournalScope(id uuid.UUID) Scope { return Scope{id: id, journal: true} }
func LedgerScope(id uuid.UUID) Scope  { return Scope{id: id} }

func (s Scope) ID() uuid.UUID { return s.id }

func (s Scope) String() string {
	if s.journal {
		return "journal " + s.id.String()
	}
	return "ledger " + s.id.String()
}

func (s Scope) filter() interfaces.PostingFilter {
	id := uuid.NullUUID{UUID: s.id, Valid: true}
	if s.journal {
		return interfaces.PostingFilter{JournalID: id}
	}
	return interfaces.PostingFilter{LedgerID: id}
}

// resolve fails with a not-found error when the scope points nowhere and
// returns the cached balance otherwise.
func (e *Engine) resolve(ctx context.Context, s Scope) (money.Amount, error) {
	if s.journal {
		j, err := e.store.GetJournal(ctx, s.id)
		return j.Balance, err
	}
	l, err := e.store.GetLedger(ctx, s.id)
	return l.Balance, err
}

// Balance returns the cached balance of the scope.
func (e *Engine) Balance(ctx context.Context, s Scope) (money.Amount, error) {
	return e.resolve(ctx, s)
}

// JournalBalance returns the cached balance of a journal.
func (e *Engine) JournalBalance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	return e.resolve(ctx, JournalScope(id))
}

// LedgerBalance returns the cached balance of a ledger: the signed sum of
// every posting attributed to it.
func (e *Engine) LedgerBalance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	return e.resolve(ctx, LedgerScope(id))
}

// Recompute sums every posting in scope from scratch.
func (e *Engine) Recompute(ctx context.Context, s Scope) (money.Amount, error) {
	if _, err := e.resolve(ctx, s); err != nil {
		return money.Zero, err
	}
	return e.sum(ctx, s.filter())
}

// Verify fails with ErrBalanceDrift when the cached balance of the scope does
// not equal the sum of its postings.
func (e *Engine) Verify(ctx context.Context, s Scope) error {
	cached, err := e.resolve(ctx, s)
	if err != nil {
		return err
	}
	recomputed, err := e.sum(ctx, s.filter())
	if err != nil {
		return err
	}
	if !cached.Equal(recomputed) {
		return fmt.Errorf("%s: cached %s, postings %s: %w", s, cached, recomputed, ErrBalanceDrift)
	}
	return nil
}

func (e *Engine) RecomputeJournalBalance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	return e.Recompute(ctx, JournalScope(id))
}

func (e *Engine) RecomputeLedgerBalance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	return e.Recompute(ctx, LedgerScope(id))
}

func (e *Engine) VerifyJournal(ctx context.Context, id uuid.UUID) error {
	return e.Verify(ctx, JournalScope(id))
}

func (e *Engine) VerifyLedger(ctx context.Context, id uuid.UUID) error {
	return e.Verify(ctx, LedgerScope(id))
}

// VerifyAll checks every ledger and journal and reports all drifts together.
func (e *Engine) VerifyAll(ctx context.Context) error {
	ledgers, err := e.store.ListLedgers(ctx)
	if err != nil {
		return err
	}
	journals, err := e.store.ListJournals(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, l := range ledgers {
		if err := e.Verify(ctx, LedgerScope(l.ID)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, j := range journals {
		if err := e.Verify(ctx, JournalScope(j.ID)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BalanceAsOf replays postings in scope committed at or before t.
func (e *Engine) BalanceAsOf(ctx context.Context, s Scope, t time.Time) (money.Amount, error) {
	if _, err := e.resolve(ctx, s); err != nil {
		return money.Zero, err
	}
	f := s.filter()
	f.To = normalizeTime(t)
	if f.To.IsZero() {
		return money.Zero, nil
	}
	return e.sum(ctx, f)
}

// History lists postings in scope with from <= CreatedAt <= to, ordered by
// time and then by sequence. A zero bound is open.
func (e *Engine) History(ctx context.Context, s Scope, from, to time.Time) ([]models.Posting, error) {
	if _, err := e.resolve(ctx, s); err != nil {
		return nil, err
	}
	f := s.filter()
	f.From = normalizeTime(from)
	f.To = normalizeTime(to)
	return e.store.Postings(ctx, f)
}

func (e *Engine) sum(ctx context.Context, f interfaces.PostingFilter) (money.Amount, error) {
	postings, err := e.store.Postings(ctx, f)
	if err != nil {
		return money.Zero, err
	}
	total := money.Zero
	for _, p := range postings {
		total = total.Add(p.SignedAmount)
	}
	return total, nil
}
