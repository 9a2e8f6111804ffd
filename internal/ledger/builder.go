package ledger

import (
	"fmt"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// TransactionBuilder collects postings for one transaction. Nothing is
// persisted until Engine.Commit; dropping a builder has no side effects.
// A builder is not safe for concurrent use.
type TransactionBuilder struct {
	memo      string
	scale     int32
	postings  []interfaces.PostingDraft
	err       error
	committed bool
}

// Begin opens a builder.
func (e *Engine) Begin(memo string) *TransactionBuilder {
	return &TransactionBuilder{memo: memo, scale: e.scale}
}

// Memo returns the memo the builder was opened with.
func (b *TransactionBuilder) Memo() string { return b.memo }

// Len returns the number of postings added so far.
func (b *TransactionBuilder) Len() int { return len(b.postings) }

// AddPosting appends one leg. amount must be strictly positive and fit the
// engine scale; direction carries the sign. The first error is kept and also
// returned by Commit, so ignoring it cannot produce a partial transaction.
func (b *TransactionBuilder) AddPosting(journalID uuid.UUID, direction models.Direction, amount money.Amount) error {
	if b.err != nil {
		return b.err
	}
	if err := b.check(journalID, direction, amount); err != nil {
		b.err = fmt.Errorf("posting %d: %w", len(b.postings), err)
		return b.err
	}
	b.postings = append(b.postings, interfaces.PostingDraft{
		JournalID: journalID,
		Direction: direction,
		Amount:    amount,
	})
	return nil
}

func (b *TransactionBuilder) check(journalID uuid.UUID, direction models.Direction, amount money.Amount) error {
	if b.committed {
		return ErrAlreadyCommitted
	}
	if journalID == uuid.Nil {
		return fmt.Errorf("journal id is nil: %w", ErrUnknownJournal)
	}
	if !direction.Valid() {
		return fmt.Errorf("%q: %w", direction, ErrInvalidDirection)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%s must be greater than zero: %w", amount, ErrInvalidAmount)
	}
	if !amount.FitsScale(b.scale) {
		return fmt.Errorf("%s has more than %d decimal places: %w", amount, b.scale, ErrInvalidAmount)
	}
	return nil
}

// Debit is AddPosting with models.Debit.
func (b *TransactionBuilder) Debit(journalID uuid.UUID, amount money.Amount) error {
	return b.AddPosting(journalID, models.Debit, amount)
}

// Credit is AddPosting with models.Credit.
func (b *TransactionBuilder) Credit(journalID uuid.UUID, amount money.Amount) error {
	return b.AddPosting(journalID, models.Credit, amount)
}

// validate checks the builder as a whole before anything is sent to the store.
func (b *TransactionBuilder) validate() error {
	if b.err != nil {
		return b.err
	}
	if b.committed {
		return ErrAlreadyCommitted
	}
	if len(b.postings) < 2 {
		return fmt.Errorf("got %d: %w", len(b.postings), ErrEmptyTransaction)
	}
	var debits, credits money.Amount
	for _, p := range b.postings {
		if p.Direction == models.Debit {
			debits = debits.Add(p.Amount)
		} else {
			credits = credits.Add(p.Amount)
		}
	}
	if !debits.Equal(credits) {
		return &UnbalancedTransactionError{Debits: debits, Credits: credits}
	}
	return nil
}
