package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// Transaction is a committed, balanced set of postings. It is never edited;
// corrections are new transactions.
type Transaction struct {
	ID           uuid.UUID     `json:"id"`
	Memo         string        `json:"memo,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ReversesID   uuid.NullUUID `json:"reverses_id"`    // set on a reversal
	ReversedByID uuid.NullUUID `json:"reversed_by_id"` // set on a reversed transaction
	Postings     []Posting     `json:"postings"`
}

// Reversed reports whether a compensating transaction exists.
func (t Transaction) Reversed() bool { return t.ReversedByID.Valid }

// Totals sums the debit and credit legs.
func (t Transaction) Totals() (debits, credits money.Amount) {
	for _, p := range t.Postings {
		switch p.Direction {
		case Debit:
			debits = debits.Add(p.Amount)
		case Credit:
			credits = credits.Add(p.Amount)
		}
	}
	return debits, credits
}

// Balanced reports whether debits equal credits.
func (t Transaction) Balanced() bool {
	d, c := t.Totals()
	return d.Equal(c)
}
