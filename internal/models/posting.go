package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// Direction is the side of a posting.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

func (d Direction) Valid() bool { return d == Debit || d == Credit }

// Opposite flips debit and credit.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// ParseDirection validates s as a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

// Posting is one leg of a transaction against a single journal.
type Posting struct {
	ID               uuid.UUID    `json:"id"`
	TransactionID    uuid.UUID    `json:"transaction_id"`
	JournalID        uuid.UUID    `json:"journal_id"`
	LedgerID         uuid.UUID    `json:"ledger_id"` // attribution at commit time
	Direction        Direction    `json:"direction"`
	Amount           money.Amount `json:"amount"`            // always positive
	SignedAmount     money.Amount `json:"signed_amount"`     // effect on the journal balance
	ResultingBalance money.Amount `json:"resulting_balance"` // journal balance after this leg
	Sequence         int64        `json:"sequence"`
	CreatedAt        time.Time    `json:"created_at"`
}
