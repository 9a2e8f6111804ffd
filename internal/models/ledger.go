package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// LedgerType is the accounting class of a ledger.
type LedgerType string

const (
	LedgerAsset     LedgerType = "asset"
	LedgerLiability LedgerType = "liability"
	LedgerEquity    LedgerType = "equity"
	LedgerIncome    LedgerType = "income"
	LedgerExpense   LedgerType = "expense"
)

// LedgerTypes lists every valid type in chart order.
var LedgerTypes = []LedgerType{LedgerAsset, LedgerLiability, LedgerEquity, LedgerIncome, LedgerExpense}

// ParseLedgerType validates s as a LedgerType.
func ParseLedgerType(s string) (LedgerType, error) {
	t := LedgerType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown ledger type %q", s)
	}
	return t, nil
}

func (t LedgerType) Valid() bool {
	switch t {
	case LedgerAsset, LedgerLiability, LedgerEquity, LedgerIncome, LedgerExpense:
		return true
	}
	return false
}

// NormalSide is the direction that increases balances of this type.
func (t LedgerType) NormalSide() Direction {
	switch t {
	case LedgerAsset, LedgerExpense:
		return Debit
	default:
		return Credit
	}
}

// Signed converts a positive posting amount into its effect on a balance of
// this ledger type.
func (t LedgerType) Signed(d Direction, amount money.Amount) money.Amount {
	if d == t.NormalSide() {
		return amount
	}
	return amount.Neg()
}

// Ledger is a top-level account category aggregating journals.
type Ledger struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Type      LedgerType   `json:"type"`
	Balance   money.Amount `json:"balance"` // cached, recomputable from postings
	CreatedAt time.Time    `json:"created_at"`
}

// NewLedger returns an unsaved ledger with a fresh identity.
func NewLedger(name string, typ LedgerType, now time.Time) Ledger {
	return Ledger{
		ID:        uuid.New(),
		Name:      name,
		Type:      typ,
		CreatedAt: now,
	}
}
