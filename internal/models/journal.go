package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// Journal is a named sub-account bound to at most one ledger at a time.
type Journal struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	LedgerID  uuid.NullUUID `json:"ledger_id"` // invalid until assigned
	Balance   money.Amount  `json:"balance"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewJournal returns an unsaved, unassigned journal.
func NewJournal(name string, now time.Time) Journal {
	return Journal{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
	}
}

// Assigned reports whether the journal can accept postings.
func (j Journal) Assigned() bool { return j.LedgerID.Valid }
