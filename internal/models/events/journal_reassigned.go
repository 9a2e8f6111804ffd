package events

import (
	"time"

	"github.com/google/uuid"
)

type JournalReassigned struct {
	JournalID    uuid.UUID     `json:"journal_id"`
	FromLedgerID uuid.NullUUID `json:"from_ledger_id"`
	ToLedgerID   uuid.UUID     `json:"to_ledger_id"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
