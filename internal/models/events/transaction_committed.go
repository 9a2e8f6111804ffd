package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

const (
	TopicTransactionCommitted = "ledger.transaction_committed"
	TopicJournalReassigned    = "ledger.journal_reassigned"
)

type PostingLine struct {
	JournalID    uuid.UUID        `json:"journal_id"`
	LedgerID     uuid.UUID        `json:"ledger_id"`
	Direction    models.Direction `json:"direction"`
	Amount       money.Amount     `json:"amount"`
	SignedAmount money.Amount     `json:"signed_amount"`
}

type TransactionCommitted struct {
	TransactionID uuid.UUID     `json:"transaction_id"`
	Memo          string        `json:"memo,omitempty"`
	ReversesID    uuid.NullUUID `json:"reverses_id"`
	Postings      []PostingLine `json:"postings"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// NewTransactionCommitted flattens a committed transaction into its event.
func NewTransactionCommitted(tx models.Transaction) TransactionCommitted {
	lines := make([]PostingLine, 0, len(tx.Postings))
	for _, p := range tx.Postings {
		lines = append(lines, PostingLine{
			JournalID:    p.JournalID,
			LedgerID:     p.LedgerID,
			Direction:    p.Direction,
			Amount:       p.Amount,
			SignedAmount: p.SignedAmount,
		})
	}
	return TransactionCommitted{
		TransactionID: tx.ID,
		Memo:          tx.Memo,
		ReversesID:    tx.ReversesID,
		Postings:      lines,
		OccurredAt:    tx.CreatedAt,
	}
}
