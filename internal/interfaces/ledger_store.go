package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// PostingDraft is one validated leg waiting to be applied.
type PostingDraft struct {
	JournalID uuid.UUID
	Direction models.Direction
	Amount    money.Amount
	// LedgerID, when set, attributes the leg to that ledger instead of the
	// journal's current one. Reversals pin each leg to the ledger of the
	// posting it mirrors.
	LedgerID uuid.NullUUID
	// Signed, when set, replaces the ledger-type sign convention. Reversals
	// use it so the mirror negates the original effect exactly.
	Signed *money.Amount
}

// Ledger returns the ledger the leg is attributed to for a journal bound to
// current.
func (d PostingDraft) Ledger(current uuid.UUID) uuid.UUID {
	if d.LedgerID.Valid {
		return d.LedgerID.UUID
	}
	return current
}

// CommitRequest is everything a store needs to apply one transaction.
type CommitRequest struct {
	TransactionID uuid.UUID
	Memo          string
	CreatedAt     time.Time
	Reverses      uuid.NullUUID
	Postings      []PostingDraft
}

// PostingFilter selects postings for history and balance replay. Zero From/To
// are unbounded; both bounds are inclusive. Results are ordered by
// (CreatedAt, Sequence).
type PostingFilter struct {
	JournalID uuid.NullUUID
	LedgerID  uuid.NullUUID
	From      time.Time
	To        time.Time
}

// LedgerStore persists ledgers, journals, transactions and postings.
//
// Commit must be all-or-nothing: the transaction row, every posting and every
// journal and ledger balance update apply together or not at all. Lock
// conflicts are reported as models.ErrConcurrentModification.
type LedgerStore interface {
	CreateLedger(ctx context.Context, ledger models.Ledger, unique bool) error
	GetLedger(ctx context.Context, id uuid.UUID) (models.Ledger, error)
	ListLedgers(ctx context.Context) ([]models.Ledger, error)

	CreateJournal(ctx context.Context, journal models.Journal) error
	GetJournal(ctx context.Context, id uuid.UUID) (models.Journal, error)
	ListJournals(ctx context.Context) ([]models.Journal, error)
	// AssignJournal binds journalID to ledgerID and returns the previous
	// binding. Unless allowWithPostings is set it fails with
	// models.ErrJournalHasPostings when the journal has postings and the
	// ledger changes.
	AssignJournal(ctx context.Context, journalID, ledgerID uuid.UUID, allowWithPostings bool) (uuid.NullUUID, error)
	// MigrateJournalHistory re-attributes every posting of the journal to its
	// current ledger and returns how many postings moved.
	MigrateJournalHistory(ctx context.Context, journalID uuid.UUID) (int, error)

	Commit(ctx context.Context, req CommitRequest) (models.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	Postings(ctx context.Context, filter PostingFilter) ([]models.Posting, error)
}
