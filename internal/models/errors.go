package models

import "errors"

// Errors every store returns so the engine can classify them without
// knowing the backend.
var (
	ErrLedgerNotFound         = errors.New("ledger not found")
	ErrJournalNotFound        = errors.New("journal not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrJournalNotAssigned     = errors.New("journal is not assigned to a ledger")
	ErrJournalHasPostings     = errors.New("journal already has postings")
	ErrAlreadyReversed        = errors.New("transaction already reversed")
	ErrDuplicateLedger        = errors.New("ledger with this name and type already exists")
	ErrConcurrentModification = errors.New("concurrent modification")
)
