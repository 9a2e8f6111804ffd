package ledger

import (
	"errors"
	"fmt"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// Validation errors. None of them is returned after a write has started.
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidDirection      = errors.New("invalid direction")
	ErrInvalidLedgerType     = errors.New("invalid ledger type")
	ErrInvalidName           = errors.New("name is required")
	ErrEmptyTransaction      = errors.New("transaction needs at least two postings")
	ErrUnbalancedTransaction = errors.New("transaction is unbalanced")
	ErrAlreadyCommitted      = errors.New("transaction builder already committed")
	ErrBalanceDrift          = errors.New("cached balance does not match postings")
)

// Errors raised by the store, re-exported so callers only need this package.
var (
	ErrUnknownJournal         = models.ErrJournalNotFound
	ErrUnknownLedger          = models.ErrLedgerNotFound
	ErrUnknownTransaction     = models.ErrTransactionNotFound
	ErrJournalNotAssigned     = models.ErrJournalNotAssigned
	ErrJournalHasPostings     = models.ErrJournalHasPostings
	ErrAlreadyReversed        = models.ErrAlreadyReversed
	ErrDuplicateLedger        = models.ErrDuplicateLedger
	ErrConcurrentModification = models.ErrConcurrentModification
)

// UnbalancedTransactionError carries the totals of a rejected transaction.
type UnbalancedTransactionError struct {
	Debits  money.Amount
	Credits money.Amount
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction is unbalanced: debits %s, credits %s", e.Debits, e.Credits)
}

func (e *UnbalancedTransactionError) Unwrap() error {
	return ErrUnbalancedTransaction
}

// Kind groups errors by how an application layer should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid       // reject the request
	KindNotFound      // a referenced entity does not exist
	KindConflict      // retry after re-reading balances
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrConcurrentModification):
		return KindConflict
	case errors.Is(err, ErrUnknownJournal),
		errors.Is(err, ErrUnknownLedger),
		errors.Is(err, ErrUnknownTransaction):
		return KindNotFound
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrInvalidLedgerType),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrEmptyTransaction),
		errors.Is(err, ErrUnbalancedTransaction),
		errors.Is(err, ErrAlreadyCommitted),
		errors.Is(err, ErrJournalNotAssigned),
		errors.Is(err, ErrJournalHasPostings),
		errors.Is(err, ErrAlreadyReversed),
		errors.Is(err, ErrDuplicateLedger):
		return KindInvalid
	}
	return KindInternal
}

// Retryable reports whether re-running the operation may succeed.
func Retryable(err error) bool {
	return Classify(err) == KindConflict
}
