package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"unexpected", errors.New("disk on fire"), KindInternal},
		{"conflict", fmt.Errorf("journal x: %w", models.ErrConcurrentModification), KindConflict},
		{"unknown journal", fmt.Errorf("journal x: %w", models.ErrJournalNotFound), KindNotFound},
		{"unknown ledger", ErrUnknownLedger, KindNotFound},
		{"unknown transaction", ErrUnknownTransaction, KindNotFound},
		{"unbalanced", &UnbalancedTransactionError{}, KindInvalid},
		{"empty", ErrEmptyTransaction, KindInvalid},
		{"amount", fmt.Errorf("posting 0: %w", ErrInvalidAmount), KindInvalid},
		{"not assigned", ErrJournalNotAssigned, KindInvalid},
		{"already reversed", ErrAlreadyReversed, KindInvalid},
		{"duplicate ledger", ErrDuplicateLedger, KindInvalid},
		{"drift", ErrBalanceDrift, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want == KindConflict, Retryable(tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid", KindInvalid.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "internal", KindInternal.String())
}

func TestUnbalancedTransactionError(t *testing.T) {
	err := error(&UnbalancedTransactionError{})
	assert.ErrorIs(t, err, ErrUnbalancedTransaction)
	assert.Contains(t, err.Error(), "debits 0, credits 0")
}
