package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models/events"
	"go.uber.org/zap"
)

// Commit validates the builder and applies it atomically: the transaction,
// every posting and every journal and ledger balance update are stored
// together or not at all. A failed commit leaves the builder usable, so a
// caller that gets ErrConcurrentModification may commit it again.
func (e *Engine) Commit(ctx context.Context, b *TransactionBuilder) (models.Transaction, error) {
	if err := b.validate(); err != nil {
		return models.Transaction{}, err
	}

	tx, err := e.apply(ctx, interfaces.CommitRequest{
		TransactionID: uuid.New(),
		Memo:          b.memo,
		CreatedAt:     e.now(),
		Postings:      b.postings,
	})
	if err != nil {
		return models.Transaction{}, err
	}
	b.committed = true
	return tx, nil
}

// Reverse commits a transaction that mirrors txID: same journals and amounts,
// opposite directions, and signed effects that exactly cancel the original.
// Each mirrored leg lands on the ledger of the posting it cancels, even if the
// journal has moved since. Both transactions are linked. An empty memo gets a
// default.
func (e *Engine) Reverse(ctx context.Context, txID uuid.UUID, memo string) (models.Transaction, error) {
	orig, err := e.store.GetTransaction(ctx, txID)
	if err != nil {
		return models.Transaction{}, err
	}
	if orig.Reversed() {
		return models.Transaction{}, fmt.Errorf("transaction %s reversed by %s: %w", orig.ID, orig.ReversedByID.UUID, ErrAlreadyReversed)
	}

	drafts := make([]interfaces.PostingDraft, 0, len(orig.Postings))
	for _, p := range orig.Postings {
		negated := p.SignedAmount.Neg()
		drafts = append(drafts, interfaces.PostingDraft{
			JournalID: p.JournalID,
			Direction: p.Direction.Opposite(),
			Amount:    p.Amount,
			LedgerID:  uuid.NullUUID{UUID: p.LedgerID, Valid: true},
			Signed:    &negated,
		})
	}
	if memo == "" {
		memo = "Reversal of " + orig.ID.String()
	}

	rev, err := e.apply(ctx, interfaces.CommitRequest{
		TransactionID: uuid.New(),
		Memo:          memo,
		CreatedAt:     e.now(),
		Reverses:      uuid.NullUUID{UUID: orig.ID, Valid: true},
		Postings:      drafts,
	})
	if err != nil {
		return models.Transaction{}, err
	}

	e.logger.Info("transaction reversed",
		zap.Stringer("transaction_id", orig.ID),
		zap.Stringer("reversal_id", rev.ID),
	)
	return rev, nil
}

func (e *Engine) apply(ctx context.Context, req interfaces.CommitRequest) (models.Transaction, error) {
	tx, err := e.store.Commit(ctx, req)
	if err != nil {
		e.logger.Debug("commit rejected",
			zap.Stringer("transaction_id", req.TransactionID),
			zap.Error(err),
		)
		return models.Transaction{}, err
	}

	e.logger.Debug("transaction committed",
		zap.Stringer("transaction_id", tx.ID),
		zap.Int("postings", len(tx.Postings)),
	)
	e.publish(ctx, events.TopicTransactionCommitted, tx.ID.String(), events.NewTransactionCommitted(tx))
	return tx, nil
}

// GetTransaction returns a committed transaction with its postings.
func (e *Engine) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return e.store.GetTransaction(ctx, id)
}
