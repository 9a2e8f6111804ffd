package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models/events"
	"go.uber.org/zap"
)

// CreateLedger creates a ledger with a zero balance.
func (e *Engine) CreateLedger(ctx context.Context, name string, typ models.LedgerType) (models.Ledger, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Ledger{}, fmt.Errorf("ledger: %w", ErrInvalidName)
	}
	if !typ.Valid() {
		return models.Ledger{}, fmt.Errorf("%q: %w", typ, ErrInvalidLedgerType)
	}

	l := models.NewLedger(name, typ, e.now())
	if err := e.store.CreateLedger(ctx, l, e.unique); err != nil {
		return models.Ledger{}, err
	}

	e.logger.Debug("ledger created",
		zap.Stringer("ledger_id", l.ID),
		zap.String("name", l.Name),
		zap.String("type", string(l.Type)),
	)
	return l, nil
}

func (e *Engine) GetLedger(ctx context.Context, id uuid.UUID) (models.Ledger, error) {
	return e.store.GetLedger(ctx, id)
}

func (e *Engine) ListLedgers(ctx context.Context) ([]models.Ledger, error) {
	return e.store.ListLedgers(ctx)
}

// LedgerJournals returns the journals currently assigned to ledgerID.
func (e *Engine) LedgerJournals(ctx context.Context, ledgerID uuid.UUID) ([]models.Journal, error) {
	if _, err := e.store.GetLedger(ctx, ledgerID); err != nil {
		return nil, err
	}
	all, err := e.store.ListJournals(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Journal
	for _, j := range all {
		if j.LedgerID.Valid && j.LedgerID.UUID == ledgerID {
			out = append(out, j)
		}
	}
	return out, nil
}

// CreateJournal creates an unassigned journal. It cannot accept postings until
// AssignToLedger is called.
func (e *Engine) CreateJournal(ctx context.Context, name string) (models.Journal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Journal{}, fmt.Errorf("journal: %w", ErrInvalidName)
	}

	j := models.NewJournal(name, e.now())
	if err := e.store.CreateJournal(ctx, j); err != nil {
		return models.Journal{}, err
	}

	e.logger.Debug("journal created", zap.Stringer("journal_id", j.ID), zap.String("name", j.Name))
	return j, nil
}

func (e *Engine) GetJournal(ctx context.Context, id uuid.UUID) (models.Journal, error) {
	return e.store.GetJournal(ctx, id)
}

func (e *Engine) ListJournals(ctx context.Context) ([]models.Journal, error) {
	return e.store.ListJournals(ctx)
}

// AssignToLedger binds a journal to a ledger. A journal that already has
// postings can only move with ReassignJournal.
func (e *Engine) AssignToLedger(ctx context.Context, journalID, ledgerID uuid.UUID) (models.Journal, error) {
	previous, err := e.store.AssignJournal(ctx, journalID, ledgerID, false)
	if errors.Is(err, ErrJournalHasPostings) {
		return models.Journal{}, fmt.Errorf("%w; use ReassignJournal to move it", err)
	}
	if err != nil {
		return models.Journal{}, err
	}

	e.logger.Debug("journal assigned",
		zap.Stringer("journal_id", journalID),
		zap.Stringer("ledger_id", ledgerID),
		zap.Bool("was_assigned", previous.Valid),
	)
	return e.store.GetJournal(ctx, journalID)
}

// ReassignJournal moves a journal, postings and all, to another ledger.
// Existing postings stay attributed to the ledger they were committed under;
// only future postings land on ledgerID. Call MigrateJournalHistory to move
// the history as well. Binding an unassigned journal is a plain assignment and
// is neither warned about nor published.
func (e *Engine) ReassignJournal(ctx context.Context, journalID, ledgerID uuid.UUID) (models.Journal, error) {
	previous, err := e.store.AssignJournal(ctx, journalID, ledgerID, true)
	if err != nil {
		return models.Journal{}, err
	}

	if !previous.Valid {
		e.logger.Debug("journal assigned",
			zap.Stringer("journal_id", journalID),
			zap.Stringer("ledger_id", ledgerID),
			zap.Bool("was_assigned", false),
		)
		return e.store.GetJournal(ctx, journalID)
	}

	if previous.UUID != ledgerID {
		e.logger.Warn("journal reassigned; historical postings keep their ledger",
			zap.Stringer("journal_id", journalID),
			zap.Stringer("from_ledger_id", previous.UUID),
			zap.Stringer("to_ledger_id", ledgerID),
		)
		e.publish(ctx, events.TopicJournalReassigned, journalID.String(), events.JournalReassigned{
			JournalID:    journalID,
			FromLedgerID: previous,
			ToLedgerID:   ledgerID,
			OccurredAt:   e.now(),
		})
	}
	return e.store.GetJournal(ctx, journalID)
}

// MigrateJournalHistory re-attributes every past posting of the journal to
// the ledger it is currently assigned to, re-signing each posting for that
// ledger's type. Journal and ledger balances are adjusted in the same store
// transaction. Per-posting ResultingBalance snapshots are left as recorded.
func (e *Engine) MigrateJournalHistory(ctx context.Context, journalID uuid.UUID) (int, error) {
	moved, err := e.store.MigrateJournalHistory(ctx, journalID)
	if err != nil {
		return 0, err
	}
	e.logger.Info("journal history migrated",
		zap.Stringer("journal_id", journalID),
		zap.Int("postings_moved", moved),
	)
	return moved, nil
}
