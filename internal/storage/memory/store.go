package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

// DefaultLockTimeout bounds how long a commit waits for a journal lock.
const DefaultLockTimeout = 5 * time.Second

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
//
// Journals behave like rows under SELECT ... FOR UPDATE: a commit takes an
// exclusive lock on every journal it touches, in ascending id order, and then
// publishes all of its writes in one step under mu. Readers take mu for
// reading, so they never see half of a commit.
type MemoryLedgerStore struct {
	mu           sync.RWMutex
	ledgers      map[uuid.UUID]*models.Ledger
	ledgerOrder  []uuid.UUID
	journals     map[uuid.UUID]*models.Journal
	journalOrder []uuid.UUID
	transactions map[uuid.UUID]*models.Transaction
	postings     []models.Posting // append-only, in sequence order
	sequence     int64

	lockMu      sync.Mutex                  // protects journalLocks itself
	journalLock map[uuid.UUID]chan struct{} // one-slot semaphores per journal
	lockTimeout time.Duration
}

// Option configures a MemoryLedgerStore.
type Option func(*MemoryLedgerStore)

// WithLockTimeout sets how long a commit waits for journal locks before
// failing with models.ErrConcurrentModification.
func WithLockTimeout(d time.Duration) Option {
	return func(m *MemoryLedgerStore) {
		if d > 0 {
			m.lockTimeout = d
		}
	}
}

// NewMemoryLedgerStore creates an empty store.
func NewMemoryLedgerStore(opts ...Option) *MemoryLedgerStore {
	m := &MemoryLedgerStore{
		ledgers:      make(map[uuid.UUID]*models.Ledger),
		journals:     make(map[uuid.UUID]*models.Journal),
		transactions: make(map[uuid.UUID]*models.Transaction),
		journalLock:  make(map[uuid.UUID]chan struct{}),
		lockTimeout:  DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryLedgerStore) getJournalLock(id uuid.UUID) chan struct{} {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	if _, exists := m.journalLock[id]; !exists {
		m.journalLock[id] = make(chan struct{}, 1)
	}
	return m.journalLock[id]
}

// lockJournals acquires the journal locks in ascending id order so two
// commits over overlapping journal sets cannot deadlock. The returned func
// releases everything that was acquired.
func (m *MemoryLedgerStore) lockJournals(ctx context.Context, ids []uuid.UUID) (func(), error) {
	ordered := sortedUnique(ids)
	held := make([]chan struct{}, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	timer := time.NewTimer(m.lockTimeout)
	defer timer.Stop()

	for _, id := range ordered {
		lock := m.getJournalLock(id)
		select {
		case lock <- struct{}{}:
			held = append(held, lock)
		case <-timer.C:
			release()
			return nil, fmt.Errorf("journal %s locked for more than %s: %w", id, m.lockTimeout, models.ErrConcurrentModification)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (m *MemoryLedgerStore) CreateLedger(ctx context.Context, ledger models.Ledger, unique bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if unique {
		for _, l := range m.ledgers {
			if l.Name == ledger.Name && l.Type == ledger.Type {
				return fmt.Errorf("%s (%s): %w", ledger.Name, ledger.Type, models.ErrDuplicateLedger)
			}
		}
	}
	stored := ledger
	m.ledgers[ledger.ID] = &stored
	m.ledgerOrder = append(m.ledgerOrder, ledger.ID)
	return nil
}

func (m *MemoryLedgerStore) GetLedger(ctx context.Context, id uuid.UUID) (models.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.ledgers[id]
	if !ok {
		return models.Ledger{}, fmt.Errorf("ledger %s: %w", id, models.ErrLedgerNotFound)
	}
	return *l, nil
}

func (m *MemoryLedgerStore) ListLedgers(ctx context.Context) ([]models.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Ledger, 0, len(m.ledgerOrder))
	for _, id := range m.ledgerOrder {
		out = append(out, *m.ledgers[id])
	}
	return out, nil
}

func (m *MemoryLedgerStore) CreateJournal(ctx context.Context, journal models.Journal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if journal.LedgerID.Valid {
		if _, ok := m.ledgers[journal.LedgerID.UUID]; !ok {
			return fmt.Errorf("ledger %s: %w", journal.LedgerID.UUID, models.ErrLedgerNotFound)
		}
	}
	stored := journal
	m.journals[journal.ID] = &stored
	m.journalOrder = append(m.journalOrder, journal.ID)
	return nil
}

func (m *MemoryLedgerStore) GetJournal(ctx context.Context, id uuid.UUID) (models.Journal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.journals[id]
	if !ok {
		return models.Journal{}, fmt.Errorf("journal %s: %w", id, models.ErrJournalNotFound)
	}
	return *j, nil
}

func (m *MemoryLedgerStore) ListJournals(ctx context.Context) ([]models.Journal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Journal, 0, len(m.journalOrder))
	for _, id := range m.journalOrder {
		out = append(out, *m.journals[id])
	}
	return out, nil
}

func (m *MemoryLedgerStore) AssignJournal(ctx context.Context, journalID, ledgerID uuid.UUID, allowWithPostings bool) (uuid.NullUUID, error) {
	release, err := m.lockJournals(ctx, []uuid.UUID{journalID})
	if err != nil {
		return uuid.NullUUID{}, err
	}
	defer release()

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.journals[journalID]
	if !ok {
		return uuid.NullUUID{}, fmt.Errorf("journal %s: %w", journalID, models.ErrJournalNotFound)
	}
	if _, ok := m.ledgers[ledgerID]; !ok {
		return uuid.NullUUID{}, fmt.Errorf("ledger %s: %w", ledgerID, models.ErrLedgerNotFound)
	}
	previous := j.LedgerID
	if previous.Valid && previous.UUID == ledgerID {
		return previous, nil
	}
	if !allowWithPostings && m.hasPostingsLocked(journalID) {
		return previous, fmt.Errorf("journal %s: %w", journalID, models.ErrJournalHasPostings)
	}
	j.LedgerID = uuid.NullUUID{UUID: ledgerID, Valid: true}
	return previous, nil
}

func (m *MemoryLedgerStore) hasPostingsLocked(journalID uuid.UUID) bool {
	for _, p := range m.postings {
		if p.JournalID == journalID {
			return true
		}
	}
	return false
}

func (m *MemoryLedgerStore) MigrateJournalHistory(ctx context.Context, journalID uuid.UUID) (int, error) {
	release, err := m.lockJournals(ctx, []uuid.UUID{journalID})
	if err != nil {
		return 0, err
	}
	defer release()

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.journals[journalID]
	if !ok {
		return 0, fmt.Errorf("journal %s: %w", journalID, models.ErrJournalNotFound)
	}
	if !j.LedgerID.Valid {
		return 0, fmt.Errorf("journal %s: %w", journalID, models.ErrJournalNotAssigned)
	}
	target := m.ledgers[j.LedgerID.UUID]

	moved := 0
	for i := range m.postings {
		p := &m.postings[i]
		if p.JournalID != journalID || p.LedgerID == target.ID {
			continue
		}
		resigned := target.Type.Signed(p.Direction, p.Amount)
		if from, ok := m.ledgers[p.LedgerID]; ok {
			from.Balance = from.Balance.Sub(p.SignedAmount)
		}
		target.Balance = target.Balance.Add(resigned)
		j.Balance = j.Balance.Add(resigned.Sub(p.SignedAmount))
		m.retagPostingLocked(p.ID, target.ID, resigned)
		p.LedgerID = target.ID
		p.SignedAmount = resigned
		moved++
	}
	return moved, nil
}

// retagPostingLocked keeps the copy embedded in the owning transaction in step
// with the posting log.
func (m *MemoryLedgerStore) retagPostingLocked(postingID, ledgerID uuid.UUID, signed money.Amount) {
	for _, tx := range m.transactions {
		for i := range tx.Postings {
			if tx.Postings[i].ID == postingID {
				tx.Postings[i].LedgerID = ledgerID
				tx.Postings[i].SignedAmount = signed
				return
			}
		}
	}
}

// Commit applies req atomically. Every check runs before the first write, and
// the writes are published under one critical section.
func (m *MemoryLedgerStore) Commit(ctx context.Context, req interfaces.CommitRequest) (models.Transaction, error) {
	journalIDs := make([]uuid.UUID, 0, len(req.Postings))
	for _, d := range req.Postings {
		journalIDs = append(journalIDs, d.JournalID)
	}

	release, err := m.lockJournals(ctx, journalIDs)
	if err != nil {
		return models.Transaction{}, err
	}
	defer release()

	m.mu.Lock()
	defer m.mu.Unlock()

	if req.Reverses.Valid {
		orig, ok := m.transactions[req.Reverses.UUID]
		if !ok {
			return models.Transaction{}, fmt.Errorf("transaction %s: %w", req.Reverses.UUID, models.ErrTransactionNotFound)
		}
		if orig.ReversedByID.Valid {
			return models.Transaction{}, fmt.Errorf("transaction %s: %w", orig.ID, models.ErrAlreadyReversed)
		}
	}

	// Stage: resolve journals and compute every posting without touching state.
	journalBalance := make(map[uuid.UUID]money.Amount)
	ledgerDelta := make(map[uuid.UUID]money.Amount)
	postings := make([]models.Posting, 0, len(req.Postings))
	seq := m.sequence

	for _, d := range req.Postings {
		j, ok := m.journals[d.JournalID]
		if !ok {
			return models.Transaction{}, fmt.Errorf("journal %s: %w", d.JournalID, models.ErrJournalNotFound)
		}
		if !j.LedgerID.Valid {
			return models.Transaction{}, fmt.Errorf("journal %s: %w", d.JournalID, models.ErrJournalNotAssigned)
		}
		l, ok := m.ledgers[d.Ledger(j.LedgerID.UUID)]
		if !ok {
			return models.Transaction{}, fmt.Errorf("ledger %s: %w", d.Ledger(j.LedgerID.UUID), models.ErrLedgerNotFound)
		}

		signed := l.Type.Signed(d.Direction, d.Amount)
		if d.Signed != nil {
			signed = *d.Signed
		}
		running, seen := journalBalance[j.ID]
		if !seen {
			running = j.Balance
		}
		running = running.Add(signed)
		journalBalance[j.ID] = running
		ledgerDelta[l.ID] = ledgerDelta[l.ID].Add(signed)

		seq++
		postings = append(postings, models.Posting{
			ID:               uuid.New(),
			TransactionID:    req.TransactionID,
			JournalID:        j.ID,
			LedgerID:         l.ID,
			Direction:        d.Direction,
			Amount:           d.Amount,
			SignedAmount:     signed,
			ResultingBalance: running,
			Sequence:         seq,
			CreatedAt:        req.CreatedAt,
		})
	}

	// Apply.
	tx := &models.Transaction{
		ID:         req.TransactionID,
		Memo:       req.Memo,
		CreatedAt:  req.CreatedAt,
		ReversesID: req.Reverses,
		Postings:   postings,
	}
	m.transactions[tx.ID] = tx
	m.postings = append(m.postings, postings...)
	m.sequence = seq
	for id, bal := range journalBalance {
		m.journals[id].Balance = bal
	}
	for id, delta := range ledgerDelta {
		m.ledgers[id].Balance = m.ledgers[id].Balance.Add(delta)
	}
	if req.Reverses.Valid {
		m.transactions[req.Reverses.UUID].ReversedByID = uuid.NullUUID{UUID: tx.ID, Valid: true}
	}

	return cloneTransaction(tx), nil
}

func (m *MemoryLedgerStore) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, models.ErrTransactionNotFound)
	}
	return cloneTransaction(tx), nil
}

func (m *MemoryLedgerStore) Postings(ctx context.Context, filter interfaces.PostingFilter) ([]models.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Posting
	for _, p := range m.postings {
		if filter.JournalID.Valid && p.JournalID != filter.JournalID.UUID {
			continue
		}
		if filter.LedgerID.Valid && p.LedgerID != filter.LedgerID.UUID {
			continue
		}
		if !filter.From.IsZero() && p.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.CreatedAt.After(filter.To) {
			continue
		}
		result = append(result, p)
	}

	// Caller-supplied clocks may go backwards, so the log is not necessarily in
	// time order; sequence breaks ties.
	slices.SortStableFunc(result, func(a, b models.Posting) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		}
		return 0
	})
	return result, nil
}

func cloneTransaction(tx *models.Transaction) models.Transaction {
	out := *tx
	out.Postings = slices.Clone(tx.Postings)
	return out
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out)
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
