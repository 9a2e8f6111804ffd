package ledger_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eachStore runs fn once per backend. Postgres joins the set when
// LEDGER_TEST_POSTGRES_URL points at a scratch database; its tables are
// truncated before every run.
func eachStore(t *testing.T, fn func(t *testing.T, store interfaces.LedgerStore)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, memory.NewMemoryLedgerStore())
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), 0)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})

	t.Run("postgres", func(t *testing.T) {
		dsn := os.Getenv("LEDGER_TEST_POSTGRES_URL")
		if dsn == "" {
			t.Skip("LEDGER_TEST_POSTGRES_URL not set")
		}
		store, err := postgres.Open(context.Background(), dsn, 0)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		_, err = store.DB().Exec(`TRUNCATE postings, transactions, journals, ledgers`)
		require.NoError(t, err)
		fn(t, store)
	})
}

func newMemoryStore() *memory.MemoryLedgerStore { return memory.NewMemoryLedgerStore() }

// fakeClock is a settable clock for WithClock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

// recordingPublisher keeps every event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

func amt(s string) money.Amount { return money.MustNew(s) }

func assertAmount(t *testing.T, want string, got money.Amount, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, amt(want).Equal(got), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func journalBalance(t *testing.T, e *ledger.Engine, id uuid.UUID) money.Amount {
	t.Helper()
	b, err := e.JournalBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func ledgerBalance(t *testing.T, e *ledger.Engine, id uuid.UUID) money.Amount {
	t.Helper()
	b, err := e.LedgerBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

// transfer commits a two-legged transaction debiting one journal and
// crediting another.
func transfer(t *testing.T, e *ledger.Engine, memo string, debit, credit uuid.UUID, amount string) models.Transaction {
	t.Helper()
	b := e.Begin(memo)
	require.NoError(t, b.Debit(debit, amt(amount)))
	require.NoError(t, b.Credit(credit, amt(amount)))
	tx, err := e.Commit(context.Background(), b)
	require.NoError(t, err)
	return tx
}

// newAssignedJournal creates a journal and assigns it to ledgerID.
func newAssignedJournal(t *testing.T, e *ledger.Engine, name string, ledgerID uuid.UUID) models.Journal {
	t.Helper()
	ctx := context.Background()
	j, err := e.CreateJournal(ctx, name)
	require.NoError(t, err)
	j, err = e.AssignToLedger(ctx, j.ID, ledgerID)
	require.NoError(t, err)
	return j
}
