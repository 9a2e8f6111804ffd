package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteLedgerStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "ledger.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedPair(t *testing.T, s *SQLiteLedgerStore) (cash, sales models.Journal) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	assets := models.NewLedger("Assets", models.LedgerAsset, now)
	income := models.NewLedger("Income", models.LedgerIncome, now)
	require.NoError(t, s.CreateLedger(ctx, assets, false))
	require.NoError(t, s.CreateLedger(ctx, income, false))

	cash = models.NewJournal("Cash", now)
	sales = models.NewJournal("Sales", now)
	require.NoError(t, s.CreateJournal(ctx, cash))
	require.NoError(t, s.CreateJournal(ctx, sales))
	_, err := s.AssignJournal(ctx, cash.ID, assets.ID, false)
	require.NoError(t, err)
	_, err = s.AssignJournal(ctx, sales.ID, income.ID, false)
	require.NoError(t, err)
	return cash, sales
}

func request(debit, credit uuid.UUID, amount string) interfaces.CommitRequest {
	a := money.MustNew(amount)
	return interfaces.CommitRequest{
		TransactionID: uuid.New(),
		Memo:          "test",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
		Postings: []interfaces.PostingDraft{
			{JournalID: debit, Direction: models.Debit, Amount: a},
			{JournalID: credit, Direction: models.Credit, Amount: a},
		},
	}
}

func count(t *testing.T, s *SQLiteLedgerStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n))
	return n
}

func TestOpen_MigratesOnce(t *testing.T) {
	store := openTestStore(t)

	// A second run over the same file is a no-op.
	require.NoError(t, Migrate(store.Path()))

	reopened, err := Open(context.Background(), store.Path(), time.Second)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 0, count(t, store, "ledgers"))
}

func TestCommit_AmountsStoredAsText(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	cash, sales := seedPair(t, store)

	_, err := store.Commit(ctx, request(cash.ID, sales.ID, "0.10"))
	require.NoError(t, err)
	_, err = store.Commit(ctx, request(cash.ID, sales.ID, "0.20"))
	require.NoError(t, err)

	var typ string
	require.NoError(t, store.DB().QueryRow(`SELECT typeof(balance) FROM journals WHERE id = ?`, cash.ID).Scan(&typ))
	assert.Equal(t, "text", typ)

	j, err := store.GetJournal(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, money.MustNew("0.30").Equal(j.Balance), "got %s", j.Balance)
}

func TestCommit_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	cash, sales := seedPair(t, store)

	// Fail after the postings and journal balances have been written.
	_, err := store.DB().Exec(`CREATE TRIGGER reject_ledger_balance BEFORE UPDATE OF balance ON ledgers
		BEGIN SELECT RAISE(ABORT, 'ledger balance frozen'); END`)
	require.NoError(t, err)

	_, err = store.Commit(ctx, request(cash.ID, sales.ID, "10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger balance frozen")

	assert.Equal(t, 0, count(t, store, "transactions"))
	assert.Equal(t, 0, count(t, store, "postings"))
	for _, id := range []uuid.UUID{cash.ID, sales.ID} {
		j, err := store.GetJournal(ctx, id)
		require.NoError(t, err)
		assert.True(t, j.Balance.IsZero(), "journal %s balance %s", j.Name, j.Balance)
	}

	_, err = store.DB().Exec(`DROP TRIGGER reject_ledger_balance`)
	require.NoError(t, err)
	_, err = store.Commit(ctx, request(cash.ID, sales.ID, "10"))
	require.NoError(t, err)
	assert.Equal(t, 2, count(t, store, "postings"))
}

func TestCommit_ReversalLinks(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	cash, sales := seedPair(t, store)

	orig, err := store.Commit(ctx, request(cash.ID, sales.ID, "5"))
	require.NoError(t, err)

	rev := request(sales.ID, cash.ID, "5")
	rev.Reverses = uuid.NullUUID{UUID: orig.ID, Valid: true}
	_, err = store.Commit(ctx, rev)
	require.NoError(t, err)

	again := request(sales.ID, cash.ID, "5")
	again.Reverses = uuid.NullUUID{UUID: orig.ID, Valid: true}
	_, err = store.Commit(ctx, again)
	require.ErrorIs(t, err, models.ErrAlreadyReversed)

	loaded, err := store.GetTransaction(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, rev.TransactionID, loaded.ReversedByID.UUID)
	require.Len(t, loaded.Postings, 2)
	assert.Less(t, loaded.Postings[0].Sequence, loaded.Postings[1].Sequence)
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, IsConflict(fmt.Errorf("wrapped: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.False(t, IsConflict(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, IsConflict(errors.New("other")))
}
