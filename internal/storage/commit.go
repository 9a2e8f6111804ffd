package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

const postingColumns = `sequence, id, transaction_id, journal_id, ledger_id, direction,
	amount, signed_amount, resulting_balance, created_at`

// sortedIDs returns ids deduplicated in ascending byte order, which is also
// the order both postgres and sqlite use for ORDER BY id.
func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out)
}

func idArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// lockJournals row-locks the given journals in id order. Missing ids are
// simply absent from the result.
func (s *SQLStore) lockJournals(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) (map[uuid.UUID]models.Journal, error) {
	ordered := sortedIDs(ids)
	query := `SELECT ` + journalColumns + ` FROM journals WHERE id IN (` + placeholders(len(ordered)) + `) ORDER BY id` + s.dialect.ForUpdate

	rows, err := tx.QueryContext(ctx, s.rebind(query), idArgs(ordered)...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock journals: %w", err)
	}
	defer rows.Close()

	journals := make(map[uuid.UUID]models.Journal, len(ordered))
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal: %w", err)
		}
		journals[j.ID] = j
	}
	return journals, rows.Err()
}

// lockLedgers row-locks the given ledgers in id order and fails if any is missing.
func (s *SQLStore) lockLedgers(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) (map[uuid.UUID]models.Ledger, error) {
	ordered := sortedIDs(ids)
	query := `SELECT ` + ledgerColumns + ` FROM ledgers WHERE id IN (` + placeholders(len(ordered)) + `) ORDER BY id` + s.dialect.ForUpdate

	rows, err := tx.QueryContext(ctx, s.rebind(query), idArgs(ordered)...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock ledgers: %w", err)
	}
	defer rows.Close()

	ledgers := make(map[uuid.UUID]models.Ledger, len(ordered))
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger: %w", err)
		}
		ledgers[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ordered {
		if _, ok := ledgers[id]; !ok {
			return nil, fmt.Errorf("ledger %s: %w", id, models.ErrLedgerNotFound)
		}
	}
	return ledgers, nil
}

func (s *SQLStore) writeJournalBalances(ctx context.Context, tx *sql.Tx, balances map[uuid.UUID]money.Amount) error {
	const query = `UPDATE journals SET balance = ? WHERE id = ?`
	for _, id := range sortedIDs(mapKeys(balances)) {
		if _, err := tx.ExecContext(ctx, s.rebind(query), balances[id], id); err != nil {
			return fmt.Errorf("failed to update journal %s balance: %w", id, err)
		}
	}
	return nil
}

func (s *SQLStore) writeLedgerBalances(ctx context.Context, tx *sql.Tx, balances map[uuid.UUID]money.Amount) error {
	const query = `UPDATE ledgers SET balance = ? WHERE id = ?`
	for _, id := range sortedIDs(mapKeys(balances)) {
		if _, err := tx.ExecContext(ctx, s.rebind(query), balances[id], id); err != nil {
			return fmt.Errorf("failed to update ledger %s balance: %w", id, err)
		}
	}
	return nil
}

func mapKeys[V any](m map[uuid.UUID]V) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Commit writes the transaction, its postings and the new journal and ledger
// balances in a single database transaction.
func (s *SQLStore) Commit(ctx context.Context, req interfaces.CommitRequest) (models.Transaction, error) {
	var out models.Transaction

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if req.Reverses.Valid {
			query := `SELECT reversed_by_id FROM transactions WHERE id = ?` + s.dialect.ForUpdate
			var reversedBy uuid.NullUUID
			err := tx.QueryRowContext(ctx, s.rebind(query), req.Reverses.UUID).Scan(&reversedBy)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("transaction %s: %w", req.Reverses.UUID, models.ErrTransactionNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to lock reversed transaction: %w", err)
			}
			if reversedBy.Valid {
				return fmt.Errorf("transaction %s: %w", req.Reverses.UUID, models.ErrAlreadyReversed)
			}
		}

		journalIDs := make([]uuid.UUID, 0, len(req.Postings))
		for _, d := range req.Postings {
			journalIDs = append(journalIDs, d.JournalID)
		}
		journals, err := s.lockJournals(ctx, tx, journalIDs)
		if err != nil {
			return err
		}

		ledgerIDs := make([]uuid.UUID, 0, len(journals))
		for _, d := range req.Postings {
			j, ok := journals[d.JournalID]
			if !ok {
				return fmt.Errorf("journal %s: %w", d.JournalID, models.ErrJournalNotFound)
			}
			if !j.LedgerID.Valid {
				return fmt.Errorf("journal %s: %w", d.JournalID, models.ErrJournalNotAssigned)
			}
			ledgerIDs = append(ledgerIDs, d.Ledger(j.LedgerID.UUID))
		}
		ledgers, err := s.lockLedgers(ctx, tx, ledgerIDs)
		if err != nil {
			return err
		}

		journalBalance := make(map[uuid.UUID]money.Amount, len(journals))
		for id, j := range journals {
			journalBalance[id] = j.Balance
		}
		ledgerBalance := make(map[uuid.UUID]money.Amount, len(ledgers))
		for id, l := range ledgers {
			ledgerBalance[id] = l.Balance
		}

		const insertTx = `INSERT INTO transactions (id, memo, created_at, reverses_id) VALUES (?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, s.rebind(insertTx), req.TransactionID, req.Memo, req.CreatedAt, req.Reverses); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		const insertPosting = `INSERT INTO postings
			(id, transaction_id, journal_id, ledger_id, direction, amount, signed_amount, resulting_balance, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING sequence`

		postings := make([]models.Posting, 0, len(req.Postings))
		for _, d := range req.Postings {
			j := journals[d.JournalID]
			l := ledgers[d.Ledger(j.LedgerID.UUID)]

			signed := l.Type.Signed(d.Direction, d.Amount)
			if d.Signed != nil {
				signed = *d.Signed
			}
			journalBalance[j.ID] = journalBalance[j.ID].Add(signed)
			ledgerBalance[l.ID] = ledgerBalance[l.ID].Add(signed)

			p := models.Posting{
				ID:               uuid.New(),
				TransactionID:    req.TransactionID,
				JournalID:        j.ID,
				LedgerID:         l.ID,
				Direction:        d.Direction,
				Amount:           d.Amount,
				SignedAmount:     signed,
				ResultingBalance: journalBalance[j.ID],
				CreatedAt:        req.CreatedAt,
			}
			err := tx.QueryRowContext(ctx, s.rebind(insertPosting),
				p.ID, p.TransactionID, p.JournalID, p.LedgerID, string(p.Direction),
				p.Amount, p.SignedAmount, p.ResultingBalance, p.CreatedAt,
			).Scan(&p.Sequence)
			if err != nil {
				return fmt.Errorf("failed to insert posting: %w", err)
			}
			postings = append(postings, p)
		}

		if err := s.writeJournalBalances(ctx, tx, journalBalance); err != nil {
			return err
		}
		if err := s.writeLedgerBalances(ctx, tx, ledgerBalance); err != nil {
			return err
		}

		if req.Reverses.Valid {
			const link = `UPDATE transactions SET reversed_by_id = ? WHERE id = ?`
			if _, err := tx.ExecContext(ctx, s.rebind(link), req.TransactionID, req.Reverses.UUID); err != nil {
				return fmt.Errorf("failed to link reversal: %w", err)
			}
		}

		out = models.Transaction{
			ID:         req.TransactionID,
			Memo:       req.Memo,
			CreatedAt:  req.CreatedAt,
			ReversesID: req.Reverses,
			Postings:   postings,
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return out, nil
}

func (s *SQLStore) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	const query = `SELECT id, memo, created_at, reverses_id, reversed_by_id FROM transactions WHERE id = ?`

	var tx models.Transaction
	err := s.db.QueryRowContext(ctx, s.rebind(query), id).Scan(
		&tx.ID, &tx.Memo, &tx.CreatedAt, &tx.ReversesID, &tx.ReversedByID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, models.ErrTransactionNotFound)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}

	postings, err := s.queryPostings(ctx, s.db,
		`SELECT `+postingColumns+` FROM postings WHERE transaction_id = ? ORDER BY sequence`, id)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.Postings = postings
	return tx, nil
}

func (s *SQLStore) Postings(ctx context.Context, filter interfaces.PostingFilter) ([]models.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM postings WHERE 1 = 1`
	var args []any
	if filter.JournalID.Valid {
		query += ` AND journal_id = ?`
		args = append(args, filter.JournalID.UUID)
	}
	if filter.LedgerID.Valid {
		query += ` AND ledger_id = ?`
		args = append(args, filter.LedgerID.UUID)
	}
	if !filter.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, filter.To)
	}
	query += ` ORDER BY created_at, sequence`

	return s.queryPostings(ctx, s.db, query, args...)
}

func (s *SQLStore) queryPostings(ctx context.Context, q queryer, query string, args ...any) ([]models.Posting, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	var postings []models.Posting
	for rows.Next() {
		var p models.Posting
		var dir string
		if err := rows.Scan(&p.Sequence, &p.ID, &p.TransactionID, &p.JournalID, &p.LedgerID, &dir,
			&p.Amount, &p.SignedAmount, &p.ResultingBalance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		p.Direction = models.Direction(dir)
		postings = append(postings, p)
	}
	return postings, rows.Err()
}
