package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
)

const (
	ledgerColumns  = `id, name, type, balance, created_at`
	journalColumns = `id, name, ledger_id, balance, created_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLedger(row rowScanner) (models.Ledger, error) {
	var l models.Ledger
	var typ string
	if err := row.Scan(&l.ID, &l.Name, &typ, &l.Balance, &l.CreatedAt); err != nil {
		return models.Ledger{}, err
	}
	l.Type = models.LedgerType(typ)
	return l, nil
}

func scanJournal(row rowScanner) (models.Journal, error) {
	var j models.Journal
	if err := row.Scan(&j.ID, &j.Name, &j.LedgerID, &j.Balance, &j.CreatedAt); err != nil {
		return models.Journal{}, err
	}
	return j, nil
}

func (s *SQLStore) CreateLedger(ctx context.Context, ledger models.Ledger, unique bool) error {
	const insert = `INSERT INTO ledgers (id, name, type, balance, created_at) VALUES (?, ?, ?, ?, ?)`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if unique {
			if s.dialect.LockLedgerTable != "" {
				if _, err := tx.ExecContext(ctx, s.dialect.LockLedgerTable); err != nil {
					return fmt.Errorf("failed to lock ledgers: %w", err)
				}
			}
			const query = `SELECT 1 FROM ledgers WHERE name = ? AND type = ? LIMIT 1`
			var exists int
			err := tx.QueryRowContext(ctx, s.rebind(query), ledger.Name, string(ledger.Type)).Scan(&exists)
			if err == nil {
				return fmt.Errorf("%s (%s): %w", ledger.Name, ledger.Type, models.ErrDuplicateLedger)
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to check ledger uniqueness: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, s.rebind(insert),
			ledger.ID, ledger.Name, string(ledger.Type), ledger.Balance, ledger.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert ledger: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) GetLedger(ctx context.Context, id uuid.UUID) (models.Ledger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledgers WHERE id = ?`

	l, err := scanLedger(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ledger{}, fmt.Errorf("ledger %s: %w", id, models.ErrLedgerNotFound)
	}
	if err != nil {
		return models.Ledger{}, fmt.Errorf("failed to get ledger: %w", err)
	}
	return l, nil
}

func (s *SQLStore) ListLedgers(ctx context.Context) ([]models.Ledger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledgers ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []models.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger: %w", err)
		}
		ledgers = append(ledgers, l)
	}
	return ledgers, rows.Err()
}

func (s *SQLStore) CreateJournal(ctx context.Context, journal models.Journal) error {
	const query = `INSERT INTO journals (id, name, ledger_id, balance, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		journal.ID, journal.Name, journal.LedgerID, journal.Balance, journal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert journal: %w", err)
	}
	return nil
}

func (s *SQLStore) GetJournal(ctx context.Context, id uuid.UUID) (models.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE id = ?`

	j, err := scanJournal(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Journal{}, fmt.Errorf("journal %s: %w", id, models.ErrJournalNotFound)
	}
	if err != nil {
		return models.Journal{}, fmt.Errorf("failed to get journal: %w", err)
	}
	return j, nil
}

func (s *SQLStore) ListJournals(ctx context.Context) ([]models.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	defer rows.Close()

	var journals []models.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal: %w", err)
		}
		journals = append(journals, j)
	}
	return journals, rows.Err()
}

func (s *SQLStore) AssignJournal(ctx context.Context, journalID, ledgerID uuid.UUID, allowWithPostings bool) (uuid.NullUUID, error) {
	var previous uuid.NullUUID

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		journals, err := s.lockJournals(ctx, tx, []uuid.UUID{journalID})
		if err != nil {
			return err
		}
		j, ok := journals[journalID]
		if !ok {
			return fmt.Errorf("journal %s: %w", journalID, models.ErrJournalNotFound)
		}
		previous = j.LedgerID

		if _, err := s.lockLedgers(ctx, tx, []uuid.UUID{ledgerID}); err != nil {
			return err
		}
		if previous.Valid && previous.UUID == ledgerID {
			return nil
		}

		if !allowWithPostings {
			has, err := hasPostings(ctx, tx, s.rebind(`SELECT 1 FROM postings WHERE journal_id = ? LIMIT 1`), journalID)
			if err != nil {
				return err
			}
			if has {
				return fmt.Errorf("journal %s: %w", journalID, models.ErrJournalHasPostings)
			}
		}

		const update = `UPDATE journals SET ledger_id = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, s.rebind(update), ledgerID, journalID); err != nil {
			return fmt.Errorf("failed to assign journal: %w", err)
		}
		return nil
	})
	return previous, err
}

func hasPostings(ctx context.Context, q queryer, query string, journalID uuid.UUID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, journalID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check journal postings: %w", err)
	}
	return true, nil
}

func (s *SQLStore) MigrateJournalHistory(ctx context.Context, journalID uuid.UUID) (int, error) {
	moved := 0

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		journals, err := s.lockJournals(ctx, tx, []uuid.UUID{journalID})
		if err != nil {
			return err
		}
		j, ok := journals[journalID]
		if !ok {
			return fmt.Errorf("journal %s: %w", journalID, models.ErrJournalNotFound)
		}
		if !j.LedgerID.Valid {
			return fmt.Errorf("journal %s: %w", journalID, models.ErrJournalNotAssigned)
		}
		target := j.LedgerID.UUID

		query := `SELECT sequence, ledger_id, direction, amount, signed_amount
			FROM postings WHERE journal_id = ? AND ledger_id <> ? ORDER BY sequence`
		rows, err := tx.QueryContext(ctx, s.rebind(query), journalID, target)
		if err != nil {
			return fmt.Errorf("failed to load journal history: %w", err)
		}

		type stale struct {
			sequence  int64
			ledgerID  uuid.UUID
			direction models.Direction
			amount    money.Amount
			signed    money.Amount
		}
		var moving []stale
		ledgerIDs := []uuid.UUID{target}
		for rows.Next() {
			var p stale
			var dir string
			if err := rows.Scan(&p.sequence, &p.ledgerID, &dir, &p.amount, &p.signed); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan posting: %w", err)
			}
			p.direction = models.Direction(dir)
			moving = append(moving, p)
			ledgerIDs = append(ledgerIDs, p.ledgerID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(moving) == 0 {
			return nil
		}

		ledgers, err := s.lockLedgers(ctx, tx, ledgerIDs)
		if err != nil {
			return err
		}
		targetType := ledgers[target].Type

		balances := make(map[uuid.UUID]money.Amount, len(ledgers))
		for id, l := range ledgers {
			balances[id] = l.Balance
		}
		journalBalance := j.Balance

		const updatePosting = `UPDATE postings SET ledger_id = ?, signed_amount = ? WHERE sequence = ?`
		for _, p := range moving {
			resigned := targetType.Signed(p.direction, p.amount)
			balances[p.ledgerID] = balances[p.ledgerID].Sub(p.signed)
			balances[target] = balances[target].Add(resigned)
			journalBalance = journalBalance.Add(resigned.Sub(p.signed))

			if _, err := tx.ExecContext(ctx, s.rebind(updatePosting), target, resigned, p.sequence); err != nil {
				return fmt.Errorf("failed to move posting %d: %w", p.sequence, err)
			}
		}

		if err := s.writeLedgerBalances(ctx, tx, balances); err != nil {
			return err
		}
		if err := s.writeJournalBalances(ctx, tx, map[uuid.UUID]money.Amount{journalID: journalBalance}); err != nil {
			return err
		}
		moved = len(moving)
		return nil
	})
	return moved, err
}
