package chart

import (
	"context"
	"fmt"
	"strings"

	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
)

// Seeded holds what Seed created or found, keyed by name.
type Seeded struct {
	Ledgers  map[string]models.Ledger
	Journals map[string]models.Journal
	Created  int // ledgers and journals that did not exist before
}

// Ledger returns the seeded ledger called name, or a zero ledger.
func (s Seeded) Ledger(name string) models.Ledger { return s.Ledgers[name] }

// Journal returns the seeded journal called name, or a zero journal.
func (s Seeded) Journal(name string) models.Journal { return s.Journals[name] }

// Seed creates whatever part of the chart is missing. Running it again reuses
// ledgers matched by name and type and journals matched by name, so it is
// safe to call on every start-up.
func Seed(ctx context.Context, e *ledger.Engine, c Chart) (Seeded, error) {
	if err := c.Validate(); err != nil {
		return Seeded{}, err
	}

	existingLedgers, err := e.ListLedgers(ctx)
	if err != nil {
		return Seeded{}, err
	}
	existingJournals, err := e.ListJournals(ctx)
	if err != nil {
		return Seeded{}, err
	}

	out := Seeded{
		Ledgers:  make(map[string]models.Ledger),
		Journals: make(map[string]models.Journal),
	}

	for _, def := range c.Ledgers {
		name := strings.TrimSpace(def.Name)
		l, found := findLedger(existingLedgers, name, def.Type)
		if !found {
			l, err = e.CreateLedger(ctx, name, def.Type)
			if err != nil {
				return out, fmt.Errorf("ledger %q: %w", name, err)
			}
			out.Created++
		}
		out.Ledgers[name] = l

		for _, jn := range def.Journals {
			jn = strings.TrimSpace(jn)
			j, found := findJournal(existingJournals, jn)
			if !found {
				j, err = e.CreateJournal(ctx, jn)
				if err != nil {
					return out, fmt.Errorf("journal %q: %w", jn, err)
				}
				out.Created++
			}
			if !j.LedgerID.Valid || j.LedgerID.UUID != l.ID {
				j, err = e.AssignToLedger(ctx, j.ID, l.ID)
				if err != nil {
					return out, fmt.Errorf("journal %q: %w", jn, err)
				}
			}
			out.Journals[jn] = j
		}
	}
	return out, nil
}

func findLedger(ledgers []models.Ledger, name string, typ models.LedgerType) (models.Ledger, bool) {
	for _, l := range ledgers {
		if l.Name == name && l.Type == typ {
			return l, true
		}
	}
	return models.Ledger{}, false
}

func findJournal(journals []models.Journal, name string) (models.Journal, bool) {
	for _, j := range journals {
		if j.Name == name {
			return j, true
		}
	}
	return models.Journal{}, false
}
