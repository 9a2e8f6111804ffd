package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// app is an opened store plus the engine over it.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  interfaces.LedgerStore
	engine *ledger.Engine

	closers []func() error
}

func openApp(ctx context.Context, opts *options) (*app, error) {
	cfg := opts.cfg
	a := &app{cfg: cfg, logger: opts.logger}

	switch cfg.Store.Backend {
	case config.StoreMemory:
		a.store = memory.NewMemoryLedgerStore(memory.WithLockTimeout(cfg.Store.LockTimeout))
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.SQLitePath, cfg.Store.LockTimeout)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.Store.DatabaseURL, cfg.Store.LockTimeout)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store.Backend)
	}
	a.logger.Debug("store opened", zap.String("backend", cfg.Store.Backend))

	engineOpts := []ledger.Option{
		ledger.WithLogger(a.logger),
		ledger.WithScale(cfg.Ledger.Scale),
		ledger.WithUniqueLedgerNames(cfg.Ledger.UniqueLedgerNames),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		// Flush the publisher before the store goes away.
		a.closers = append([]func() error{pub.Close}, a.closers...)
		engineOpts = append(engineOpts, ledger.WithPublisher(pub))
	}
	a.engine = ledger.NewEngine(a.store, engineOpts...)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("failed to close", zap.Error(err))
		}
	}
}

// withApp opens the app for one command run.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func (a *app) format(amount money.Amount) string {
	return money.Format(amount, a.cfg.Display.Currency)
}

// resolveJournal finds a journal by id or by exact name.
func (a *app) resolveJournal(ctx context.Context, ref string) (models.Journal, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return a.engine.GetJournal(ctx, id)
	}
	all, err := a.engine.ListJournals(ctx)
	if err != nil {
		return models.Journal{}, err
	}
	var found []models.Journal
	for _, j := range all {
		if j.Name == ref {
			found = append(found, j)
		}
	}
	switch len(found) {
	case 0:
		return models.Journal{}, fmt.Errorf("journal %q: %w", ref, ledger.ErrUnknownJournal)
	case 1:
		return found[0], nil
	}
	return models.Journal{}, fmt.Errorf("journal name %q is ambiguous (%d matches); use its id", ref, len(found))
}

// resolveLedger finds a ledger by id or by exact name.
func (a *app) resolveLedger(ctx context.Context, ref string) (models.Ledger, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return a.engine.GetLedger(ctx, id)
	}
	all, err := a.engine.ListLedgers(ctx)
	if err != nil {
		return models.Ledger{}, err
	}
	var found []models.Ledger
	for _, l := range all {
		if l.Name == ref {
			found = append(found, l)
		}
	}
	switch len(found) {
	case 0:
		return models.Ledger{}, fmt.Errorf("ledger %q: %w", ref, ledger.ErrUnknownLedger)
	case 1:
		return found[0], nil
	}
	return models.Ledger{}, fmt.Errorf("ledger name %q is ambiguous (%d matches); use its id", ref, len(found))
}

// resolveScope turns "journal Cash" or "ledger <id>" into a scope and a label.
func (a *app) resolveScope(ctx context.Context, kind, ref string) (ledger.Scope, string, error) {
	switch kind {
	case "journal":
		j, err := a.resolveJournal(ctx, ref)
		if err != nil {
			return ledger.Scope{}, "", err
		}
		return ledger.JournalScope(j.ID), j.Name, nil
	case "ledger":
		l, err := a.resolveLedger(ctx, ref)
		if err != nil {
			return ledger.Scope{}, "", err
		}
		return ledger.LedgerScope(l.ID), l.Name, nil
	}
	return ledger.Scope{}, "", fmt.Errorf("unknown scope %q: want journal or ledger", kind)
}

// parseTimeFlag accepts RFC 3339 or a bare UTC date. A bare date means the
// start of that day, or its last microsecond when endOfDay is set.
func parseTimeFlag(name, value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, value)
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, _ = fmt.Fprintln(w, t.String())
}

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render(successSymbol), fmt.Sprintf(format, args...))
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render(errorSymbol), errorStyle.Render(message))
}

// confirm asks a yes/no question on a terminal. Without one it answers no.
func confirm(question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, nil
	}

	var ok bool
	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&ok)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	return ok, nil
}

// shortID trims a uuid for table output.
func shortID(id uuid.UUID) string {
	return strings.SplitN(id.String(), "-", 2)[0]
}

var errAborted = errors.New("aborted")

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
