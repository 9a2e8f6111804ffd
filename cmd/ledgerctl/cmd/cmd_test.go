package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_STORE", "sqlite")
	t.Setenv("LEDGER_SQLITE_PATH", filepath.Join(t.TempDir(), "db", "ledger.db"))
	t.Setenv("LEDGER_LOG_LEVEL", "error")
	t.Setenv("LEDGER_CURRENCY", "USD")
	t.Setenv("LEDGER_KAFKA_BROKERS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

var committedID = regexp.MustCompile(`committed ([0-9a-f-]{36})`)

func TestLedgerctl_EndToEnd(t *testing.T) {
	setupEnv(t)

	assert.Contains(t, mustRun(t, "migrate"), "sqlite schema is up to date")
	assert.Contains(t, mustRun(t, "seed"), "5 ledgers, 3 journals, 8 created")
	assert.Contains(t, mustRun(t, "seed"), "0 created")

	out := mustRun(t, "post", "--memo", "Invoice #1 paid", "--debit", "Cash=500", "--credit", "Company Income=500")
	m := committedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	txID := m[1]

	assert.Contains(t, mustRun(t, "balance", "journal", "Cash"), "journal Cash: $500.00")
	assert.Contains(t, mustRun(t, "balance", "ledger", "Company Assets"), "ledger Company Assets: $500.00")
	assert.Contains(t, mustRun(t, "balance", "journal", "Cash", "--as-of", "2000-01-01"), "$0.00 as of 2000-01-01T23:59:59Z")
	today := time.Now().UTC().Format(time.DateOnly)
	assert.Contains(t, mustRun(t, "balance", "journal", "Cash", "--as-of", today), "journal Cash: $500.00")

	history := mustRun(t, "history", "journal", "Cash")
	assert.Contains(t, history, "debit")
	assert.Contains(t, history, "$500.00")

	accounts := mustRun(t, "accounts")
	assert.Contains(t, accounts, "Company Income")
	assert.Contains(t, accounts, "Accounts Receivable")
	assert.NotContains(t, accounts, "(unassigned)")

	assert.Contains(t, mustRun(t, "verify"), "all balances match")

	_, err := run(t, "post", "--debit", "Cash=100", "--credit", "Company Income=90")
	require.ErrorIs(t, err, ledger.ErrUnbalancedTransaction)
	assert.Contains(t, mustRun(t, "balance", "journal", "Cash"), "$500.00")

	assert.Contains(t, mustRun(t, "reverse", txID), "reversed "+txID)
	assert.Contains(t, mustRun(t, "balance", "journal", "Cash"), "$0.00")
	_, err = run(t, "reverse", txID)
	require.ErrorIs(t, err, ledger.ErrAlreadyReversed)

	out = mustRun(t, "reassign", "Cash", "Company Liabilities", "--yes", "--migrate")
	assert.Contains(t, out, "journal Cash now belongs to ledger Company Liabilities")
	assert.Contains(t, out, "moved 2 historical postings")
	assert.Contains(t, mustRun(t, "verify"), "all balances match")
}

func TestLedgerctl_ReassignNeedsConfirmation(t *testing.T) {
	setupEnv(t)
	mustRun(t, "seed")

	out, err := run(t, "reassign", "Cash", "Company Liabilities")
	require.ErrorIs(t, err, errAborted)
	assert.Contains(t, out, "pass --yes")
}

func TestLedgerctl_Errors(t *testing.T) {
	setupEnv(t)
	mustRun(t, "seed")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown journal", []string{"balance", "journal", "Petty Cash"}, "Petty Cash"},
		{"bad scope", []string{"balance", "account", "Cash"}, "want journal or ledger"},
		{"bad leg", []string{"post", "--debit", "Cash", "--credit", "Company Income=1"}, "JOURNAL=AMOUNT"},
		{"bad amount", []string{"post", "--debit", "Cash=ten", "--credit", "Company Income=10"}, "Cash=ten"},
		{"bad time", []string{"history", "journal", "Cash", "--from", "yesterday"}, "--from"},
		{"bad id", []string{"reverse", "not-a-uuid"}, "invalid id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLedgerctl_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("LEDGER_STORE", "postgres")
	t.Setenv("LEDGER_DATABASE_URL", "")

	_, err := run(t, "verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_DATABASE_URL")
}

func TestParseLeg(t *testing.T) {
	l, err := parseLeg(models.Credit, "Sales = Q1=12.50")
	require.NoError(t, err)
	assert.Equal(t, "Sales = Q1", l.journal)
	assert.Equal(t, models.Credit, l.direction)
	assert.Equal(t, "12.5", l.amount.String())

	for _, bad := range []string{"", "=5", "Cash=", "Cash"} {
		_, err := parseLeg(models.Debit, bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTimeFlag(t *testing.T) {
	start, err := parseTimeFlag("from", "2026-01-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), start)

	end, err := parseTimeFlag("as-of", "2026-01-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 23, 59, 59, 999999000, time.UTC), end)

	exact, err := parseTimeFlag("as-of", "2026-01-01T10:00:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), exact)

	zero, err := parseTimeFlag("to", "", true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseTimeFlag("to", "tomorrow", true)
	assert.ErrorContains(t, err, "--to")
}
