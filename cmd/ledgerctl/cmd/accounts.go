package cmd

import (
	"context"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/spf13/cobra"
)

func newAccountsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List ledgers and journals with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				ledgers, err := a.engine.ListLedgers(ctx)
				if err != nil {
					return err
				}
				journals, err := a.engine.ListJournals(ctx)
				if err != nil {
					return err
				}

				names := make(map[string]string, len(ledgers))
				var rows [][]string
				for _, l := range ledgers {
					names[l.ID.String()] = l.Name
					rows = append(rows, []string{"ledger", l.Name, string(l.Type), "", a.format(l.Balance), l.ID.String()})
				}
				for _, j := range journals {
					rows = append(rows, []string{"journal", j.Name, "", ledgerName(names, j), a.format(j.Balance), j.ID.String()})
				}

				renderTable(cmd.OutOrStdout(), []string{"Kind", "Name", "Type", "Ledger", "Balance", "ID"}, rows)
				return nil
			})
		},
	}
}

func ledgerName(names map[string]string, j models.Journal) string {
	if !j.Assigned() {
		return "(unassigned)"
	}
	return names[j.LedgerID.UUID.String()]
}
