package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
	"github.com/spf13/cobra"
)

var scopeKinds = []string{"journal", "ledger"}

func newBalanceCmd(opts *options) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:       "balance journal|ledger NAME_OR_ID",
		Short:     "Show a journal or ledger balance",
		Long:      `Show the current balance, or with --as-of the balance replayed from postings committed at or before that instant.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: scopeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseTimeFlag("as-of", asOf, true)
			if err != nil {
				return err
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				scope, name, err := a.resolveScope(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				var balance money.Amount
				if at.IsZero() {
					balance, err = a.engine.Balance(ctx, scope)
				} else {
					balance, err = a.engine.BalanceAsOf(ctx, scope, at)
				}
				if err != nil {
					return err
				}

				suffix := ""
				if !at.IsZero() {
					suffix = " as of " + at.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s%s\n", args[0], name, a.format(balance), suffix)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "replay postings up to this instant (RFC 3339, or YYYY-MM-DD for the end of that UTC day)")
	return cmd
}
