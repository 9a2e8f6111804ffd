package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
	"github.com/spf13/cobra"
)

// leg is one --debit or --credit flag value: JOURNAL=AMOUNT.
type leg struct {
	journal   string
	direction models.Direction
	amount    money.Amount
}

func parseLeg(direction models.Direction, value string) (leg, error) {
	i := strings.LastIndex(value, "=")
	if i <= 0 || i == len(value)-1 {
		return leg{}, fmt.Errorf("invalid --%s %q: want JOURNAL=AMOUNT", direction, value)
	}
	amount, err := money.New(strings.TrimSpace(value[i+1:]))
	if err != nil {
		return leg{}, fmt.Errorf("invalid --%s %q: %w", direction, value, err)
	}
	return leg{journal: strings.TrimSpace(value[:i]), direction: direction, amount: amount}, nil
}

func newPostCmd(opts *options) *cobra.Command {
	var (
		memo    string
		debits  []string
		credits []string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Commit a balanced transaction",
		Long: `Commit one transaction. Each --debit and --credit takes JOURNAL=AMOUNT,
where JOURNAL is a journal name or id. Debits and credits must sum to the
same total; nothing is written otherwise.

Example:
  ledgerctl post --memo "Invoice #1 paid" --debit Cash=500 --credit "Company Income=500"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var legs []leg
			for _, v := range debits {
				l, err := parseLeg(models.Debit, v)
				if err != nil {
					return err
				}
				legs = append(legs, l)
			}
			for _, v := range credits {
				l, err := parseLeg(models.Credit, v)
				if err != nil {
					return err
				}
				legs = append(legs, l)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				b := a.engine.Begin(memo)
				for _, l := range legs {
					j, err := a.resolveJournal(ctx, l.journal)
					if err != nil {
						return err
					}
					if err := b.AddPosting(j.ID, l.direction, l.amount); err != nil {
						return err
					}
				}

				tx, err := a.engine.Commit(ctx, b)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "committed %s (%d postings)", tx.ID, len(tx.Postings))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&memo, "memo", "", "transaction memo")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit leg as JOURNAL=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit leg as JOURNAL=AMOUNT (repeatable)")
	return cmd
}

func newReverseCmd(opts *options) *cobra.Command {
	var memo string

	cmd := &cobra.Command{
		Use:   "reverse TRANSACTION_ID",
		Short: "Commit the mirror of a transaction",
		Long: `Commit a transaction that exactly cancels TRANSACTION_ID. A transaction
can be reversed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				rev, err := a.engine.Reverse(ctx, id, memo)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "reversed %s with %s", id, rev.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&memo, "memo", "", `reversal memo (default "Reversal of <id>")`)
	return cmd
}
