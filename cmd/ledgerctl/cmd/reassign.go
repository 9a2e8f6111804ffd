package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReassignCmd(opts *options) *cobra.Command {
	var (
		migrate bool
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "reassign JOURNAL LEDGER",
		Short: "Move a journal to another ledger",
		Long: `Assign JOURNAL to LEDGER. A journal without postings simply moves.

A journal with postings moves too, but its past postings stay attributed to
the ledger they were committed under. Pass --migrate to re-attribute them to
the new ledger as well, which changes historical ledger balances.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				j, err := a.resolveJournal(ctx, args[0])
				if err != nil {
					return err
				}
				l, err := a.resolveLedger(ctx, args[1])
				if err != nil {
					return err
				}

				if j.Assigned() && j.LedgerID.UUID != l.ID && !yes {
					ok, err := confirm(fmt.Sprintf("Move journal %s to ledger %s?", j.Name, l.Name))
					if err != nil {
						return err
					}
					if !ok {
						printError(cmd.ErrOrStderr(), "not moved; pass --yes to skip the prompt")
						return errAborted
					}
				}

				if j.Assigned() {
					_, err = a.engine.ReassignJournal(ctx, j.ID, l.ID)
				} else {
					_, err = a.engine.AssignToLedger(ctx, j.ID, l.ID)
				}
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "journal %s now belongs to ledger %s", j.Name, l.Name)

				if migrate {
					moved, err := a.engine.MigrateJournalHistory(ctx, j.ID)
					if err != nil {
						return err
					}
					printSuccess(cmd.OutOrStdout(), "moved %d historical postings to %s", moved, l.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "re-attribute past postings to the new ledger")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
