package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:       "history journal|ledger NAME_OR_ID",
		Short:     "List postings in time order",
		Long:      `List the postings of a journal or ledger with from <= time <= to, oldest first. Postings with the same timestamp are listed in commit order.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: scopeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTimeFlag("from", from, false)
			if err != nil {
				return err
			}
			end, err := parseTimeFlag("to", to, true)
			if err != nil {
				return err
			}
			if !start.IsZero() && !end.IsZero() && end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				scope, name, err := a.resolveScope(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				postings, err := a.engine.History(ctx, scope, start, end)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(postings) == 0 {
					fmt.Fprintf(out, "%s %s has no postings in range\n", args[0], name)
					return nil
				}

				rows := make([][]string, 0, len(postings))
				for _, p := range postings {
					rows = append(rows, []string{
						p.CreatedAt.UTC().Format(time.RFC3339),
						strconv.FormatInt(p.Sequence, 10),
						shortID(p.TransactionID),
						string(p.Direction),
						a.format(p.Amount),
						a.format(p.SignedAmount),
						a.format(p.ResultingBalance),
					})
				}
				renderTable(out, []string{"Time", "Seq", "Tx", "Direction", "Amount", "Effect", "Journal balance"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "earliest posting time, inclusive (YYYY-MM-DD means the start of that UTC day)")
	cmd.Flags().StringVar(&to, "to", "", "latest posting time, inclusive (YYYY-MM-DD means the end of that UTC day)")
	return cmd
}
