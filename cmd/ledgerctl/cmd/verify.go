package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/sheikh-saqib/double-entry-ledger/internal/ledger"
	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every cached balance against its postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				err := a.engine.VerifyAll(ctx)
				if err == nil {
					printSuccess(cmd.OutOrStdout(), "all balances match their postings")
					return nil
				}
				if !errors.Is(err, ledger.ErrBalanceDrift) {
					return err
				}

				var joined interface{ Unwrap() []error }
				if errors.As(err, &joined) {
					for _, e := range joined.Unwrap() {
						printError(cmd.ErrOrStderr(), e.Error())
					}
					return fmt.Errorf("%d balances drifted", len(joined.Unwrap()))
				}
				printError(cmd.ErrOrStderr(), err.Error())
				return err
			})
		},
	}
}
