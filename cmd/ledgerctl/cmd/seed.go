package cmd

import (
	"context"

	"github.com/sheikh-saqib/double-entry-ledger/internal/chart"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(opts *options) *cobra.Command {
	var chartFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the ledgers and journals of a chart of accounts",
		Long: `Create whatever part of a chart of accounts is missing. Without --chart
the built-in company chart is used:

  Company Assets (asset)          Accounts Receivable, Cash
  Company Liabilities (liability)
  Company Equity (equity)
  Company Income (income)         Company Income
  Company Expenses (expense)

Seeding twice is harmless: ledgers are matched by name and type, journals by
name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := chart.Default()
			if chartFile != "" {
				loaded, err := chart.Load(chartFile)
				if err != nil {
					return err
				}
				c = loaded
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				seeded, err := chart.Seed(ctx, a.engine, c)
				if err != nil {
					return err
				}
				a.logger.Info("chart seeded",
					zap.Int("ledgers", len(seeded.Ledgers)),
					zap.Int("journals", len(seeded.Journals)),
					zap.Int("created", seeded.Created),
				)
				printSuccess(cmd.OutOrStdout(), "chart seeded: %d ledgers, %d journals, %d created",
					len(seeded.Ledgers), len(seeded.Journals), seeded.Created)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&chartFile, "chart", "", "YAML chart of accounts (default is the built-in company chart)")
	return cmd
}
