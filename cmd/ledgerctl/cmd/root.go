// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds global flags and what PersistentPreRunE derives from them.
type options struct {
	envFile string
	debug   bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the ledgerctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate a double-entry ledger",
		Long: `ledgerctl posts balanced transactions to journals and reports
journal and ledger balances, current or as of a point in time.

The store is chosen with LEDGER_STORE (memory, sqlite or postgres); see
.env.example for every setting.

Example:
  ledgerctl migrate
  ledgerctl seed
  ledgerctl post --memo "Invoice #1 paid" --debit Cash=500 --credit "Company Income=500"
  ledgerctl balance ledger "Company Assets"
  ledgerctl history journal Cash --from 2026-01-01T00:00:00Z`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if opts.debug {
				cfg.Log.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env", "", "env file to load (default is .env)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newAccountsCmd(opts),
		newPostCmd(opts),
		newReverseCmd(opts),
		newBalanceCmd(opts),
		newHistoryCmd(opts),
		newReassignCmd(opts),
		newVerifyCmd(opts),
	)
	return root
}

// Execute runs ledgerctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
