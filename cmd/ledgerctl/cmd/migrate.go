package cmd

import (
	"github.com/sheikh-saqib/double-entry-ledger/internal/config"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply the embedded schema migrations to the configured database.
Opening a store migrates it as well; this command only makes the step explicit,
e.g. for a deploy pipeline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			out := cmd.OutOrStdout()

			switch cfg.Store.Backend {
			case config.StoreSQLite:
				if err := sqlite.Migrate(cfg.Store.SQLitePath); err != nil {
					return err
				}
			case config.StorePostgres:
				if err := postgres.Migrate(cfg.Store.DatabaseURL); err != nil {
					return err
				}
			default:
				printSuccess(out, "%s store has no schema", cfg.Store.Backend)
				return nil
			}

			opts.logger.Info("schema migrated", zap.String("backend", cfg.Store.Backend))
			printSuccess(out, "%s schema is up to date", cfg.Store.Backend)
			return nil
		},
	}
}
