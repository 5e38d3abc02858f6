package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
)

// NewMigrateCmd creates the migrate subcommand for schema management.
func NewMigrateCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run-persistence database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, logger, err := bootstrap(opts)
				if err != nil {
					return err
				}
				if !cfg.Database.Enabled {
					return fmt.Errorf("database is disabled in configuration")
				}
				if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
					return err
				}
				logger.Info("migrations applied", logging.String("path", cfg.Database.MigrationPath))
				return nil
			},
		},
		func() *cobra.Command {
			var steps int
			down := &cobra.Command{
				Use:   "down",
				Short: "Roll back the most recent migrations",
				RunE: func(cmd *cobra.Command, args []string) error {
					cfg, logger, err := bootstrap(opts)
					if err != nil {
						return err
					}
					if !cfg.Database.Enabled {
						return fmt.Errorf("database is disabled in configuration")
					}
					if err := postgres.RollbackMigration(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath, steps); err != nil {
						return err
					}
					logger.Info("migrations rolled back", logging.Int("steps", steps))
					return nil
				},
			}
			down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
			return down
		}(),
	)
	return cmd
}
