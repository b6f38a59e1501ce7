package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/db"
)

func newMigrateCommand() *cobra.Command {
	var showStatus bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending database migrations.

Migration files are SQL files in the migrations directory, named with numeric
prefixes (e.g., 001_agents.sql, 002_meetings.sql). Migrations are applied in
alphabetical order, each in its own transaction, and tracked in the
schema_migrations table.

Examples:
  # Apply all pending migrations
  parley migrate

  # Show applied and pending migrations without changing anything
  parley migrate --status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := db.Connect(ctx, &cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close(pool)

			if showStatus {
				status, err := db.Status(ctx, pool, cfg.Database.MigrationsDir)
				if err != nil {
					return err
				}
				for _, entry := range status.Applied {
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s applied %s\n",
						entry.Version, entry.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				for _, entry := range status.Pending {
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s pending\n", entry.Version)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d applied, %d pending\n",
					len(status.Applied), len(status.Pending))
				return nil
			}

			result, err := db.RunMigrations(ctx, pool, cfg.Database.MigrationsDir)
			if err != nil {
				return err
			}
			for _, name := range result.Applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied, %d already up to date\n",
				len(result.Applied), len(result.Skipped))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStatus, "status", false, "Show migration status without applying")
	return cmd
}
