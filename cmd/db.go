package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/pkg/db"
)

// NewDbCommand creates the db command with its subcommands.
func NewDbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Short:   "Database management commands",
		Aliases: []string{"database"},
	}

	cmd.AddCommand(newDbHealthCommand())
	return cmd
}

func newDbHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity and pool state",
		Long: `Check database connectivity and report pool statistics.

Examples:
  parley db health`,
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

			status := db.Check(ctx, pool)
			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %w", status.Error)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "healthy (latency %s)\n", status.Latency)
			fmt.Fprintf(out, "connections: %d total, %d idle, %d acquired\n",
				status.TotalConns, status.IdleConns, status.AcquiredConns)
			return nil
		},
	}
}
