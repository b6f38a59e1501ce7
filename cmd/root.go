// Package cmd provides the CLI commands for the parley backend.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/config"
	"github.com/parleyhq/parley/pkg/logging"
)

// cfgFile is the --config flag value shared by all commands.
var cfgFile string

// NewRootCommand creates the base command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley meeting backend",
		Long: `parley is the backend for AI-assisted video meetings.

It manages agents (AI personas) and meetings (sessions pairing a user with an
agent), provisions calls against the video provider, and serves the HTTP API.

COMMON WORKFLOWS:
  Run the server:   parley migrate  →  parley serve
  Check health:     parley db health
  Store secrets:    parley credentials set provider-api-secret
  Fix stuck rows:   parley reconcile --once`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (YAML)")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newReconcileCommand())
	cmd.AddCommand(NewDbCommand())
	cmd.AddCommand(NewCredentialsCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig loads configuration from the --config file (optional), the
// environment, and the system keyring for secrets.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:       logging.Level(cfg.Logging.Level),
		ServiceName: "parley",
		JSONFormat:  cfg.Logging.JSONFormat,
	})
}
