package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/parleyhq/parley/credentials"
)

// NewCredentialsCommand creates the credentials command with its subcommands.
func NewCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage secrets in the system keyring",
		Long: fmt.Sprintf(`Manage deployment secrets stored in the system keyring.

Known secrets: %s

Environment overrides (PARLEY_PROVIDER_SECRET, PARLEY_SESSION_SECRET) take
precedence over keyring values; the keyring is intended for workstation use.

Examples:
  # Store the provider API secret (prompted, input hidden)
  parley credentials set provider-api-secret

  # Verify a secret is present without printing it
  parley credentials show provider-api-secret

  # Remove a stored secret
  parley credentials delete session-secret`, strings.Join(credentials.Names, ", ")),
		Aliases: []string{"creds"},
	}

	cmd.AddCommand(newCredentialsSetCommand())
	cmd.AddCommand(newCredentialsShowCommand())
	cmd.AddCommand(newCredentialsDeleteCommand())
	return cmd
}

func newCredentialsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret in the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := promptSecret(cmd, fmt.Sprintf("Enter value for %s: ", args[0]))
			if err != nil {
				return err
			}

			store := credentials.NewStore()
			if err := store.Set(args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s in %s\n", args[0], store.Description())
			return nil
		},
	}
}

func newCredentialsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show whether a secret is stored (the value is masked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := credentials.NewStore()
			value, err := store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d characters, %s)\n",
				args[0], maskSecret(value), len(value), store.Description())
			return nil
		},
	}
}

func newCredentialsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a secret from the system keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := credentials.NewStore()
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// promptSecret reads a secret from the terminal without echo, falling back to
// a plain line read when stdin is not a terminal (pipes, CI).
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// maskSecret shows just enough of a secret to identify it.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
