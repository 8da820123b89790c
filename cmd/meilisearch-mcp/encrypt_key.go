package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meilisearch-mcp/internal/infra/config"
)

// newEncryptKeyCmd prints an "enc:" value for meilisearch.api_key. The
// passphrase comes from MEILI_MCP_CONFIG_KEY, the same variable Load uses.
func newEncryptKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-key <api-key>",
		Short: "Encrypt an API key for the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase := os.Getenv("MEILI_MCP_CONFIG_KEY")
			if passphrase == "" {
				return errors.New("MEILI_MCP_CONFIG_KEY must be set")
			}
			enc, err := config.EncryptValue(args[0], passphrase)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enc:%s\n", enc)
			return nil
		},
	}
}
