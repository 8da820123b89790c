package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"meilisearch-mcp/internal/infra/config"
)

// cliFlags override values from the config file and the environment.
type cliFlags struct {
	ConfigPath string
	URL        string
	APIKey     string
	LogDir     string
	LogLevel   string
}

func newRootCmd() *cobra.Command {
	var flags cliFlags

	root := &cobra.Command{
		Use:   "meilisearch-mcp",
		Short: "Meilisearch MCP server",
		Long: `meilisearch-mcp exposes a Meilisearch instance as Model Context Protocol
tools over stdio. Run without a subcommand to serve.

Configuration is read from the config file, then MEILI_* environment
variables (a .env file in the working directory is loaded first), then flags.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file path (default $MEILI_MCP_CONFIG or ./config.yaml)")
	pf.StringVar(&flags.URL, "url", "", "Meilisearch base URL (overrides MEILI_HTTP_ADDR)")
	pf.StringVar(&flags.APIKey, "api-key", "", "Meilisearch API key (overrides MEILI_MASTER_KEY)")
	pf.StringVar(&flags.LogDir, "log-dir", "", "write logs to this directory instead of stderr")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.SetVersionTemplate(fmt.Sprintf("meilisearch-mcp %s\n", config.Version))
	root.AddCommand(
		newServeCmd(&flags),
		newToolsCmd(&flags),
		newEncryptKeyCmd(),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *flags)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meilisearch-mcp %s\n", config.Version)
		},
	}
}

func configPath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("MEILI_MCP_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// loadConfig applies file, environment and flags, in that order.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath(flags.ConfigPath))
	if err != nil {
		return nil, err
	}
	if flags.URL != "" {
		cfg.Meilisearch.URL = flags.URL
	}
	if flags.APIKey != "" {
		cfg.Meilisearch.APIKey = flags.APIKey
	}
	if flags.LogDir != "" {
		cfg.Logger.Output = "file"
		cfg.Logger.Dir = flags.LogDir
	}
	if flags.LogLevel != "" {
		cfg.Logger.Level = flags.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
