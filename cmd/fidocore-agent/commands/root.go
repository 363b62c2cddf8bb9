package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/argon-chat/fidocore/internal/config"
)

// configPath is the path to the YAML configuration file, shared by every
// subcommand via a persistent flag.
var configPath string

// rootCmd is the top-level cobra command for fidocore-agent.
var rootCmd = &cobra.Command{
	Use:   "fidocore-agent",
	Short: "Demonstration CLI for the fidocore CTAP2/CTAPHID core",
	Long:  "fidocore-agent wires the CBOR codec, CTAPHID framer, and CTAP2 dispatcher together for local inspection and testing.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to configuration file (YAML); defaults are used when empty")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(getInfoCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from configPath, falling back to defaults
// when no path was given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.DefaultConfig()
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(configPath)
}

// newLogger builds the process-wide structured logger for cfg.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Log.Level)}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
