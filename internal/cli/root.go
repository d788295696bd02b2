package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typetrace/typetrace/internal/config"
	"github.com/typetrace/typetrace/internal/store"
)

var (
	configPath string
	cfg        *config.Config

	version = "dev"
)

// rootCmd is the base command; subcommands read the daemon's database
// directly.
var rootCmd = &cobra.Command{
	Use:   "typetrace",
	Short: "Typing analytics from your keyboard and browser",
	Long: `typetrace reads the statistics collected by typetraced and renders
them in the terminal.

Quick start:
  typetrace today          # today's typing stats
  typetrace week           # this week, Monday start
  typetrace apps           # per-application breakdown
  typetrace export -f csv  # raw records as CSV`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Storage.Path, err)
	}
	return st, nil
}
