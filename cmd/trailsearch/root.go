package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/trailsearch/internal/config"
	"github.com/kailas-cloud/trailsearch/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "trailsearch",
	Short: "Natural-language hiking trail search",
	Long: `trailsearch answers free-text hiking requests by letting a language model
call a structured trail search, falling back to a keyword parser when the
model is unavailable.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(version.String() + "\n")
	rootCmd.PersistentFlags().String("env", "", "Environment name selecting config/<env>.yaml (default: $ENV or local)")
	rootCmd.PersistentFlags().String("config", "", "Explicit config file path (overrides --env)")
}

// loadConfig resolves the environment and configuration from flags.
func loadConfig(cmd *cobra.Command) (string, config.Config, error) {
	env, _ := cmd.Flags().GetString("env")
	if env == "" {
		env = config.GetEnv()
	}
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return env, cfg, nil
}
