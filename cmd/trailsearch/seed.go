package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/trailsearch/internal/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the dataset schema and load the bundled trails",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		// Seeding is done explicitly below.
		cfg.Dataset.SeedOnStart = false
		a, err := buildApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.trails.Seed(cmd.Context(), force)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		total, err := a.trails.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		logger.Info("Seed complete",
			zap.String("dataset", cfg.Dataset.Path),
			zap.Int("inserted", n),
			zap.Int("total", total),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Bool("force", false, "Reload the bundled trails even if the dataset is not empty")
}
