package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/trailsearch/internal/logger"
	mcpTransport "github.com/kailas-cloud/trailsearch/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol server on stdio",
	Long: `Exposes search_trails and get_trail as MCP tools over stdin/stdout so
assistants can query the dataset directly. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// Stdout carries JSON-RPC frames.
		logger, err := logpkg.NewStderr(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		a, err := buildApp(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.close()

		srv, err := mcpTransport.NewServer(a.search, a.parser, logger)
		if err != nil {
			return err
		}
		logger.Info("Starting MCP server (stdio)", zap.String("dataset", cfg.Dataset.Path))
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
