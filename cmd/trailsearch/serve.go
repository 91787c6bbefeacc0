package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	logpkg "github.com/kailas-cloud/trailsearch/internal/logger"
	chiTransport "github.com/kailas-cloud/trailsearch/internal/transport/chi"
	natsTransport "github.com/kailas-cloud/trailsearch/internal/transport/nats"
	"github.com/kailas-cloud/trailsearch/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the NATS transport when enabled)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.HTTP.Port = port
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting trailsearch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("dataset", cfg.Dataset.Path),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("nats", cfg.NATS.Enabled),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.close()

	server := chiTransport.NewServer(a.sessions, a.parser, a.search, a.health)
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: chiTransport.NewRouter(server, chiTransport.RouterConfig{
			APIKeys:      cfg.Auth.APIKeys,
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
			Logger:       logger,
		}),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if cfg.NATS.Enabled {
		natsCfg := natsTransport.Config{
			URL:            cfg.NATS.URL,
			Subject:        cfg.NATS.Subject,
			Queue:          cfg.NATS.Queue,
			Concurrency:    cfg.NATS.Concurrency,
			RequestTimeout: cfg.NATS.RequestTimeout(),
		}
		conn, err := natsTransport.Connect(natsCfg, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		ns := natsTransport.NewServer(conn, a.sessions, natsCfg, logger)
		g.Go(func() error { return ns.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
