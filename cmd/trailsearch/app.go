package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/trailsearch/internal/config"
	dbredis "github.com/kailas-cloud/trailsearch/internal/db/redis"
	"github.com/kailas-cloud/trailsearch/internal/db/sqlite"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/metrics"
	"github.com/kailas-cloud/trailsearch/internal/repository/searchcache"
	trailrepo "github.com/kailas-cloud/trailsearch/internal/repository/trail"
	openaiChat "github.com/kailas-cloud/trailsearch/internal/transport/openai"
	"github.com/kailas-cloud/trailsearch/internal/usecase/agent"
	"github.com/kailas-cloud/trailsearch/internal/usecase/fallback"
	healthuc "github.com/kailas-cloud/trailsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/trailsearch/internal/usecase/search"
	"github.com/kailas-cloud/trailsearch/internal/usecase/session"
)

// app is the composition root shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	pool   *sqlite.Pool
	trails *trailrepo.Repo
	cache  *dbredis.Store // nil when disabled or unreachable
	parser *parser.Parser
	search *searchuc.Service
	chat   *openaiChat.Chat // nil without an API key

	controller *fallback.Controller
	sessions   *session.Service
	health     *healthuc.Service
}

// buildApp wires the dataset, cache, model client and use cases.
// withLLM=false skips the model entirely (seed, mcp).
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withLLM bool) (*app, error) {
	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterLLMMetrics()
	metrics.RegisterHTTPMetrics()

	a := &app{cfg: cfg, logger: logger}

	if dir := filepath.Dir(cfg.Dataset.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dataset dir: %w", err)
		}
	}
	pool, err := sqlite.Open(sqlite.Config{
		Path:           cfg.Dataset.Path,
		PoolSize:       cfg.Dataset.PoolSize,
		AcquireTimeout: cfg.Dataset.AcquireTimeout(),
		BusyTimeout:    cfg.Dataset.BusyTimeout(),
	}, metrics.PoolWaitSeconds)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	a.pool = pool

	a.trails = trailrepo.New(pool)
	if err := a.trails.Migrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("migrate dataset: %w", err)
	}
	if cfg.Dataset.SeedOnStart {
		n, err := a.trails.Seed(ctx, false)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("seed dataset: %w", err)
		}
		if n > 0 {
			logger.Info("Seeded dataset", zap.Int("trails", n))
		}
	}

	var repo searchuc.Repository = a.trails
	if cfg.Cache.Enabled {
		a.cache = connectCache(ctx, cfg.Cache, logger)
		if a.cache != nil {
			repo = searchcache.New(a.trails, a.cache, cfg.Cache.KeyPrefix, cfg.Cache.TTL(),
				metrics.QueryCacheTotal, logger)
		}
	}

	a.parser = parser.New(cfg.ReferencePoints())
	a.search = searchuc.New(repo)

	var strategies []agent.Strategy
	if withLLM {
		strategies, err = a.buildStrategies()
		if err != nil {
			a.close()
			return nil, err
		}
	}

	a.controller = fallback.New(strategies, a.search, a.parser, fallback.RetryConfig{
		MaxTries:        cfg.LLM.Retry.MaxTries,
		InitialInterval: cfg.LLM.Retry.InitialInterval(),
		MaxInterval:     cfg.LLM.Retry.MaxInterval(),
		Multiplier:      cfg.LLM.Retry.Multiplier,
	}, cfg.Search.ResultLimit)

	def, _ := mode.Parse(cfg.Search.DefaultStrategy)
	a.sessions = session.New(a.controller).WithDefaultStrategy(def)

	// Pass nil interfaces (not typed nil pointers) for absent components.
	var cachePinger healthuc.Pinger
	if a.cache != nil {
		cachePinger = a.cache
	}
	var llmChecker healthuc.LLMChecker
	if a.chat != nil {
		llmChecker = a.chat
	}
	a.health = healthuc.New(pool, cachePinger, llmChecker)

	return a, nil
}

func (a *app) buildStrategies() ([]agent.Strategy, error) {
	if a.cfg.LLM.APIKey == "" {
		a.logger.Warn("No LLM API key configured, searches run in degraded mode")
		return nil, nil
	}
	a.chat = openaiChat.NewChat(&openaiChat.Config{
		APIKey:      a.cfg.LLM.APIKey,
		BaseURL:     a.cfg.LLM.BaseURL,
		Model:       a.cfg.LLM.Model,
		Provider:    a.cfg.LLM.Provider,
		User:        "trailsearch",
		CallTimeout: a.cfg.LLM.CallTimeout(),
		Logger:      a.logger,
	})

	agentCfg := agent.Config{
		MaxToolRounds:     a.cfg.LLM.MaxToolRounds,
		MaxTokens:         a.cfg.LLM.MaxTokens,
		Temperature:       a.cfg.LLM.Temperature,
		ResultLimit:       a.cfg.Search.ResultLimit,
		NearRadiusMiles:   a.cfg.Search.NearRadiusMiles,
		EasyElevationCapM: a.cfg.Search.EasyElevationCapM,
	}
	direct, err := agent.NewDirect(a.chat, a.search, a.parser, agentCfg)
	if err != nil {
		return nil, fmt.Errorf("build direct strategy: %w", err)
	}
	reasoning, err := agent.NewReasoning(a.chat, a.search, a.parser, agentCfg)
	if err != nil {
		return nil, fmt.Errorf("build reasoning strategy: %w", err)
	}
	a.logger.Info("LLM strategies ready",
		zap.String("provider", a.cfg.LLM.Provider),
		zap.String("model", a.cfg.LLM.Model),
	)
	return []agent.Strategy{direct, reasoning}, nil
}

// connectCache returns nil when the cache cannot be reached; searches then
// go straight to the dataset.
func connectCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) *dbredis.Store {
	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("Query cache disabled", zap.Error(err))
		return nil
	}
	if !cacheReachable(ctx, store, cfg.Addrs, logger) {
		return nil
	}
	return store
}

type cacheConn interface {
	Ping(ctx context.Context) error
	Close()
}

// cacheReachable pings c and closes it when the ping fails.
func cacheReachable(ctx context.Context, c cacheConn, addrs []string, logger *zap.Logger) bool {
	if err := c.Ping(ctx); err != nil {
		logger.Warn("Query cache unreachable at startup, continuing without it",
			zap.Strings("addrs", addrs), zap.Error(err))
		c.Close()
		return false
	}
	logger.Info("Connected to query cache", zap.Strings("addrs", addrs))
	return true
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("Close dataset", zap.Error(err))
		}
	}
}
