package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/adapters"
	"github.com/fedquery/gateway/cache"
	"github.com/fedquery/gateway/config"
	"github.com/fedquery/gateway/gateway"
	"github.com/fedquery/gateway/integration"
	internalcache "github.com/fedquery/gateway/internal/cache"
	"github.com/fedquery/gateway/internal/database"
	"github.com/fedquery/gateway/internal/metrics"
	"github.com/fedquery/gateway/internal/pool"
	"github.com/fedquery/gateway/llm"
	"github.com/fedquery/gateway/llm/providers/anthropic"
	"github.com/fedquery/gateway/llm/providers/openaicompat"
	"github.com/fedquery/gateway/orchestrator"
	"github.com/fedquery/gateway/rag"
	"github.com/fedquery/gateway/router"
	"github.com/fedquery/gateway/store"
	"github.com/fedquery/gateway/types"
)

// buildAdapter maps a configured service onto its concrete vendor
// adapter by Source. Every source the specification names has exactly
// one adapter; an unknown source is a configuration error.
func buildAdapter(cfg types.ServiceConfig) (integration.Adapter, error) {
	switch cfg.Source {
	case types.SourceTickets:
		return adapters.NewTicketsAdapter(cfg), nil
	case types.SourceWiki:
		return adapters.NewWikiAdapter(cfg), nil
	case types.SourceChat:
		return adapters.NewChatAdapter(cfg), nil
	case types.SourceCode:
		return adapters.NewCodeAdapter(cfg), nil
	case types.SourceDocs:
		return adapters.NewDocsAdapter(cfg), nil
	case types.SourceWeb:
		return adapters.NewWebAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("no adapter for source %q", cfg.Source)
	}
}

// buildLLMProvider selects between the Anthropic Messages API and an
// OpenAI-compatible endpoint, shared by the router's Tier B classifier
// and the RAG assembler.
func buildLLMProvider(cfg config.LLMConfig, logger *zap.Logger) (llm.Provider, error) {
	switch cfg.DefaultProvider {
	case "", "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.AnswerModel,
			Timeout:      cfg.Timeout,
		}, logger), nil
	default:
		return openaicompat.New(openaicompat.Config{
			ProviderName: cfg.DefaultProvider,
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.AnswerModel,
			Timeout:      cfg.Timeout,
		}, logger), nil
	}
}

func buildRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
}

// buildDeps wires every package the gateway depends on into a
// *gateway.Deps: opens the store, builds the two-layer cache, registers
// one integration.Envelope per enabled configured service with the
// orchestrator, and constructs the shared LLM provider the router and
// RAG assembler both use. The returned closer releases the store and
// Redis client on shutdown.
func buildDeps(cfg *config.Config, version string, logger *zap.Logger) (*gateway.Deps, func() error, error) {
	st, err := store.Open(store.Config{
		Driver: cfg.Store.Driver,
		DSN:    cfg.Store.DSN,
		Pool: database.PoolConfig{
			MaxIdleConns:        cfg.Store.MaxIdleConns,
			MaxOpenConns:        cfg.Store.MaxOpenConns,
			ConnMaxLifetime:     cfg.Store.ConnMaxLifetime,
			ConnMaxIdleTime:     cfg.Store.ConnMaxIdleTime,
			HealthCheckInterval: cfg.Store.HealthCheckInterval,
		},
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	rdb := buildRedisClient(cfg.Redis)
	c := cache.New(rdb, cache.Config{
		LocalMaxSize: cfg.Cache.LocalMaxSize,
		LocalTTL:     cfg.Cache.LocalTTL,
		RedisTTL:     cfg.Cache.RedisTTL,
		EnableLocal:  cfg.Cache.EnableLocal,
		EnableRedis:  cfg.Cache.EnableRedis && rdb != nil,
	}, logger)

	orch := orchestrator.New(orchestrator.DefaultConfig(), logger)

	for _, svcCfg := range cfg.Services {
		if !svcCfg.Enabled {
			continue
		}
		adapter, buildErr := buildAdapter(svcCfg)
		if buildErr != nil {
			logger.Warn("skipping service with no adapter",
				zap.String("service", svcCfg.Name), zap.Error(buildErr))
			continue
		}

		envCfg := integration.DefaultConfig()
		if svcCfg.Timeout > 0 {
			envCfg.CallTimeout = svcCfg.Timeout
		}
		if svcCfg.CacheTTL > 0 {
			envCfg.CacheTTLL1 = svcCfg.CacheTTL
			envCfg.CacheTTLL2 = svcCfg.CacheTTL
		}
		if svcCfg.MaxRetries > 0 {
			envCfg.MaxRetries = svcCfg.MaxRetries
		}
		if svcCfg.RateLimit.RequestsPerSecond > 0 {
			envCfg.RateLimit.RequestsPerSecond = svcCfg.RateLimit.RequestsPerSecond
		}
		if svcCfg.RateLimit.Burst > 0 {
			envCfg.RateLimit.Burst = svcCfg.RateLimit.Burst
		}

		env := integration.New(adapter, envCfg, c, logger)
		if initErr := env.Initialize(context.Background()); initErr != nil {
			logger.Warn("service failed to initialize",
				zap.String("service", svcCfg.Name), zap.Error(initErr))
		}
		orch.Register(svcCfg, env)
	}

	provider, err := buildLLMProvider(cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build llm provider: %w", err)
	}

	available := func(source types.Source) bool {
		for _, s := range orch.ListServices() {
			if s.Config.Source == source {
				return s.Config.Enabled
			}
		}
		return false
	}
	rt := router.New(provider, cfg.LLM.RouterModel, available, logger)
	var classifyCache *internalcache.Manager
	if cfg.Redis.Addr != "" {
		var cacheErr error
		classifyCache, cacheErr = internalcache.NewManager(internalcache.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, logger)
		if cacheErr != nil {
			logger.Warn("router classification cache unavailable, continuing without it", zap.Error(cacheErr))
			classifyCache = nil
		} else {
			rt = rt.WithClassifyCache(classifyCache, 0)
		}
	}
	assembler := rag.New(provider, cfg.LLM.AnswerModel, rag.DefaultConfig(), logger)

	collector := metrics.NewCollector("gateway", logger)

	bgPool := pool.NewGoroutinePool(pool.DefaultGoroutinePoolConfig())

	deps := &gateway.Deps{
		Config:         cfg,
		Orchestrator:   orch,
		Router:         rt,
		Assembler:      assembler,
		Store:          st,
		Metrics:        collector,
		Logger:         logger,
		BackgroundPool: bgPool,
		Version:        version,
	}

	closer := func() error {
		bgPool.Close()
		if classifyCache != nil {
			_ = classifyCache.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		return st.Close()
	}
	return deps, closer, nil
}
