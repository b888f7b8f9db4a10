package svc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"crypto-mcp/internal/config"
	"crypto-mcp/pkg/batch"
	"crypto-mcp/pkg/cache"
	marketpkg "crypto-mcp/pkg/market"
	_ "crypto-mcp/pkg/market/exchanges/binance"
	_ "crypto-mcp/pkg/market/exchanges/bybit"
	"crypto-mcp/pkg/tools"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	// CachedProviders is empty when the cache is disabled.
	CachedProviders map[string]*marketpkg.CachedProvider
	Redis           *redis.Redis

	Orchestrator *batch.Orchestrator
	Tools        *tools.Toolset
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	if c.Market.Value == nil {
		return nil, errors.New("svc: market config not loaded")
	}
	svc := &ServiceContext{
		Config:          c,
		MarketConfig:    c.Market.Value,
		CachedProviders: make(map[string]*marketpkg.CachedProvider),
	}

	providers, err := svc.MarketConfig.BuildProviders()
	if err != nil {
		return nil, fmt.Errorf("build market providers: %w", err)
	}

	if c.Cache.Enabled {
		store, err := svc.newStore()
		if err != nil {
			return nil, err
		}
		ttl := c.TTLs()
		for name, p := range providers {
			cached := marketpkg.NewCachedProvider(p, store, ttl)
			svc.CachedProviders[name] = cached
			providers[name] = cached
		}
	}
	svc.MarketProviders = providers
	svc.DefaultMarket = providers[svc.MarketConfig.DefaultName()]

	svc.Orchestrator = batch.New(batch.Options{
		MaxConcurrency: c.Batch.MaxConcurrency,
		Timeout:        c.Batch.Timeout,
		Logger:         logx.WithContext(context.Background()).WithFields(logx.Field("component", "batch")),
	})
	svc.Tools = tools.New(tools.Deps{
		Providers:    providers,
		Default:      svc.MarketConfig.DefaultName(),
		Orchestrator: svc.Orchestrator,
	})
	return svc, nil
}

func (s *ServiceContext) newStore() (cache.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(s.Config.Cache.Backend))
	if backend == cache.BackendRedis {
		rds, err := redis.NewRedis(s.Config.Redis)
		if err != nil {
			return nil, fmt.Errorf("svc: connect redis: %w", err)
		}
		s.Redis = rds
	}
	store, err := cache.NewStore(backend, s.Redis, s.Config.TTLs().Short)
	if err != nil {
		return nil, fmt.Errorf("svc: %w", err)
	}
	return store, nil
}

// LogCacheStats writes per-provider hit/miss counters.
func (s *ServiceContext) LogCacheStats() {
	names := make([]string, 0, len(s.CachedProviders))
	for name := range s.CachedProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stats := s.CachedProviders[name].Stats()
		logx.Infof("cache stats: provider=%s hits=%d misses=%d hit_rate=%.2f",
			name, stats.Hits, stats.Misses, stats.HitRate())
	}
}
