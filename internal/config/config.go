package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"crypto-mcp/pkg/cache"
	"crypto-mcp/pkg/confkit"
	marketpkg "crypto-mcp/pkg/market"
)

// CacheConf controls the upstream response cache.
type CacheConf struct {
	Enabled bool   `json:",default=true"`
	Backend string `json:",default=memory,options=memory|redis"`
	// ShortTTL applies to quotes, MediumTTL to history series. A negative
	// value disables caching for that class.
	ShortTTL  time.Duration `json:",default=3s"`
	MediumTTL time.Duration `json:",default=30s"`
}

// BatchConf bounds batch tool fan-out.
type BatchConf struct {
	MaxConcurrency int           `json:",default=8"`
	Timeout        time.Duration `json:",default=60s"`
}

type Config struct {
	Name string `json:",default=crypto-mcp"`
	// Env indicates the running environment: test | dev | prod.
	Env   string          `json:",default=prod"`
	Log   logx.LogConf    `json:",optional"`
	Cache CacheConf       `json:",optional"`
	Redis redis.RedisConf `json:",optional"`
	Batch BatchConf       `json:",optional"`

	Market confkit.Section[marketpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test"
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "":
		c.Env = "prod"
	case "test", "dev", "prod":
		c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.Market.File) == "" && c.Market.Value == nil {
		return errors.New("config: Market.File is required")
	}
	if c.Batch.MaxConcurrency < 0 {
		return errors.New("config: batch.maxConcurrency cannot be negative")
	}
	if c.Batch.Timeout < 0 {
		return errors.New("config: batch.timeout cannot be negative")
	}
	return c.validateCache()
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Cache.Backend)) {
	case "", cache.BackendMemory:
	case cache.BackendRedis:
		if strings.TrimSpace(c.Redis.Host) == "" {
			return errors.New("config: cache.backend=redis requires redis.host")
		}
	default:
		return fmt.Errorf("config: unknown cache.backend %q", c.Cache.Backend)
	}
	return nil
}

// TTLs converts the cache section into per-class durations.
func (c *Config) TTLs() cache.TTLSet {
	return cache.NewTTLSet(c.Cache.ShortTTL, c.Cache.MediumTTL)
}

func (c *Config) hydrateSections() error {
	if err := c.Market.Hydrate(c.baseDir, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
