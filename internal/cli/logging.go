package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"crypto-mcp/internal/config"
	"crypto-mcp/pkg/confkit"
)

// SetupLogging configures logx and points it at w. The MCP stdio transport
// owns stdout, so callers pass os.Stderr.
func SetupLogging(cfg *config.Config, w io.Writer) {
	if cfg != nil {
		logCfg := cfg.Log
		if logCfg.ServiceName == "" {
			logCfg.ServiceName = cfg.Name
		}
		logx.MustSetup(logCfg)
	}
	logx.DisableStat()
	if w == nil {
		w = os.Stderr
	}
	logx.SetWriter(logx.NewWriter(w))
}

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		cacheLine(cfg),
		fmt.Sprintf("Batch: max concurrency %d, timeout %s", cfg.Batch.MaxConcurrency, cfg.Batch.Timeout),
		sectionLine("Market config", cfg.Market),
	}
	if cfg.Market.Value != nil {
		lines = append(lines, fmt.Sprintf("Exchanges: %s (default %s)",
			strings.Join(cfg.Market.Value.Names(), ", "), cfg.Market.Value.DefaultName()))
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func cacheLine(cfg *config.Config) string {
	if !cfg.Cache.Enabled {
		return "Cache: disabled"
	}
	ttl := cfg.TTLs()
	backend := cfg.Cache.Backend
	if backend == "" {
		backend = "memory"
	}
	return fmt.Sprintf("Cache: %s, TTL (short/medium): %s / %s", backend, ttl.Short, ttl.Medium)
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
