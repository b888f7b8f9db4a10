package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crypto-mcp/internal/cli"
	"crypto-mcp/internal/config"
	"crypto-mcp/internal/svc"
)

var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "crypto-mcp",
	Short: "MCP server for crypto futures market data",
	Long: `crypto-mcp serves read-only futures market data from Binance and Bybit
as Model Context Protocol tools: open interest, funding rates, tickers,
klines, mark prices, long/short ratios, batch variants and derived metrics.`,
	SilenceUsage: true,
	Version:      version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "config file (default etc/crypto-mcp.yaml)")
	rootCmd.AddCommand(serveCmd, toolsCmd, queryCmd)
}

// loadServiceContext reads config, configures logging on stderr and builds
// the providers and tools.
func loadServiceContext() (*config.Config, *svc.ServiceContext, error) {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cli.SetupLogging(cfg, os.Stderr)
	svcCtx, err := svc.NewServiceContext(*cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build service context: %w", err)
	}
	return cfg, svcCtx, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
