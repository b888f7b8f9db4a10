package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"crypto-mcp/internal/cli"
	"crypto-mcp/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdin/stdout",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, svcCtx, err := loadServiceContext()
	if err != nil {
		return err
	}
	if cfg.IsTestEnv() {
		logx.SetLevel(logx.DebugLevel)
	}
	cli.LogConfigSummary(cfg)
	defer svcCtx.LogCacheStats()

	s := mcpserver.New(svcCtx, version)
	if err := mcpserver.ServeStdio(ctx, s, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logx.Errorf("mcp server stopped: %v", err)
		return err
	}
	logx.Info("mcp server stopped")
	return nil
}
