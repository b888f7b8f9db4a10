// Package mcpserver exposes the tool set over the MCP stdio transport.
package mcpserver

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/zeromicro/go-zero/core/logx"

	"crypto-mcp/internal/svc"
	"crypto-mcp/pkg/tools"
)

const instructions = "Read-only crypto futures market data (open interest, funding, tickers, klines, mark price, " +
	"long/short ratio) from Binance and Bybit. Prefer the *_batch tools when querying several symbols."

// New builds an MCP server with every tool registered.
func New(svcCtx *svc.ServiceContext, version string) *server.MCPServer {
	s := server.NewMCPServer(svcCtx.Config.Name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	tools.Register(s, svcCtx.Tools.Tools())
	return s
}

// ServeStdio speaks MCP over in/out until ctx is done or in is closed.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(logxWriter{}, "", 0))
	logx.Infof("mcp: serving on stdio")
	return stdio.Listen(ctx, in, out)
}

// logxWriter routes the transport's standard logger into logx.
type logxWriter struct{}

func (logxWriter) Write(p []byte) (int, error) {
	logx.Error(strings.TrimSpace(string(p)))
	return len(p), nil
}
