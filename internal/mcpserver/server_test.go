package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crypto-mcp/internal/config"
	"crypto-mcp/internal/svc"
	"crypto-mcp/pkg/market"
)

func newServiceContext(t *testing.T) *svc.ServiceContext {
	t.Helper()
	mkt, err := market.LoadConfigFromReader(strings.NewReader("providers:\n  binance:\n    type: binance\n"))
	require.NoError(t, err)
	cfg := config.Config{Name: "crypto-mcp"}
	cfg.Market.Value = mkt
	ctx, err := svc.NewServiceContext(cfg)
	require.NoError(t, err)
	return ctx
}

func TestServeStdioListsTools(t *testing.T) {
	s := New(newServiceContext(t), "test")

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n")
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), s, in, &out))

	responses := map[float64]map[string]any{}
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var msg map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		if id, ok := msg["id"].(float64); ok {
			responses[id] = msg
		}
	}

	initResult := responses[1]["result"].(map[string]any)
	serverInfo := initResult["serverInfo"].(map[string]any)
	require.Equal(t, "crypto-mcp", serverInfo["name"])
	require.Contains(t, initResult["instructions"], "batch")

	listed := responses[2]["result"].(map[string]any)["tools"].([]any)
	require.Len(t, listed, 12)
}
