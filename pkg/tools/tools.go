// Package tools exposes market data operations as MCP tools.
package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/zeromicro/go-zero/core/logx"

	"crypto-mcp/pkg/batch"
	"crypto-mcp/pkg/market"
)

// Tool pairs an MCP tool definition with its handler.
type Tool struct {
	Definition mcp.Tool
	Handler    server.ToolHandlerFunc
}

// Name returns the tool's registered name.
func (t Tool) Name() string {
	return t.Definition.Name
}

// Deps are the collaborators every tool handler shares.
type Deps struct {
	// Providers is keyed by exchange name as accepted in the exchange argument.
	Providers map[string]market.Provider
	// Default is used when a call omits exchange. Falls back to "binance".
	Default      string
	Orchestrator *batch.Orchestrator
}

// Toolset builds the tool list over a fixed set of providers.
type Toolset struct {
	providers    map[string]market.Provider
	names        []string
	defaultName  string
	orchestrator *batch.Orchestrator
}

const defaultExchange = "binance"

// New constructs a Toolset. Provider names are matched case-insensitively.
func New(deps Deps) *Toolset {
	ts := &Toolset{
		providers:    make(map[string]market.Provider, len(deps.Providers)),
		defaultName:  strings.ToLower(strings.TrimSpace(deps.Default)),
		orchestrator: deps.Orchestrator,
	}
	for name, p := range deps.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		ts.providers[key] = p
		ts.names = append(ts.names, key)
	}
	sort.Strings(ts.names)
	if ts.defaultName == "" {
		ts.defaultName = defaultExchange
	}
	if ts.orchestrator == nil {
		ts.orchestrator = batch.New(batch.Options{})
	}
	return ts
}

// Exchanges lists the configured exchange names, sorted.
func (ts *Toolset) Exchanges() []string {
	return append([]string(nil), ts.names...)
}

// Tools returns every tool in registration order.
func (ts *Toolset) Tools() []Tool {
	return []Tool{
		ts.openInterestTool(),
		ts.openInterestHistoryTool(),
		ts.fundingRateTool(),
		ts.tickerTool(),
		ts.klinesTool(),
		ts.markPriceTool(),
		ts.longShortRatioTool(),
		ts.derivedMetricsTool(),
		ts.openInterestBatchTool(),
		ts.openInterestHistoryBatchTool(),
		ts.fundingRateBatchTool(),
		ts.longShortRatioBatchTool(),
	}
}

// Register adds tools to s, wrapping each handler with call logging.
func Register(s *server.MCPServer, tools []Tool) {
	for _, t := range tools {
		s.AddTool(t.Definition, logged(t.Name(), t.Handler))
	}
}

func logged(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := logx.WithContext(ctx)
		logger.Infof("tool call: name=%s", name)
		res, err := next(ctx, req)
		switch {
		case err != nil:
			logger.Errorf("tool call failed: name=%s err=%v", name, err)
		case res != nil && res.IsError:
			logger.Infof("tool call returned error result: name=%s", name)
		}
		return res, err
	}
}

func (ts *Toolset) provider(args arguments) (market.Provider, error) {
	name, err := args.optionalString("exchange", ts.defaultName)
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(name))
	p, ok := ts.providers[key]
	if !ok {
		return nil, market.Validationf("exchange", "unknown exchange %q, supported: %s", name, strings.Join(ts.names, ", "))
	}
	return p, nil
}

func (ts *Toolset) exchangeOption() mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Description("Exchange to query (default: " + ts.defaultName + ")"),
		mcp.DefaultString(ts.defaultName),
	}
	if len(ts.names) > 0 {
		opts = append(opts, mcp.Enum(ts.names...))
	}
	return mcp.WithString("exchange", opts...)
}
