package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"crypto-mcp/pkg/market"
	"crypto-mcp/pkg/market/derived"
)

func (ts *Toolset) derivedMetricsTool() Tool {
	return Tool{
		Definition: readOnlyTool("get_derived_metrics",
			mcp.WithDescription("Calculate analytical metrics from market data: VWAP, funding trend, open interest change, "+
				"price/OI divergence and price indicators. Only the requested metrics are computed."),
			symbolOption(true, ""),
			mcp.WithArray("metrics",
				mcp.Required(),
				mcp.Description("Metrics to calculate: "+strings.Join(derived.Metrics(), ", ")),
				mcp.Items(map[string]any{"type": "string", "enum": derived.Metrics()}),
			),
			mcp.WithString("vwap_period",
				mcp.Description("Candle interval for VWAP and the price indicators (default 1h)"),
				mcp.DefaultString("1h"),
				mcp.Enum(market.Intervals()...),
			),
			ts.exchangeOption(),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := argumentsOf(req)
			p, err := ts.provider(args)
			if err != nil {
				return errorResult(err)
			}
			symbol, err := args.symbol()
			if err != nil {
				return errorResult(err)
			}
			raw, err := args.stringList("metrics")
			if err != nil {
				return errorResult(err)
			}
			metrics, err := derived.ParseMetrics(raw)
			if err != nil {
				return errorResult(err)
			}
			interval, err := args.optionalString("vwap_period", "1h")
			if err != nil {
				return errorResult(err)
			}
			report, err := derived.Compute(ctx, p, derived.Request{
				Symbol:   symbol,
				Metrics:  metrics,
				Interval: market.Interval(interval),
			})
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(report)
		},
	}
}
