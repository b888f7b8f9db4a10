package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"crypto-mcp/pkg/market"
)

const timeHint = "in ISO format (e.g. 2024-01-01T00:00:00, UTC unless a zone is given)"

func symbolOption(required bool, extra string) mcp.ToolOption {
	desc := "Trading pair symbol (e.g. BTCUSDT)"
	if extra != "" {
		desc += ". " + extra
	}
	opts := []mcp.PropertyOption{mcp.Description(desc)}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("symbol", opts...)
}

func periodOption() mcp.ToolOption {
	return mcp.WithString("period",
		mcp.Required(),
		mcp.Description("Time between data points: "+strings.Join(market.Periods(), ", ")),
		mcp.Enum(market.Periods()...),
	)
}

func limitOption(r market.LimitRange) mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description(fmt.Sprintf("Number of records to return (%d-%d, default %d)", r.Min, r.Max, r.Default)),
		mcp.DefaultNumber(float64(r.Default)),
		mcp.Min(float64(r.Min)),
		mcp.Max(float64(r.Max)),
	)
}

func timeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("start_time", mcp.Description("Start time "+timeHint)),
		mcp.WithString("end_time", mcp.Description("End time "+timeHint)),
	}
}

func readOnlyTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append(opts, mcp.WithReadOnlyHintAnnotation(true), mcp.WithOpenWorldHintAnnotation(true))
	return mcp.NewTool(name, opts...)
}

// historyQuery reads the shared period/limit/time arguments of series tools.
func historyQuery(args arguments, withPeriod bool, r market.LimitRange) (market.Query, error) {
	q := market.Query{}
	if withPeriod {
		period, err := args.period()
		if err != nil {
			return q, err
		}
		q.Period = period
	}
	limit, err := args.limit(r)
	if err != nil {
		return q, err
	}
	q.Limit = limit
	if err := args.timeRange(&q); err != nil {
		return q, err
	}
	q = q.WithLimitRange(r)
	return q, q.Validate()
}

func (ts *Toolset) openInterestTool() Tool {
	return Tool{
		Definition: readOnlyTool("get_open_interest",
			mcp.WithDescription("Get current open interest for a futures symbol. Open interest is the total number of outstanding derivative contracts."),
			symbolOption(true, ""),
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
			oi, err := p.OpenInterest(ctx, symbol)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(oi)
		},
	}
}

func (ts *Toolset) openInterestHistoryTool() Tool {
	r := market.OpenInterestHistoryLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get historical open interest for a futures symbol at regular intervals. Useful for analysing changes in market participation."),
		symbolOption(true, ""),
		periodOption(),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_open_interest_history", opts...),
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
			q, err := historyQuery(args, true, r)
			if err != nil {
				return errorResult(err)
			}
			records, err := p.OpenInterestHistory(ctx, q.WithSymbol(symbol))
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(records)
		},
	}
}

func (ts *Toolset) fundingRateTool() Tool {
	r := market.FundingRateLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get funding rate history for perpetual futures. Positive rates mean longs pay shorts."),
		symbolOption(false, "Omit to return the latest rates across symbols where the exchange supports it"),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_funding_rate", opts...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := argumentsOf(req)
			p, err := ts.provider(args)
			if err != nil {
				return errorResult(err)
			}
			symbol, err := args.optionalSymbol()
			if err != nil {
				return errorResult(err)
			}
			q, err := historyQuery(args, false, r)
			if err != nil {
				return errorResult(err)
			}
			records, err := p.FundingRate(ctx, q.WithSymbol(symbol))
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(records)
		},
	}
}

func (ts *Toolset) tickerTool() Tool {
	return Tool{
		Definition: readOnlyTool("get_ticker_24h",
			mcp.WithDescription("Get rolling 24-hour price and volume statistics. Returns a list when no symbol is given."),
			symbolOption(false, "Omit to return all symbols"),
			ts.exchangeOption(),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := argumentsOf(req)
			p, err := ts.provider(args)
			if err != nil {
				return errorResult(err)
			}
			symbol, err := args.optionalSymbol()
			if err != nil {
				return errorResult(err)
			}
			if symbol == "" {
				all, err := p.Tickers24h(ctx)
				if err != nil {
					return errorResult(err)
				}
				return jsonResult(all)
			}
			t, err := p.Ticker24h(ctx, symbol)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(t)
		},
	}
}

func (ts *Toolset) klinesTool() Tool {
	r := market.KlinesLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get candlestick (OHLCV) data for a futures symbol, oldest first."),
		symbolOption(true, ""),
		mcp.WithString("interval",
			mcp.Required(),
			mcp.Description("Candle width: "+strings.Join(market.Intervals(), ", ")),
			mcp.Enum(market.Intervals()...),
		),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_klines", opts...),
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
			interval, err := args.interval("")
			if err != nil {
				return errorResult(err)
			}
			q, err := historyQuery(args, false, r)
			if err != nil {
				return errorResult(err)
			}
			q.Interval = interval
			k, err := p.Klines(ctx, q.WithSymbol(symbol))
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(k)
		},
	}
}

func (ts *Toolset) markPriceTool() Tool {
	return Tool{
		Definition: readOnlyTool("get_mark_price",
			mcp.WithDescription("Get mark price, index price and current funding for perpetual futures. Returns a list when no symbol is given."),
			symbolOption(false, "Omit to return all symbols"),
			ts.exchangeOption(),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := argumentsOf(req)
			p, err := ts.provider(args)
			if err != nil {
				return errorResult(err)
			}
			symbol, err := args.optionalSymbol()
			if err != nil {
				return errorResult(err)
			}
			if symbol == "" {
				all, err := p.MarkPrices(ctx)
				if err != nil {
					return errorResult(err)
				}
				return jsonResult(all)
			}
			mp, err := p.MarkPrice(ctx, symbol)
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(mp)
		},
	}
}

func (ts *Toolset) longShortRatioTool() Tool {
	r := market.LongShortRatioLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get the top trader long/short position ratio over time. Values above 1 mean more longs than shorts."),
		symbolOption(true, ""),
		periodOption(),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_long_short_ratio", opts...),
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
			q, err := historyQuery(args, true, r)
			if err != nil {
				return errorResult(err)
			}
			records, err := p.LongShortRatio(ctx, q.WithSymbol(symbol))
			if err != nil {
				return errorResult(err)
			}
			return jsonResult(records)
		},
	}
}
