package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"crypto-mcp/pkg/batch"
	"crypto-mcp/pkg/market"
)

func symbolsOption() mcp.ToolOption {
	return mcp.WithArray("symbols",
		mcp.Required(),
		mcp.Description("Distinct trading pair symbols (e.g. [\"BTCUSDT\", \"ETHUSDT\"]). Fetched concurrently."),
		mcp.Items(map[string]any{"type": "string"}),
	)
}

const batchNote = " Returns {\"results\": {SYMBOL: [...]}, \"errors\": {SYMBOL: {kind, message}}}; one failing symbol does not fail the others."

// runBatch is the common body of every batch tool: resolve the exchange,
// read the symbols, build the shared query and fan out.
func runBatch[T any](ctx context.Context, ts *Toolset, req mcp.CallToolRequest,
	buildQuery func(arguments) (market.Query, error),
	fetcher func(market.Provider) batch.Fetcher[T],
) (*mcp.CallToolResult, error) {
	args := argumentsOf(req)
	p, err := ts.provider(args)
	if err != nil {
		return errorResult(err)
	}
	symbols, err := args.stringList("symbols")
	if err != nil {
		return errorResult(err)
	}
	q, err := buildQuery(args)
	if err != nil {
		return errorResult(err)
	}
	result, err := batch.Fetch(ctx, ts.orchestrator, symbols, q, fetcher(p))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(newBatchResponse(result))
}

func (ts *Toolset) openInterestBatchTool() Tool {
	return Tool{
		Definition: readOnlyTool("get_open_interest_batch",
			mcp.WithDescription("Get current open interest for several symbols in one call."+batchNote),
			symbolsOption(),
			ts.exchangeOption(),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return runBatch(ctx, ts, req,
				func(arguments) (market.Query, error) { return market.Query{}, nil },
				OpenInterestFetcher)
		},
	}
}

func (ts *Toolset) openInterestHistoryBatchTool() Tool {
	r := market.OpenInterestHistoryLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get historical open interest for several symbols with one shared period and limit." + batchNote),
		symbolsOption(),
		periodOption(),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_open_interest_history_batch", opts...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return runBatch(ctx, ts, req,
				func(args arguments) (market.Query, error) { return historyQuery(args, true, r) },
				OpenInterestHistoryFetcher)
		},
	}
}

func (ts *Toolset) fundingRateBatchTool() Tool {
	r := market.FundingRateLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get funding rate history for several symbols in one call." + batchNote),
		symbolsOption(),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_funding_rate_batch", opts...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return runBatch(ctx, ts, req,
				func(args arguments) (market.Query, error) { return historyQuery(args, false, r) },
				FundingRateFetcher)
		},
	}
}

func (ts *Toolset) longShortRatioBatchTool() Tool {
	r := market.LongShortRatioLimit
	opts := []mcp.ToolOption{
		mcp.WithDescription("Get the top trader long/short ratio for several symbols with one shared period and limit." + batchNote),
		symbolsOption(),
		periodOption(),
		limitOption(r),
	}
	opts = append(opts, timeOptions()...)
	opts = append(opts, ts.exchangeOption())
	return Tool{
		Definition: readOnlyTool("get_long_short_ratio_batch", opts...),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return runBatch(ctx, ts, req,
				func(args arguments) (market.Query, error) { return historyQuery(args, true, r) },
				LongShortRatioFetcher)
		},
	}
}

// OpenInterestFetcher adapts Provider.OpenInterest to a one-record batch fetch.
func OpenInterestFetcher(p market.Provider) batch.Fetcher[market.OpenInterest] {
	return batch.FetcherFunc[market.OpenInterest](func(ctx context.Context, symbol string, _ market.Query) ([]market.OpenInterest, error) {
		oi, err := p.OpenInterest(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return []market.OpenInterest{*oi}, nil
	})
}

// OpenInterestHistoryFetcher adapts Provider.OpenInterestHistory.
func OpenInterestHistoryFetcher(p market.Provider) batch.Fetcher[market.OpenInterest] {
	return batch.FetcherFunc[market.OpenInterest](func(ctx context.Context, _ string, q market.Query) ([]market.OpenInterest, error) {
		return p.OpenInterestHistory(ctx, q)
	})
}

// FundingRateFetcher adapts Provider.FundingRate.
func FundingRateFetcher(p market.Provider) batch.Fetcher[market.FundingRate] {
	return batch.FetcherFunc[market.FundingRate](func(ctx context.Context, _ string, q market.Query) ([]market.FundingRate, error) {
		return p.FundingRate(ctx, q)
	})
}

// LongShortRatioFetcher adapts Provider.LongShortRatio.
func LongShortRatioFetcher(p market.Provider) batch.Fetcher[market.LongShortRatio] {
	return batch.FetcherFunc[market.LongShortRatio](func(ctx context.Context, _ string, q market.Query) ([]market.LongShortRatio, error) {
		return p.LongShortRatio(ctx, q)
	})
}
