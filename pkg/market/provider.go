package market

import "context"

// Provider exposes exchange-agnostic futures market data.
type Provider interface {
	// Name returns the configured provider name (e.g. "binance").
	Name() string

	// OpenInterest returns the current open interest for a symbol.
	OpenInterest(ctx context.Context, symbol string) (*OpenInterest, error)
	// OpenInterestHistory returns open interest samples in chronological order.
	OpenInterestHistory(ctx context.Context, q Query) ([]OpenInterest, error)
	// FundingRate returns funding rate history. An empty q.Symbol asks for every symbol
	// where the exchange supports it.
	FundingRate(ctx context.Context, q Query) ([]FundingRate, error)
	// Ticker24h returns rolling 24h statistics for one symbol.
	Ticker24h(ctx context.Context, symbol string) (*Ticker, error)
	// Tickers24h returns rolling 24h statistics for every listed symbol.
	Tickers24h(ctx context.Context) ([]Ticker, error)
	// Klines returns OHLCV candles in chronological order.
	Klines(ctx context.Context, q Query) (*Klines, error)
	// MarkPrice returns mark/index price and funding info for one symbol.
	MarkPrice(ctx context.Context, symbol string) (*MarkPrice, error)
	// MarkPrices returns mark/index price and funding info for every listed symbol.
	MarkPrices(ctx context.Context) ([]MarkPrice, error)
	// LongShortRatio returns the top trader long/short position ratio series.
	LongShortRatio(ctx context.Context, q Query) ([]LongShortRatio, error)
}
