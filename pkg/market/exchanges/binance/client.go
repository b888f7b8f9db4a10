package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"crypto-mcp/pkg/market"
	"crypto-mcp/pkg/market/exchanges/rest"
)

const exchangeName = "binance"

// Client talks to the Binance USDT-M futures public REST API.
type Client struct {
	rest *rest.Client
}

// Option configures a new Client.
type Option = rest.Option

// Re-exported transport options.
var (
	WithHTTPClient = rest.WithHTTPClient
	WithBaseURL    = rest.WithBaseURL
	WithMaxRetries = rest.WithMaxRetries
	WithRateLimit  = rest.WithRateLimit
	WithBackoff    = rest.WithBackoff
)

// NewClient constructs a Binance API client.
func NewClient(opts ...Option) *Client {
	base := []Option{rest.WithErrorDecoder(decodeError), rest.WithRateLimit(1200)}
	return &Client{rest: rest.New(exchangeName, defaultBaseURL, append(base, opts...)...)}
}

// NewClientWithHTTP is a convenience for tests and recorders.
func NewClientWithHTTP(hc *http.Client, opts ...Option) *Client {
	return NewClient(append([]Option{WithHTTPClient(hc)}, opts...)...)
}

func historyParams(q market.Query) url.Values {
	params := url.Values{}
	if q.Symbol != "" {
		params.Set("symbol", q.Symbol)
	}
	if q.Period != "" {
		params.Set("period", string(q.Period))
	}
	if q.Interval != "" {
		params.Set("interval", string(q.Interval))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if ms, ok := market.Millis(q.StartTime); ok {
		params.Set("startTime", strconv.FormatInt(ms, 10))
	}
	if ms, ok := market.Millis(q.EndTime); ok {
		params.Set("endTime", strconv.FormatInt(ms, 10))
	}
	return params
}

func symbolParams(symbol string) url.Values {
	if symbol == "" {
		return nil
	}
	return url.Values{"symbol": {symbol}}
}

// GetOpenInterest returns current open interest.
func (c *Client) GetOpenInterest(ctx context.Context, symbol string) (*market.OpenInterest, error) {
	var payload openInterestPayload
	if err := c.rest.GetJSON(ctx, pathOpenInterest, symbolParams(symbol), &payload); err != nil {
		return nil, err
	}
	rec := payload.record()
	return &rec, nil
}

// GetOpenInterestHistory returns open interest statistics, oldest first.
func (c *Client) GetOpenInterestHistory(ctx context.Context, q market.Query) ([]market.OpenInterest, error) {
	var payload []openInterestHistPayload
	if err := c.rest.GetJSON(ctx, pathOpenInterestHistory, historyParams(q), &payload); err != nil {
		return nil, err
	}
	out := make([]market.OpenInterest, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.record())
	}
	return out, nil
}

// GetFundingRate returns funding rate history. Without a symbol Binance
// returns the latest settlements across all symbols.
func (c *Client) GetFundingRate(ctx context.Context, q market.Query) ([]market.FundingRate, error) {
	var payload []fundingRatePayload
	if err := c.rest.GetJSON(ctx, pathFundingRate, historyParams(q), &payload); err != nil {
		return nil, err
	}
	out := make([]market.FundingRate, 0, len(payload))
	for _, p := range payload {
		rec, err := p.record()
		if err != nil {
			return nil, c.rest.Malformed(pathFundingRate, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetTicker24h returns 24h statistics for one symbol.
func (c *Client) GetTicker24h(ctx context.Context, symbol string) (*market.Ticker, error) {
	var payload tickerPayload
	if err := c.rest.GetJSON(ctx, pathTicker24h, symbolParams(symbol), &payload); err != nil {
		return nil, err
	}
	rec := payload.record()
	return &rec, nil
}

// GetTickers24h returns 24h statistics for all symbols.
func (c *Client) GetTickers24h(ctx context.Context) ([]market.Ticker, error) {
	var payload []tickerPayload
	if err := c.rest.GetJSON(ctx, pathTicker24h, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]market.Ticker, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.record())
	}
	return out, nil
}

// GetKlines returns candlesticks, oldest first.
func (c *Client) GetKlines(ctx context.Context, q market.Query) (*market.Klines, error) {
	var rows [][]json.RawMessage
	if err := c.rest.GetJSON(ctx, pathKlines, historyParams(q), &rows); err != nil {
		return nil, err
	}
	candles := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKlineRow(row)
		if err != nil {
			return nil, c.rest.Malformed(pathKlines, err)
		}
		candles = append(candles, candle)
	}
	return &market.Klines{Symbol: q.Symbol, Interval: string(q.Interval), Candles: candles, Exchange: exchangeName}, nil
}

// GetMarkPrice returns the premium index for one symbol.
func (c *Client) GetMarkPrice(ctx context.Context, symbol string) (*market.MarkPrice, error) {
	var payload premiumIndexPayload
	if err := c.rest.GetJSON(ctx, pathPremiumIndex, symbolParams(symbol), &payload); err != nil {
		return nil, err
	}
	rec := payload.record()
	return &rec, nil
}

// GetMarkPrices returns the premium index for all symbols.
func (c *Client) GetMarkPrices(ctx context.Context) ([]market.MarkPrice, error) {
	var payload []premiumIndexPayload
	if err := c.rest.GetJSON(ctx, pathPremiumIndex, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]market.MarkPrice, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.record())
	}
	return out, nil
}

// GetLongShortRatio returns the top trader position ratio series.
func (c *Client) GetLongShortRatio(ctx context.Context, q market.Query) ([]market.LongShortRatio, error) {
	var payload []longShortRatioPayload
	if err := c.rest.GetJSON(ctx, pathLongShortRatio, historyParams(q), &payload); err != nil {
		return nil, err
	}
	out := make([]market.LongShortRatio, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.record())
	}
	return out, nil
}
