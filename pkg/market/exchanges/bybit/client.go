package bybit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"crypto-mcp/pkg/market"
	"crypto-mcp/pkg/market/exchanges/rest"
)

const exchangeName = "bybit"

// Client talks to the Bybit V5 public market endpoints for linear perpetuals.
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

// NewClient constructs a Bybit API client.
func NewClient(opts ...Option) *Client {
	base := []Option{rest.WithErrorDecoder(decodeError), rest.WithRateLimit(100)}
	return &Client{rest: rest.New(exchangeName, defaultBaseURL, append(base, opts...)...)}
}

// NewClientWithHTTP is a convenience for tests and recorders.
func NewClientWithHTTP(hc *http.Client, opts ...Option) *Client {
	return NewClient(append([]Option{WithHTTPClient(hc)}, opts...)...)
}

// get unwraps the envelope into out and returns the server time in ms.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (int64, error) {
	var env envelope
	if err := c.rest.GetJSON(ctx, path, params, &env); err != nil {
		return 0, err
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return 0, c.rest.Malformed(path, err)
	}
	return env.Time, nil
}

func baseParams(symbol string) url.Values {
	params := url.Values{"category": {category}}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	return params
}

func setLimit(params url.Values, limit, max int) {
	if limit <= 0 {
		return
	}
	if limit > max {
		limit = max
	}
	params.Set("limit", strconv.Itoa(limit))
}

func setRange(params url.Values, q market.Query, startKey, endKey string) {
	if ms, ok := market.Millis(q.StartTime); ok {
		params.Set(startKey, strconv.FormatInt(ms, 10))
	}
	if ms, ok := market.Millis(q.EndTime); ok {
		params.Set(endKey, strconv.FormatInt(ms, 10))
	}
}

func (c *Client) tickers(ctx context.Context, symbol string) ([]tickerItem, int64, error) {
	var result tickerResult
	now, err := c.get(ctx, pathTickers, baseParams(symbol), &result)
	if err != nil {
		return nil, 0, err
	}
	return result.List, now, nil
}

func (c *Client) ticker(ctx context.Context, symbol string) (tickerItem, int64, error) {
	items, now, err := c.tickers(ctx, symbol)
	if err != nil {
		return tickerItem{}, 0, err
	}
	if len(items) == 0 {
		return tickerItem{}, 0, market.NewProviderError(exchangeName, market.KindUnknownSymbol, 0, "no ticker for "+symbol)
	}
	return items[0], now, nil
}

// GetOpenInterest reads current open interest from the ticker endpoint, which
// is the only place V5 exposes it without a period.
func (c *Client) GetOpenInterest(ctx context.Context, symbol string) (*market.OpenInterest, error) {
	item, now, err := c.ticker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	rec, err := item.openInterest(now)
	if err != nil {
		return nil, c.rest.Malformed(pathTickers, err)
	}
	return &rec, nil
}

// GetOpenInterestHistory returns open interest samples, oldest first.
func (c *Client) GetOpenInterestHistory(ctx context.Context, q market.Query) ([]market.OpenInterest, error) {
	period, err := mapPeriod(q.Period)
	if err != nil {
		return nil, err
	}
	params := baseParams(q.Symbol)
	params.Set("intervalTime", period)
	setLimit(params, q.Limit, maxOpenInterestRows)
	setRange(params, q, "startTime", "endTime")

	var result openInterestResult
	if _, err := c.get(ctx, pathOpenInterest, params, &result); err != nil {
		return nil, err
	}
	out := make([]market.OpenInterest, 0, len(result.List))
	for _, item := range result.List {
		var f fields
		rec := market.OpenInterest{
			Symbol:       result.Symbol,
			OpenInterest: f.dec("openInterest", item.OpenInterest),
			Timestamp:    f.ms("timestamp", item.Timestamp),
			Exchange:     exchangeName,
		}
		if f.err != nil {
			return nil, c.rest.Malformed(pathOpenInterest, f.err)
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// GetFundingRate returns settled funding rates, oldest first. Bybit requires a
// symbol, so an empty one yields an empty list.
func (c *Client) GetFundingRate(ctx context.Context, q market.Query) ([]market.FundingRate, error) {
	if q.Symbol == "" {
		return []market.FundingRate{}, nil
	}
	params := baseParams(q.Symbol)
	setLimit(params, q.Limit, maxFundingRows)
	setRange(params, q, "startTime", "endTime")

	var result fundingResult
	if _, err := c.get(ctx, pathFundingHistory, params, &result); err != nil {
		return nil, err
	}
	out := make([]market.FundingRate, 0, len(result.List))
	for _, item := range result.List {
		var f fields
		rec := market.FundingRate{
			Symbol:      item.Symbol,
			FundingRate: f.dec("fundingRate", item.FundingRate),
			FundingTime: f.ms("fundingRateTimestamp", item.FundingRateTimestamp),
			Exchange:    exchangeName,
		}
		if f.err != nil {
			return nil, c.rest.Malformed(pathFundingHistory, f.err)
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FundingTime < out[j].FundingTime })
	return out, nil
}

// GetTicker24h returns 24h statistics for one symbol.
func (c *Client) GetTicker24h(ctx context.Context, symbol string) (*market.Ticker, error) {
	item, now, err := c.ticker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	rec, err := item.ticker(now)
	if err != nil {
		return nil, c.rest.Malformed(pathTickers, err)
	}
	return &rec, nil
}

// GetTickers24h returns 24h statistics for every linear symbol.
func (c *Client) GetTickers24h(ctx context.Context) ([]market.Ticker, error) {
	items, now, err := c.tickers(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]market.Ticker, 0, len(items))
	for _, item := range items {
		rec, err := item.ticker(now)
		if err != nil {
			return nil, c.rest.Malformed(pathTickers, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetKlines returns candles oldest first; V5 serves them newest first.
func (c *Client) GetKlines(ctx context.Context, q market.Query) (*market.Klines, error) {
	interval, err := mapInterval(q.Interval)
	if err != nil {
		return nil, err
	}
	params := baseParams(q.Symbol)
	params.Set("interval", interval)
	setLimit(params, q.Limit, maxKlineRows)
	setRange(params, q, "start", "end")

	var result klineResult
	if _, err := c.get(ctx, pathKline, params, &result); err != nil {
		return nil, err
	}
	span := intervalSpan[interval]
	candles := make([]market.Candle, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		candle, err := parseKlineRow(result.List[i], span)
		if err != nil {
			return nil, c.rest.Malformed(pathKline, err)
		}
		candles = append(candles, candle)
	}
	symbol := result.Symbol
	if symbol == "" {
		symbol = q.Symbol
	}
	return &market.Klines{Symbol: symbol, Interval: string(q.Interval), Candles: candles, Exchange: exchangeName}, nil
}

// GetMarkPrice reads mark/index price and funding from the ticker endpoint.
func (c *Client) GetMarkPrice(ctx context.Context, symbol string) (*market.MarkPrice, error) {
	item, _, err := c.ticker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	rec, err := item.markPrice()
	if err != nil {
		return nil, c.rest.Malformed(pathTickers, err)
	}
	return &rec, nil
}

// GetMarkPrices returns mark prices for every linear symbol.
func (c *Client) GetMarkPrices(ctx context.Context) ([]market.MarkPrice, error) {
	items, _, err := c.tickers(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]market.MarkPrice, 0, len(items))
	for _, item := range items {
		rec, err := item.markPrice()
		if err != nil {
			return nil, c.rest.Malformed(pathTickers, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetLongShortRatio returns the account long/short ratio series, oldest first.
func (c *Client) GetLongShortRatio(ctx context.Context, q market.Query) ([]market.LongShortRatio, error) {
	period, err := mapPeriod(q.Period)
	if err != nil {
		return nil, err
	}
	params := baseParams(q.Symbol)
	params.Set("period", period)
	setLimit(params, q.Limit, maxRatioRows)
	setRange(params, q, "startTime", "endTime")

	var result ratioResult
	if _, err := c.get(ctx, pathLongShortRatio, params, &result); err != nil {
		return nil, err
	}
	out := make([]market.LongShortRatio, 0, len(result.List))
	for _, item := range result.List {
		var f fields
		buy := f.dec("buyRatio", item.BuyRatio)
		sell := f.dec("sellRatio", item.SellRatio)
		rec := market.LongShortRatio{
			Symbol:         item.Symbol,
			LongShortRatio: longShort(buy, sell),
			LongAccount:    buy,
			ShortAccount:   sell,
			Timestamp:      f.ms("timestamp", item.Timestamp),
			Exchange:       exchangeName,
		}
		if f.err != nil {
			return nil, c.rest.Malformed(pathLongShortRatio, f.err)
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
