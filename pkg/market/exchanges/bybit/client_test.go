package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-mcp/pkg/market"
)

const tickerBody = `{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[{
	"symbol":"BTCUSDT","lastPrice":"43000.5","indexPrice":"42990.1","markPrice":"42995.3",
	"prevPrice24h":"42000.5","price24hPcnt":"0.0238","highPrice24h":"43500","lowPrice24h":"41800",
	"volume24h":"120000.5","turnover24h":"5150000000","openInterest":"55000.25","openInterestValue":"2364000000",
	"fundingRate":"0.0001","nextFundingTime":"1704096000000"}]},"time":1704067200000}`

func newMockServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pathTickers, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "linear", r.URL.Query().Get("category"))
		if r.URL.Query().Get("symbol") == "NOPEUSDT" {
			_, _ = w.Write([]byte(`{"retCode":10001,"retMsg":"params error: symbol invalid","result":{},"time":1704067200000}`))
			return
		}
		_, _ = w.Write([]byte(tickerBody))
	})
	mux.HandleFunc(pathOpenInterest, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5min", q.Get("intervalTime"))
		assert.Equal(t, "200", q.Get("limit"))
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"symbol":"BTCUSDT","category":"linear","list":[
			{"openInterest":"55100.5","timestamp":"1704067500000"},
			{"openInterest":"55000.25","timestamp":"1704067200000"}],"nextPageCursor":""},"time":1704067600000}`))
	})
	mux.HandleFunc(pathFundingHistory, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[
			{"symbol":"BTCUSDT","fundingRate":"0.0002","fundingRateTimestamp":"1704096000000"},
			{"symbol":"BTCUSDT","fundingRate":"0.0001","fundingRateTimestamp":"1704067200000"}]},"time":1704100000000}`))
	})
	mux.HandleFunc(pathKline, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "60", q.Get("interval"))
		assert.Equal(t, "1704067200000", q.Get("start"))
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"symbol":"BTCUSDT","category":"linear","list":[
			["1704070800000","43100","43300","43000","43250","150.5","6500000"],
			["1704067200000","43000","43200","42900","43100","100.25","4310000"]]},"time":1704074400000}`))
	})
	mux.HandleFunc(pathLongShortRatio, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4h", r.URL.Query().Get("period"))
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[
			{"symbol":"BTCUSDT","buyRatio":"1","sellRatio":"0","timestamp":"1704081600000"},
			{"symbol":"BTCUSDT","buyRatio":"0.6","sellRatio":"0.4","timestamp":"1704067200000"}]},"time":1704090000000}`))
	})
	server := httptest.NewServer(mux)
	client := NewClient(WithBaseURL(server.URL), WithRateLimit(0), WithBackoff(time.Millisecond, time.Millisecond))
	return server, client
}

func TestClientGetOpenInterest(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	oi, err := client.GetOpenInterest(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "55000.25", oi.OpenInterest.String())
	require.EqualValues(t, 1704067200000, oi.Timestamp)
	require.Equal(t, "bybit", oi.Exchange)
}

func TestClientUnknownSymbol(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	_, err := client.GetTicker24h(context.Background(), "NOPEUSDT")
	require.ErrorIs(t, err, market.ErrUnknownSymbol)
	var pe *market.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 10001, pe.Code)
}

func TestClientGetOpenInterestHistory(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	history, err := client.GetOpenInterestHistory(context.Background(), market.Query{Symbol: "BTCUSDT", Period: "5m", Limit: 500})
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.EqualValues(t, 1704067200000, history[0].Timestamp)
	require.Equal(t, "55100.5", history[1].OpenInterest.String())
}

func TestClientGetFundingRate(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	rates, err := client.GetFundingRate(context.Background(), market.Query{Symbol: "BTCUSDT", Limit: 100})
	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.Equal(t, "0.0001", rates[0].FundingRate.String())
	require.Nil(t, rates[0].MarkPrice)

	all, err := client.GetFundingRate(context.Background(), market.Query{Limit: 100})
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestClientGetTicker24h(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	ticker, err := client.GetTicker24h(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "1000", ticker.PriceChange.String())
	require.Equal(t, "2.38", ticker.PriceChangePercent.String())
	require.Equal(t, "42000.5", ticker.OpenPrice.String())
	require.EqualValues(t, 1704067200000, ticker.CloseTime)
	require.EqualValues(t, 1704067200000-86400000, ticker.OpenTime)
	require.Zero(t, ticker.TradeCount)
}

func TestClientGetKlines(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	start := time.UnixMilli(1704067200000)
	klines, err := client.GetKlines(context.Background(), market.Query{Symbol: "BTCUSDT", Interval: "1h", Limit: 2, StartTime: &start})
	require.NoError(t, err)
	require.Equal(t, "1h", klines.Interval)
	require.Len(t, klines.Candles, 2)
	require.EqualValues(t, 1704067200000, klines.Candles[0].OpenTime)
	require.EqualValues(t, 1704070799999, klines.Candles[0].CloseTime)
	require.Equal(t, "4310000", klines.Candles[0].QuoteVolume.String())
	require.EqualValues(t, 1704070800000, klines.Candles[1].OpenTime)
}

func TestClientGetMarkPrice(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	mp, err := client.GetMarkPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "42995.3", mp.MarkPrice.String())
	require.Equal(t, "42990.1", mp.IndexPrice.String())
	require.EqualValues(t, 1704096000000, mp.NextFundingTime)
}

func TestClientGetLongShortRatio(t *testing.T) {
	server, client := newMockServer(t)
	defer server.Close()

	ratios, err := client.GetLongShortRatio(context.Background(), market.Query{Symbol: "BTCUSDT", Period: "12h", Limit: 2})
	require.NoError(t, err)
	require.Len(t, ratios, 2)
	require.True(t, ratios[0].LongShortRatio.Equal(decimal.NewFromFloat(1.5)))
	require.Equal(t, "999", ratios[1].LongShortRatio.String())
}

func TestClientRateLimitRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"retCode":10006,"retMsg":"Too many visits!","result":{},"time":1}`))
			return
		}
		_, _ = w.Write([]byte(tickerBody))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(0), WithBackoff(time.Millisecond, time.Millisecond))
	_, err := client.GetMarkPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestMappings(t *testing.T) {
	iv, err := mapInterval("3d")
	require.NoError(t, err)
	require.Equal(t, "D", iv)
	_, err = mapInterval("7m")
	require.True(t, market.IsValidation(err))

	p, err := mapPeriod("6h")
	require.NoError(t, err)
	require.Equal(t, "4h", p)
	p, err = mapPeriod("15m")
	require.NoError(t, err)
	require.Equal(t, "15min", p)
}

func TestDecodeError(t *testing.T) {
	require.NoError(t, decodeError(200, []byte(`{"retCode":0,"retMsg":"OK","result":{}}`)))

	err := decodeError(200, []byte(`{"retCode":10006,"retMsg":"Too many visits!"}`))
	require.ErrorIs(t, err, market.ErrRateLimited)

	err = decodeError(200, []byte(`{"retCode":110001,"retMsg":"symbol invalid"}`))
	require.ErrorIs(t, err, market.ErrUnknownSymbol)

	err = decodeError(200, []byte(`{"retCode":10016,"retMsg":"server error"}`))
	require.Equal(t, market.KindUpstream, market.KindOf(err))

	err = decodeError(503, []byte(`<html>busy</html>`))
	var pe *market.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 503, pe.Code)
}

func TestProviderRegistered(t *testing.T) {
	server, _ := newMockServer(t)
	defer server.Close()

	cfg, err := market.LoadConfigFromReader(strings.NewReader(`
providers:
  bybit:
    type: bybit
    base_url: ` + server.URL + `
`))
	require.NoError(t, err)
	providers, err := cfg.BuildProviders()
	require.NoError(t, err)

	p := providers["bybit"]
	require.Equal(t, "bybit", p.Name())
	oi, err := p.OpenInterest(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "55000.25", oi.OpenInterest.String())
	require.Equal(t, "bybit", oi.Exchange)
}
