package market_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"crypto-mcp/pkg/cache"
	"crypto-mcp/pkg/market"
	"crypto-mcp/pkg/market/markettest"
)

func memoryStore(t *testing.T) cache.Store {
	t.Helper()
	store, err := cache.NewMemoryStore("test", time.Second, 100)
	require.NoError(t, err)
	return store
}

func TestCachedProviderHitAndMiss(t *testing.T) {
	inner := markettest.New("binance")
	oi := &market.OpenInterest{Symbol: "BTCUSDT", OpenInterest: decimal.RequireFromString("10659.509"), Timestamp: 1589437530011, Exchange: "binance"}
	inner.On("OpenInterest", mock.Anything, "BTCUSDT").Return(oi, nil).Once()

	p := market.NewCachedProvider(inner, memoryStore(t), cache.NewTTLSet(time.Minute, time.Minute))
	ctx := context.Background()

	first, err := p.OpenInterest(ctx, "BTCUSDT")
	require.NoError(t, err)
	second, err := p.OpenInterest(ctx, "BTCUSDT")
	require.NoError(t, err)

	require.True(t, first.OpenInterest.Equal(second.OpenInterest))
	require.Equal(t, first.Timestamp, second.Timestamp)
	require.Equal(t, market.CacheStats{Hits: 1, Misses: 1}, p.Stats())
	require.InDelta(t, 0.5, p.Stats().HitRate(), 1e-9)
	inner.AssertNumberOfCalls(t, "OpenInterest", 1)
}

func TestCachedProviderKeysByQuery(t *testing.T) {
	inner := markettest.New("binance")
	inner.On("FundingRate", mock.Anything, mock.Anything).Return([]market.FundingRate{{Symbol: "BTCUSDT"}}, nil)

	p := market.NewCachedProvider(inner, memoryStore(t), cache.NewTTLSet(time.Minute, time.Minute))
	ctx := context.Background()
	_, err := p.FundingRate(ctx, market.Query{Symbol: "BTCUSDT", Limit: 10})
	require.NoError(t, err)
	_, err = p.FundingRate(ctx, market.Query{Symbol: "BTCUSDT", Limit: 20})
	require.NoError(t, err)
	_, err = p.FundingRate(ctx, market.Query{Symbol: "BTCUSDT", Limit: 10})
	require.NoError(t, err)

	inner.AssertNumberOfCalls(t, "FundingRate", 2)
	require.EqualValues(t, 1, p.Stats().Hits)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := markettest.New("binance")
	boom := market.NewProviderError("binance", market.KindNetwork, 0, "request failed")
	inner.On("MarkPrice", mock.Anything, "BTCUSDT").Return(nil, boom).Once()
	inner.On("MarkPrice", mock.Anything, "BTCUSDT").Return(&market.MarkPrice{Symbol: "BTCUSDT"}, nil).Once()

	p := market.NewCachedProvider(inner, memoryStore(t), cache.NewTTLSet(time.Minute, time.Minute))
	_, err := p.MarkPrice(context.Background(), "BTCUSDT")
	require.True(t, errors.Is(err, market.ErrNetwork))
	mp, err := p.MarkPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "BTCUSDT", mp.Symbol)
}

func TestCachedProviderDisabledTTL(t *testing.T) {
	inner := markettest.New("binance")
	inner.On("Tickers24h", mock.Anything).Return([]market.Ticker{{Symbol: "BTCUSDT"}}, nil)

	p := market.NewCachedProvider(inner, memoryStore(t), cache.NewTTLSet(-1, -1))
	for i := 0; i < 3; i++ {
		_, err := p.Tickers24h(context.Background())
		require.NoError(t, err)
	}
	inner.AssertNumberOfCalls(t, "Tickers24h", 3)
	require.Zero(t, p.Stats().Hits)
}

func TestCachedProviderRedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rds := redis.MustNewRedis(redis.RedisConf{Host: mr.Addr(), Type: redis.NodeType})

	mark := decimal.RequireFromString("34287.54619963")
	rates := []market.FundingRate{
		{Symbol: "BTCUSDT", FundingRate: decimal.RequireFromString("-0.0375"), FundingTime: 1570608000000, MarkPrice: &mark, Exchange: "binance"},
		{Symbol: "BTCUSDT", FundingRate: decimal.RequireFromString("0.0001"), FundingTime: 1570636800000, Exchange: "binance"},
	}
	inner := markettest.New("binance")
	inner.On("FundingRate", mock.Anything, mock.Anything).Return(rates, nil).Once()

	p := market.NewCachedProvider(inner, cache.NewRedisStore(rds), cache.NewTTLSet(time.Minute, time.Minute))
	q := market.Query{Symbol: "BTCUSDT", Limit: 2}
	_, err := p.FundingRate(context.Background(), q)
	require.NoError(t, err)
	require.True(t, mr.Exists("crypto-mcp:binance:funding:BTCUSDT:-:-:2:-:-"))

	got, err := p.FundingRate(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].FundingRate.Equal(rates[0].FundingRate))
	require.NotNil(t, got[0].MarkPrice)
	require.True(t, got[0].MarkPrice.Equal(mark))
	require.Nil(t, got[1].MarkPrice)
	inner.AssertNumberOfCalls(t, "FundingRate", 1)
}
