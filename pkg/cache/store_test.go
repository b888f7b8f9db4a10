package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore("test", time.Second, 10)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)
}

func TestMemoryStoreHonorsSubSecondTTL(t *testing.T) {
	store, err := NewMemoryStore("test", time.Second, 10)
	require.NoError(t, err)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, store.Set(ctx, "k", []byte("v"), 200*time.Millisecond))
	time.Sleep(50 * time.Millisecond)
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)

	require.Eventually(t, func() bool {
		_, ok, _ := store.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestMemoryStoreKeepsEntryUntilTTL(t *testing.T) {
	store, err := NewMemoryStore("test", time.Second, 10)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 1500*time.Millisecond))
	deadline := time.Now().Add(1300 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok, "entry expired before its ttl")
		time.Sleep(100 * time.Millisecond)
	}
}

func TestSweepAfter(t *testing.T) {
	for _, ttl := range []time.Duration{time.Millisecond, 200 * time.Millisecond, 3 * time.Second, 30 * time.Second} {
		// collection.Cache may shorten a delay by 5% and one wheel tick.
		require.Greater(t, time.Duration(float64(sweepAfter(ttl))*0.95)-time.Second, ttl)
	}
}

func TestMemoryStoreZeroTTLSkips(t *testing.T) {
	store, err := NewMemoryStore("test", time.Second, 10)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 0))
	_, ok, _ := store.Get(context.Background(), "k")
	require.False(t, ok)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rds := redis.MustNewRedis(redis.RedisConf{Host: mr.Addr(), Type: redis.NodeType})
	return mr, rds
}

func TestRedisStore(t *testing.T) {
	mr, rds := newMiniRedis(t)
	store := NewRedisStore(rds)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "crypto-mcp:binance:ticker:BTCUSDT", []byte{0x81, 0xa1, 0x61}, 1500*time.Millisecond))
	got, ok, err := store.Get(ctx, "crypto-mcp:binance:ticker:BTCUSDT")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0x81, 0xa1, 0x61}, got)
	require.Equal(t, 2*time.Second, mr.TTL("crypto-mcp:binance:ticker:BTCUSDT"))

	mr.FastForward(3 * time.Second)
	_, ok, err = store.Get(ctx, "crypto-mcp:binance:ticker:BTCUSDT")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("", nil, time.Second)
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	_, err = NewStore("redis", nil, time.Second)
	require.Error(t, err)

	_, rds := newMiniRedis(t)
	store, err = NewStore("Redis", rds, time.Second)
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, store)

	_, err = NewStore("memcached", nil, time.Second)
	require.Error(t, err)
}

func TestKey(t *testing.T) {
	require.Equal(t, "crypto-mcp:binance:oi_hist:BTCUSDT:5m:30:-:-", Key("Binance", "oi_hist", "BTCUSDT", "5m", "30", "", ""))
	require.Equal(t, "crypto-mcp:bybit:tickers", Key("bybit", "tickers"))
	require.Equal(t, "1704067200000", Millis(1704067200000, true))
	require.Equal(t, "", Millis(0, false))
}

func TestNewTTLSet(t *testing.T) {
	ttl := NewTTLSet(0, 0)
	require.Equal(t, 3*time.Second, ttl.Short)
	require.Equal(t, 30*time.Second, ttl.Medium)

	ttl = NewTTLSet(5*time.Second, -1)
	require.Equal(t, 5*time.Second, ttl.Short)
	require.Zero(t, ttl.Medium)
}
