package market

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"crypto-mcp/pkg/cache"
)

// CacheStats counts cache outcomes for a CachedProvider.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CachedProvider decorates a Provider with a TTL response cache. Values are
// stored msgpack-encoded so the same cache can live in Redis.
type CachedProvider struct {
	inner  Provider
	store  cache.Store
	ttl    cache.TTLSet
	hits   atomic.Int64
	misses atomic.Int64
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps p. Quotes use the short TTL and history series the medium one.
func NewCachedProvider(p Provider, store cache.Store, ttl cache.TTLSet) *CachedProvider {
	return &CachedProvider{inner: p, store: store, ttl: ttl}
}

// Stats returns a snapshot of hit/miss counters.
func (c *CachedProvider) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *CachedProvider) Name() string {
	return c.inner.Name()
}

func (c *CachedProvider) key(op string, args ...string) string {
	return cache.Key(c.inner.Name(), op, args...)
}

func (c *CachedProvider) queryKey(op string, q Query) string {
	start, okStart := Millis(q.StartTime)
	end, okEnd := Millis(q.EndTime)
	return c.key(op, q.Symbol, string(q.Period), string(q.Interval), strconv.Itoa(q.Limit),
		cache.Millis(start, okStart), cache.Millis(end, okEnd))
}

func cached[T any](ctx context.Context, c *CachedProvider, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c.store == nil || ttl <= 0 {
		return load(ctx)
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logx.WithContext(ctx).Errorf("market cache: get key=%s err=%v", key, err)
	} else if ok {
		var v T
		decodeErr := msgpack.Unmarshal(raw, &v)
		if decodeErr == nil {
			c.hits.Add(1)
			return v, nil
		}
		logx.WithContext(ctx).Errorf("market cache: decode key=%s err=%v", key, decodeErr)
	}
	c.misses.Add(1)

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	encoded, err := msgpack.Marshal(v)
	if err != nil {
		logx.WithContext(ctx).Errorf("market cache: encode key=%s err=%v", key, err)
		return v, nil
	}
	if err := c.store.Set(ctx, key, encoded, ttl); err != nil {
		logx.WithContext(ctx).Errorf("market cache: set key=%s err=%v", key, err)
	}
	return v, nil
}

func (c *CachedProvider) OpenInterest(ctx context.Context, symbol string) (*OpenInterest, error) {
	return cached(ctx, c, c.key("oi", symbol), c.ttl.Short, func(ctx context.Context) (*OpenInterest, error) {
		return c.inner.OpenInterest(ctx, symbol)
	})
}

func (c *CachedProvider) OpenInterestHistory(ctx context.Context, q Query) ([]OpenInterest, error) {
	return cached(ctx, c, c.queryKey("oi_hist", q), c.ttl.Medium, func(ctx context.Context) ([]OpenInterest, error) {
		return c.inner.OpenInterestHistory(ctx, q)
	})
}

func (c *CachedProvider) FundingRate(ctx context.Context, q Query) ([]FundingRate, error) {
	return cached(ctx, c, c.queryKey("funding", q), c.ttl.Medium, func(ctx context.Context) ([]FundingRate, error) {
		return c.inner.FundingRate(ctx, q)
	})
}

func (c *CachedProvider) Ticker24h(ctx context.Context, symbol string) (*Ticker, error) {
	return cached(ctx, c, c.key("ticker", symbol), c.ttl.Short, func(ctx context.Context) (*Ticker, error) {
		return c.inner.Ticker24h(ctx, symbol)
	})
}

func (c *CachedProvider) Tickers24h(ctx context.Context) ([]Ticker, error) {
	return cached(ctx, c, c.key("tickers"), c.ttl.Short, c.inner.Tickers24h)
}

func (c *CachedProvider) Klines(ctx context.Context, q Query) (*Klines, error) {
	return cached(ctx, c, c.queryKey("klines", q), c.ttl.Short, func(ctx context.Context) (*Klines, error) {
		return c.inner.Klines(ctx, q)
	})
}

func (c *CachedProvider) MarkPrice(ctx context.Context, symbol string) (*MarkPrice, error) {
	return cached(ctx, c, c.key("mark", symbol), c.ttl.Short, func(ctx context.Context) (*MarkPrice, error) {
		return c.inner.MarkPrice(ctx, symbol)
	})
}

func (c *CachedProvider) MarkPrices(ctx context.Context) ([]MarkPrice, error) {
	return cached(ctx, c, c.key("marks"), c.ttl.Short, c.inner.MarkPrices)
}

func (c *CachedProvider) LongShortRatio(ctx context.Context, q Query) ([]LongShortRatio, error) {
	return cached(ctx, c, c.queryKey("ls_ratio", q), c.ttl.Medium, func(ctx context.Context) ([]LongShortRatio, error) {
		return c.inner.LongShortRatio(ctx, q)
	})
}
