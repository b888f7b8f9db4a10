package rest

import (
	"context"
	"net/http"
	"time"

	"crypto-mcp/pkg/market"
)

// DefaultProviderTimeout bounds a provider call when config sets no timeout.
const DefaultProviderTimeout = 45 * time.Second

// API is the per-exchange client surface a Provider adapts.
type API interface {
	GetOpenInterest(ctx context.Context, symbol string) (*market.OpenInterest, error)
	GetOpenInterestHistory(ctx context.Context, q market.Query) ([]market.OpenInterest, error)
	GetFundingRate(ctx context.Context, q market.Query) ([]market.FundingRate, error)
	GetTicker24h(ctx context.Context, symbol string) (*market.Ticker, error)
	GetTickers24h(ctx context.Context) ([]market.Ticker, error)
	GetKlines(ctx context.Context, q market.Query) (*market.Klines, error)
	GetMarkPrice(ctx context.Context, symbol string) (*market.MarkPrice, error)
	GetMarkPrices(ctx context.Context) ([]market.MarkPrice, error)
	GetLongShortRatio(ctx context.Context, q market.Query) ([]market.LongShortRatio, error)
}

// Provider adapts an API client to market.Provider, bounding every call with
// a timeout.
type Provider struct {
	api     API
	name    string
	timeout time.Duration
}

var _ market.Provider = (*Provider)(nil)

// NewProvider wraps api under name. A non-positive timeout selects
// DefaultProviderTimeout.
func NewProvider(name string, api API, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Provider{api: api, name: name, timeout: timeout}
}

// ClientOptions maps a provider config section onto transport options.
func ClientOptions(cfg *market.ProviderConfig) []Option {
	opts := []Option{WithRateLimit(cfg.RateLimit)}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, WithMaxRetries(cfg.MaxRetries))
	}
	return opts
}

// Register makes typeName buildable from market config. newClient receives
// the options derived from each provider section.
func Register[C API](typeName string, newClient func(...Option) C) {
	market.RegisterProvider(typeName, func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		return NewProvider(name, newClient(ClientOptions(cfg)...), cfg.Timeout), nil
	})
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Provider) OpenInterest(ctx context.Context, symbol string) (*market.OpenInterest, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetOpenInterest(ctx, symbol)
}

func (p *Provider) OpenInterestHistory(ctx context.Context, q market.Query) ([]market.OpenInterest, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetOpenInterestHistory(ctx, q)
}

func (p *Provider) FundingRate(ctx context.Context, q market.Query) ([]market.FundingRate, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetFundingRate(ctx, q)
}

func (p *Provider) Ticker24h(ctx context.Context, symbol string) (*market.Ticker, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetTicker24h(ctx, symbol)
}

func (p *Provider) Tickers24h(ctx context.Context) ([]market.Ticker, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetTickers24h(ctx)
}

func (p *Provider) Klines(ctx context.Context, q market.Query) (*market.Klines, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetKlines(ctx, q)
}

func (p *Provider) MarkPrice(ctx context.Context, symbol string) (*market.MarkPrice, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetMarkPrice(ctx, symbol)
}

func (p *Provider) MarkPrices(ctx context.Context) ([]market.MarkPrice, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetMarkPrices(ctx)
}

func (p *Provider) LongShortRatio(ctx context.Context, q market.Query) ([]market.LongShortRatio, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.api.GetLongShortRatio(ctx, q)
}
