// Package markettest provides a testify mock of market.Provider.
package markettest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"crypto-mcp/pkg/market"
)

// Provider is a mock.Mock backed market.Provider.
type Provider struct {
	mock.Mock
	name string
}

var _ market.Provider = (*Provider)(nil)

// New returns a mock reporting name from Name().
func New(name string) *Provider {
	return &Provider{name: name}
}

func (m *Provider) Name() string { return m.name }

func (m *Provider) OpenInterest(ctx context.Context, symbol string) (*market.OpenInterest, error) {
	args := m.Called(ctx, symbol)
	v, _ := args.Get(0).(*market.OpenInterest)
	return v, args.Error(1)
}

func (m *Provider) OpenInterestHistory(ctx context.Context, q market.Query) ([]market.OpenInterest, error) {
	args := m.Called(ctx, q)
	v, _ := args.Get(0).([]market.OpenInterest)
	return v, args.Error(1)
}

func (m *Provider) FundingRate(ctx context.Context, q market.Query) ([]market.FundingRate, error) {
	args := m.Called(ctx, q)
	v, _ := args.Get(0).([]market.FundingRate)
	return v, args.Error(1)
}

func (m *Provider) Ticker24h(ctx context.Context, symbol string) (*market.Ticker, error) {
	args := m.Called(ctx, symbol)
	v, _ := args.Get(0).(*market.Ticker)
	return v, args.Error(1)
}

func (m *Provider) Tickers24h(ctx context.Context) ([]market.Ticker, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]market.Ticker)
	return v, args.Error(1)
}

func (m *Provider) Klines(ctx context.Context, q market.Query) (*market.Klines, error) {
	args := m.Called(ctx, q)
	v, _ := args.Get(0).(*market.Klines)
	return v, args.Error(1)
}

func (m *Provider) MarkPrice(ctx context.Context, symbol string) (*market.MarkPrice, error) {
	args := m.Called(ctx, symbol)
	v, _ := args.Get(0).(*market.MarkPrice)
	return v, args.Error(1)
}

func (m *Provider) MarkPrices(ctx context.Context) ([]market.MarkPrice, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]market.MarkPrice)
	return v, args.Error(1)
}

func (m *Provider) LongShortRatio(ctx context.Context, q market.Query) ([]market.LongShortRatio, error) {
	args := m.Called(ctx, q)
	v, _ := args.Get(0).([]market.LongShortRatio)
	return v, args.Error(1)
}

// QueryMatching matches a market.Query argument by symbol and, when set, by
// period, interval and limit.
func QueryMatching(symbol string, period market.Period, interval market.Interval, limit int) any {
	return mock.MatchedBy(func(q market.Query) bool {
		return q.Symbol == symbol &&
			(period == "" || q.Period == period) &&
			(interval == "" || q.Interval == interval) &&
			(limit == 0 || q.Limit == limit)
	})
}
