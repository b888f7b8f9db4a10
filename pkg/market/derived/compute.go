package derived

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"crypto-mcp/pkg/market"
)

// Metric names accepted by Compute.
type Metric string

const (
	MetricVWAP              Metric = "vwap"
	MetricFundingTrend      Metric = "funding_trend"
	MetricOIChangeRate      Metric = "oi_change_rate"
	MetricPriceOIDivergence Metric = "price_oi_divergence"
	MetricRSI               Metric = "rsi"
	MetricEMA               Metric = "ema"
	MetricMACD              Metric = "macd"
	MetricATR               Metric = "atr"
)

var allMetrics = []Metric{
	MetricVWAP, MetricFundingTrend, MetricOIChangeRate, MetricPriceOIDivergence,
	MetricRSI, MetricEMA, MetricMACD, MetricATR,
}

// Metrics lists every supported metric name.
func Metrics() []string {
	out := make([]string, len(allMetrics))
	for i, m := range allMetrics {
		out[i] = string(m)
	}
	return out
}

// Sample sizes for the upstream fetches.
const (
	windowCandles    = 24
	indicatorCandles = 100
	fundingSamples   = 10
	oiSamples        = 24
)

// ParseMetrics validates and de-duplicates metric names, keeping input order.
func ParseMetrics(raw []string) ([]Metric, error) {
	if len(raw) == 0 {
		return nil, market.Validationf("metrics", "at least one metric is required, allowed: %s", strings.Join(Metrics(), ", "))
	}
	seen := make(map[Metric]struct{}, len(raw))
	out := make([]Metric, 0, len(raw))
	for _, r := range raw {
		m := Metric(strings.ToLower(strings.TrimSpace(r)))
		if !m.valid() {
			return nil, market.Validationf("metrics", "%q is not supported, allowed: %s", r, strings.Join(Metrics(), ", "))
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

func (m Metric) valid() bool {
	for _, known := range allMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// MACDValue is the latest point of the MACD series.
type MACDValue struct {
	MACD      decimal.Decimal `json:"macd"`
	Signal    decimal.Decimal `json:"signal"`
	Histogram decimal.Decimal `json:"histogram"`
}

// Report holds only the metrics that were requested. Indicators that need
// more history than the exchange returned are left nil.
type Report struct {
	Symbol            string           `json:"symbol"`
	Exchange          string           `json:"exchange"`
	VWAP              *decimal.Decimal `json:"vwap,omitempty"`
	FundingTrend      *Trend           `json:"funding_trend,omitempty"`
	OIChangeRate      *decimal.Decimal `json:"oi_change_rate,omitempty"`
	PriceOIDivergence *Divergence      `json:"price_oi_divergence,omitempty"`
	RSI               *decimal.Decimal `json:"rsi,omitempty"`
	EMA               *decimal.Decimal `json:"ema,omitempty"`
	MACD              *MACDValue       `json:"macd,omitempty"`
	ATR               *decimal.Decimal `json:"atr,omitempty"`
}

// Request describes a Compute call.
type Request struct {
	Symbol  string
	Metrics []Metric
	// Interval drives VWAP and the price indicators. Divergence always uses 1h.
	Interval market.Interval
}

type inputs struct {
	mu      sync.Mutex
	klines  map[string][]market.Candle
	funding []market.FundingRate
	oi      []market.OpenInterest
}

func (in *inputs) candles(interval market.Interval, limit int) []market.Candle {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.klines[klinesKey(interval, limit)]
}

func klinesKey(interval market.Interval, limit int) string {
	return fmt.Sprintf("%s/%d", interval, limit)
}

// Compute fetches only the inputs the requested metrics need, concurrently,
// and derives the metrics from them. Any fetch failure fails the whole call.
func Compute(ctx context.Context, p market.Provider, req Request) (*Report, error) {
	symbol, err := market.ValidateSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	if len(req.Metrics) == 0 {
		return nil, market.Validationf("metrics", "at least one metric is required")
	}
	if req.Interval == "" {
		req.Interval = "1h"
	}
	interval, err := market.ParseInterval(string(req.Interval))
	if err != nil {
		return nil, err
	}
	req.Interval = interval

	want := make(map[Metric]bool, len(req.Metrics))
	for _, m := range req.Metrics {
		want[m] = true
	}
	in := &inputs{klines: make(map[string][]market.Candle)}
	g, gctx := errgroup.WithContext(ctx)

	fetchKlines := func(interval market.Interval, limit int) {
		key := klinesKey(interval, limit)
		in.mu.Lock()
		_, scheduled := in.klines[key]
		if !scheduled {
			in.klines[key] = nil
		}
		in.mu.Unlock()
		if scheduled {
			return
		}
		g.Go(func() error {
			k, err := p.Klines(gctx, market.Query{Symbol: symbol, Interval: interval, Limit: limit})
			if err != nil {
				return fmt.Errorf("klines %s: %w", interval, err)
			}
			in.mu.Lock()
			in.klines[key] = k.Candles
			in.mu.Unlock()
			return nil
		})
	}

	if want[MetricVWAP] {
		fetchKlines(req.Interval, windowCandles)
	}
	if want[MetricPriceOIDivergence] {
		fetchKlines("1h", windowCandles)
	}
	if want[MetricRSI] || want[MetricEMA] || want[MetricMACD] || want[MetricATR] {
		fetchKlines(req.Interval, indicatorCandles)
	}
	if want[MetricFundingTrend] {
		g.Go(func() error {
			rates, err := p.FundingRate(gctx, market.Query{Symbol: symbol, Limit: fundingSamples})
			if err != nil {
				return fmt.Errorf("funding rate: %w", err)
			}
			in.funding = rates
			return nil
		})
	}
	if want[MetricOIChangeRate] || want[MetricPriceOIDivergence] {
		g.Go(func() error {
			hist, err := p.OpenInterestHistory(gctx, market.Query{Symbol: symbol, Period: "1h", Limit: oiSamples})
			if err != nil {
				return fmt.Errorf("open interest history: %w", err)
			}
			in.oi = hist
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Symbol: symbol, Exchange: p.Name()}
	if want[MetricVWAP] {
		v := VWAP(in.candles(req.Interval, windowCandles))
		report.VWAP = &v
	}
	if want[MetricFundingTrend] {
		t := FundingTrend(in.funding)
		report.FundingTrend = &t
	}
	if want[MetricOIChangeRate] {
		v := OIChangeRate(in.oi)
		report.OIChangeRate = &v
	}
	if want[MetricPriceOIDivergence] {
		d := PriceOIDivergence(in.candles("1h", windowCandles), in.oi)
		report.PriceOIDivergence = &d
	}

	series := in.candles(req.Interval, indicatorCandles)
	closes := Closes(series)
	if want[MetricRSI] {
		report.RSI = lastRounded(RSI(closes, RSIPeriod))
	}
	if want[MetricEMA] {
		report.EMA = lastRounded(EMA(closes, EMAPeriod))
	}
	if want[MetricMACD] {
		macd, signal, hist := MACD(closes)
		m, okM := Last(macd)
		s, okS := Last(signal)
		h, okH := Last(hist)
		if okM && okS && okH {
			report.MACD = &MACDValue{
				MACD:      decimal.NewFromFloat(m).Round(4),
				Signal:    decimal.NewFromFloat(s).Round(4),
				Histogram: decimal.NewFromFloat(h).Round(4),
			}
		}
	}
	if want[MetricATR] {
		report.ATR = lastRounded(ATR(series, ATRPeriod))
	}
	return report, nil
}

func lastRounded(series []float64) *decimal.Decimal {
	v, ok := Last(series)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(v).Round(2)
	return &d
}
