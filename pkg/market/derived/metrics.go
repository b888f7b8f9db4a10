// Package derived computes analytical metrics on top of raw market data:
// VWAP, funding trend, open interest change and price/OI divergence, plus a
// few classic price indicators.
package derived

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"crypto-mcp/pkg/market"
)

// Direction is a coarse market bias.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

var (
	hundred = decimal.NewFromInt(100)
	// Mean funding change per settlement below this is noise.
	fundingThreshold = decimal.RequireFromString("0.00001")
	fundingScale     = decimal.NewFromInt(10000)
	// Price and OI moves under 1% do not count towards divergence.
	divergenceThreshold = decimal.NewFromInt(1)
)

// Trend summarises the direction of consecutive funding rate changes.
type Trend struct {
	Direction Direction       `json:"direction"`
	Strength  decimal.Decimal `json:"strength"` // 0..1
	AvgChange decimal.Decimal `json:"avg_change"`
}

// Divergence reports a price move that open interest does not confirm.
type Divergence struct {
	Detected       bool            `json:"detected"`
	Type           *Direction      `json:"type"`
	PriceChangePct decimal.Decimal `json:"price_change_pct"`
	OIChangePct    decimal.Decimal `json:"oi_change_pct"`
}

// VWAP returns Σquote_volume / Σvolume rounded to cents, or zero when
// there is no volume.
func VWAP(candles []market.Candle) decimal.Decimal {
	quote, volume := decimal.Zero, decimal.Zero
	for _, c := range candles {
		quote = quote.Add(c.QuoteVolume)
		volume = volume.Add(c.Volume)
	}
	if volume.IsZero() {
		return decimal.Zero
	}
	return quote.Div(volume).RoundBank(2)
}

// FundingTrend averages the change between consecutive funding rates.
// Strength is |avg change| × 10000 capped at 1.
func FundingTrend(rates []market.FundingRate) Trend {
	neutral := Trend{Direction: Neutral, Strength: decimal.Zero, AvgChange: decimal.Zero}
	if len(rates) < 2 {
		return neutral
	}
	sorted := slices.Clone(rates)
	slices.SortStableFunc(sorted, func(a, b market.FundingRate) int {
		return cmp.Compare(a.FundingTime, b.FundingTime)
	})

	sum := decimal.Zero
	for i := 1; i < len(sorted); i++ {
		sum = sum.Add(sorted[i].FundingRate.Sub(sorted[i-1].FundingRate))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(sorted) - 1)))

	direction := Neutral
	switch {
	case avg.GreaterThan(fundingThreshold):
		direction = Bullish
	case avg.LessThan(fundingThreshold.Neg()):
		direction = Bearish
	}
	strength := decimal.Min(avg.Abs().Mul(fundingScale), decimal.NewFromInt(1))
	return Trend{
		Direction: direction,
		Strength:  strength.RoundBank(2),
		AvgChange: avg,
	}
}

// OIChangeRate is the percentage change from the oldest to the newest open
// interest observation, rounded to one decimal.
func OIChangeRate(history []market.OpenInterest) decimal.Decimal {
	pct, ok := oiChangePct(history)
	if !ok {
		return decimal.Zero
	}
	return pct.RoundBank(1)
}

// PriceOIDivergence flags a bearish divergence when price rises while open
// interest falls, and a bullish one for the opposite.
func PriceOIDivergence(candles []market.Candle, history []market.OpenInterest) Divergence {
	none := Divergence{PriceChangePct: decimal.Zero, OIChangePct: decimal.Zero}
	pricePct, okPrice := priceChangePct(candles)
	oiPct, okOI := oiChangePct(history)
	if !okPrice || !okOI {
		return none
	}
	out := Divergence{PriceChangePct: pricePct.RoundBank(2), OIChangePct: oiPct.RoundBank(2)}

	priceUp := pricePct.GreaterThan(divergenceThreshold)
	priceDown := pricePct.LessThan(divergenceThreshold.Neg())
	oiUp := oiPct.GreaterThan(divergenceThreshold)
	oiDown := oiPct.LessThan(divergenceThreshold.Neg())

	var kind Direction
	switch {
	case priceUp && oiDown:
		kind = Bearish
	case priceDown && oiUp:
		kind = Bullish
	default:
		return out
	}
	out.Detected = true
	out.Type = &kind
	return out
}

func priceChangePct(candles []market.Candle) (decimal.Decimal, bool) {
	if len(candles) < 2 {
		return decimal.Zero, false
	}
	sorted := slices.Clone(candles)
	slices.SortStableFunc(sorted, func(a, b market.Candle) int {
		return cmp.Compare(a.OpenTime, b.OpenTime)
	})
	return pctChange(sorted[0].Close, sorted[len(sorted)-1].Close)
}

func oiChangePct(history []market.OpenInterest) (decimal.Decimal, bool) {
	if len(history) < 2 {
		return decimal.Zero, false
	}
	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b market.OpenInterest) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return pctChange(sorted[0].OpenInterest, sorted[len(sorted)-1].OpenInterest)
}

func pctChange(oldest, newest decimal.Decimal) (decimal.Decimal, bool) {
	if oldest.IsZero() {
		return decimal.Zero, false
	}
	return newest.Sub(oldest).Div(oldest).Mul(hundred), true
}
