package derived

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"crypto-mcp/pkg/market"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestVWAP(t *testing.T) {
	candles := []market.Candle{
		{Volume: d("10"), QuoteVolume: d("1000.555")},
		{Volume: d("20"), QuoteVolume: d("2001")},
	}
	requireDecimal(t, "100.05", VWAP(candles))
	requireDecimal(t, "0", VWAP([]market.Candle{{Volume: d("0"), QuoteVolume: d("0")}}))
	requireDecimal(t, "0", VWAP(nil))
}

func funding(pairs ...string) []market.FundingRate {
	out := make([]market.FundingRate, 0, len(pairs))
	for i, r := range pairs {
		out = append(out, market.FundingRate{FundingRate: d(r), FundingTime: int64(i+1) * 28_800_000})
	}
	return out
}

func TestFundingTrend(t *testing.T) {
	cases := []struct {
		name      string
		rates     []market.FundingRate
		direction Direction
		strength  string
	}{
		{"rising", funding("0.0001", "0.0002", "0.0003"), Bullish, "1"},
		{"falling capped", funding("0.0003", "0.0001"), Bearish, "1"},
		{"flat", funding("0.0001", "0.000105"), Neutral, "0.05"},
		{"single", funding("0.0001"), Neutral, "0"},
		{"empty", nil, Neutral, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FundingTrend(tc.rates)
			require.Equal(t, tc.direction, got.Direction)
			requireDecimal(t, tc.strength, got.Strength)
		})
	}
}

func TestFundingTrendSortsByTime(t *testing.T) {
	rates := funding("0.0001", "0.00015")
	rates[0], rates[1] = rates[1], rates[0]
	got := FundingTrend(rates)
	require.Equal(t, Bullish, got.Direction)
	requireDecimal(t, "0.5", got.Strength)
	requireDecimal(t, "0.00005", got.AvgChange)
	require.EqualValues(t, 57_600_000, rates[0].FundingTime, "input must not be reordered")
}

func oi(values ...string) []market.OpenInterest {
	out := make([]market.OpenInterest, 0, len(values))
	for i, v := range values {
		out = append(out, market.OpenInterest{OpenInterest: d(v), Timestamp: int64(i+1) * 3_600_000})
	}
	return out
}

func candles(closes ...string) []market.Candle {
	out := make([]market.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, market.Candle{OpenTime: int64(i+1) * 3_600_000, Close: d(c)})
	}
	return out
}

func TestOIChangeRate(t *testing.T) {
	requireDecimal(t, "12.3", OIChangeRate(oi("100", "105", "112.34")))

	reversed := oi("100", "112.34")
	reversed[0], reversed[1] = reversed[1], reversed[0]
	requireDecimal(t, "12.3", OIChangeRate(reversed))

	requireDecimal(t, "0", OIChangeRate(oi("100")))
	requireDecimal(t, "0", OIChangeRate(oi("0", "5")))
}

func TestPriceOIDivergence(t *testing.T) {
	cases := []struct {
		name     string
		candles  []market.Candle
		oi       []market.OpenInterest
		detected bool
		kind     Direction
	}{
		{"bearish", candles("100", "101", "103"), oi("1000", "950"), true, Bearish},
		{"bullish", candles("100", "97"), oi("1000", "1050"), true, Bullish},
		{"confirmed rally", candles("100", "103"), oi("1000", "1050"), false, ""},
		{"below threshold", candles("100", "100.5"), oi("1000", "950"), false, ""},
		{"too few candles", candles("100"), oi("1000", "950"), false, ""},
		{"too few oi", candles("100", "103"), oi("1000"), false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PriceOIDivergence(tc.candles, tc.oi)
			require.Equal(t, tc.detected, got.Detected)
			if !tc.detected {
				require.Nil(t, got.Type)
				return
			}
			require.NotNil(t, got.Type)
			require.Equal(t, tc.kind, *got.Type)
		})
	}

	got := PriceOIDivergence(candles("100", "103"), oi("1000", "950"))
	requireDecimal(t, "3", got.PriceChangePct)
	requireDecimal(t, "-5", got.OIChangePct)
}
