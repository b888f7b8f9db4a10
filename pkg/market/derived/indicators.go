package derived

import (
	"math"

	"crypto-mcp/pkg/market"
)

// Indicator windows used by Compute.
const (
	RSIPeriod = 14
	EMAPeriod = 20
	ATRPeriod = 14
)

// Closes extracts close prices as float64 for the series indicators.
func Closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

// EMA produces the exponential moving average of values, seeded with the
// simple average of the first complete window. Leading slots are NaN.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) == 0 {
		return []float64{}
	}
	result := nanSeries(len(values))
	if len(values) < period {
		return result
	}
	multiplier := 2.0 / float64(period+1)

	start := -1
	var seed float64
	for i := period - 1; i < len(values) && start == -1; i++ {
		sum, ok := windowSum(values[i-period+1 : i+1])
		if ok {
			start = i
			seed = sum / float64(period)
		}
	}
	if start == -1 {
		return result
	}
	result[start] = seed

	for i := start + 1; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			result[i] = result[i-1]
			continue
		}
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}
	return result
}

// MACD returns the 12/26 MACD line, its 9-period signal and the histogram.
func MACD(values []float64) (macd, signal, hist []float64) {
	if len(values) == 0 {
		return []float64{}, []float64{}, []float64{}
	}
	fast := EMA(values, 12)
	slow := EMA(values, 26)

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fast[i] - slow[i]
	}
	signal = EMA(macd, 9)
	hist = make([]float64, len(values))
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}

// RSI computes Wilder's Relative Strength Index.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) == 0 {
		return []float64{}
	}
	rsi := nanSeries(len(values))
	if len(values) <= period {
		return rsi
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(change, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-change, 0)) / float64(period)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}
	return rsi
}

// ATR computes the Average True Range over candles, smoothed with EMA.
func ATR(candles []market.Candle, period int) []float64 {
	if period <= 0 || len(candles) == 0 {
		return []float64{}
	}
	tr := make([]float64, len(candles))
	for i, c := range candles {
		high, low := c.High.InexactFloat64(), c.Low.InexactFloat64()
		if i == 0 {
			tr[i] = high - low
			continue
		}
		prevClose := candles[i-1].Close.InexactFloat64()
		tr[i] = math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
	}
	return EMA(tr, period)
}

// Last returns the final value of a series, false when it is empty or NaN.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	case avgGain == 0:
		return 0
	default:
		return 100 - 100/(1+avgGain/avgLoss)
	}
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func windowSum(window []float64) (float64, bool) {
	var sum float64
	for _, v := range window {
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
	}
	return sum, true
}
