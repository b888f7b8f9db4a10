package market

import (
	"sort"
	"strings"
	"time"
)

// Interval is a kline bar width in canonical (Binance) spelling.
type Interval string

// Period is the sampling step for open interest history and long/short ratio.
type Period string

var allowedIntervals = map[Interval]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {}, "1M": {},
}

// Bybit spellings accepted as input and normalised to canonical intervals.
var intervalAliases = map[string]Interval{
	"1": "1m", "3": "3m", "5": "5m", "15": "15m", "30": "30m",
	"60": "1h", "120": "2h", "240": "4h", "360": "6h", "480": "8h", "720": "12h",
	"D": "1d", "W": "1w", "M": "1M",
}

var allowedPeriods = map[Period]struct{}{
	"5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "12h": {},
	"1d": {},
}

// ParseInterval validates an interval, accepting Bybit aliases.
func ParseInterval(raw string) (Interval, error) {
	raw = strings.TrimSpace(raw)
	if alias, ok := intervalAliases[raw]; ok {
		return alias, nil
	}
	iv := Interval(raw)
	if _, ok := allowedIntervals[iv]; !ok {
		return "", Validationf("interval", "%q is not supported, allowed: %s", raw, joinKeys(allowedIntervals))
	}
	return iv, nil
}

// ParsePeriod validates a history period.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.TrimSpace(raw))
	if _, ok := allowedPeriods[p]; !ok {
		return "", Validationf("period", "%q is not supported, allowed: %s", raw, joinKeys(allowedPeriods))
	}
	return p, nil
}

// Intervals lists the canonical kline intervals, sorted.
func Intervals() []string { return sortedKeys(allowedIntervals) }

// Periods lists the accepted history periods, sorted.
func Periods() []string { return sortedKeys(allowedPeriods) }

// LimitRange bounds the number of records a single request may ask for.
type LimitRange struct {
	Min, Max, Default int
}

// Limit ranges per operation.
var (
	OpenInterestHistoryLimit = LimitRange{Min: 1, Max: 500, Default: 30}
	LongShortRatioLimit      = LimitRange{Min: 1, Max: 500, Default: 30}
	FundingRateLimit         = LimitRange{Min: 1, Max: 1000, Default: 100}
	KlinesLimit              = LimitRange{Min: 1, Max: 1500, Default: 500}
)

// Query carries the shared parameters of a market data request.
type Query struct {
	Symbol    string
	Period    Period
	Interval  Interval
	Limit     int
	StartTime *time.Time
	EndTime   *time.Time

	bounds *LimitRange
}

// WithLimitRange attaches the limit bounds Validate should enforce. Without a
// range a zero Limit leaves the choice to the exchange.
func (q Query) WithLimitRange(r LimitRange) Query {
	q.bounds = &r
	return q
}

// WithSymbol returns a copy of q targeting symbol.
func (q Query) WithSymbol(symbol string) Query {
	q.Symbol = symbol
	return q
}

// Validate performs the enum, range and ordering checks shared by all operations.
// Symbol is not checked here so one Query can be shared by a batch.
func (q Query) Validate() error {
	if q.Period != "" {
		if _, err := ParsePeriod(string(q.Period)); err != nil {
			return err
		}
	}
	if q.Interval != "" {
		if _, ok := allowedIntervals[q.Interval]; !ok {
			return Validationf("interval", "%q is not supported, allowed: %s", q.Interval, joinKeys(allowedIntervals))
		}
	}
	if q.bounds != nil {
		if q.Limit < q.bounds.Min || q.Limit > q.bounds.Max {
			return Validationf("limit", "%d is out of range [%d, %d]", q.Limit, q.bounds.Min, q.bounds.Max)
		}
	} else if q.Limit < 0 {
		return Validationf("limit", "%d must not be negative", q.Limit)
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return Validationf("start_time", "%s is after end_time %s",
			q.StartTime.UTC().Format(time.RFC3339), q.EndTime.UTC().Format(time.RFC3339))
	}
	return nil
}

// NormalizeSymbol trims and upper-cases a symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol normalises symbol and rejects empty input.
func ValidateSymbol(symbol string) (string, error) {
	s := NormalizeSymbol(symbol)
	if s == "" {
		return "", Validationf("symbol", "must not be empty")
	}
	return s, nil
}

// Millis converts an optional time to epoch milliseconds.
func Millis(t *time.Time) (int64, bool) {
	if t == nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

func sortedKeys[K ~string](m map[K]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

func joinKeys[K ~string](m map[K]struct{}) string {
	return strings.Join(sortedKeys(m), ", ")
}
