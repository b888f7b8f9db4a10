package bybit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crypto-mcp/pkg/market"
)

const (
	defaultBaseURL = "https://api.bybit.com"
	category       = "linear"

	pathTickers         = "/v5/market/tickers"
	pathOpenInterest    = "/v5/market/open-interest"
	pathFundingHistory  = "/v5/market/funding/history"
	pathKline           = "/v5/market/kline"
	pathLongShortRatio  = "/v5/market/account-ratio"
	maxOpenInterestRows = 200
	maxFundingRows      = 200
	maxKlineRows        = 1000
	maxRatioRows        = 500
	dayMillis           = int64(24 * time.Hour / time.Millisecond)
)

// Bybit has no 3d, 2h, 6h or 12h buckets; the nearest finer one is used.
var intervalMap = map[market.Interval]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "8h": "480", "12h": "720",
	"1d": "D", "3d": "D", "1w": "W", "1M": "M",
}

var intervalSpan = map[string]time.Duration{
	"1": time.Minute, "3": 3 * time.Minute, "5": 5 * time.Minute, "15": 15 * time.Minute, "30": 30 * time.Minute,
	"60": time.Hour, "120": 2 * time.Hour, "240": 4 * time.Hour, "360": 6 * time.Hour, "480": 8 * time.Hour, "720": 12 * time.Hour,
	"D": 24 * time.Hour, "W": 7 * 24 * time.Hour,
}

var periodMap = map[market.Period]string{
	"5m": "5min", "15m": "15min", "30m": "30min",
	"1h": "1h", "2h": "1h",
	"4h": "4h", "6h": "4h", "12h": "4h",
	"1d": "1d",
}

func mapInterval(iv market.Interval) (string, error) {
	v, ok := intervalMap[iv]
	if !ok {
		return "", market.Validationf("interval", "%q is not supported by bybit", iv)
	}
	return v, nil
}

func mapPeriod(p market.Period) (string, error) {
	v, ok := periodMap[p]
	if !ok {
		return "", market.Validationf("period", "%q is not supported by bybit", p)
	}
	return v, nil
}

// envelope wraps every V5 response.
type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

type tickerItem struct {
	Symbol          string `json:"symbol"`
	LastPrice       string `json:"lastPrice"`
	IndexPrice      string `json:"indexPrice"`
	MarkPrice       string `json:"markPrice"`
	PrevPrice24h    string `json:"prevPrice24h"`
	Price24hPcnt    string `json:"price24hPcnt"`
	HighPrice24h    string `json:"highPrice24h"`
	LowPrice24h     string `json:"lowPrice24h"`
	Volume24h       string `json:"volume24h"`
	Turnover24h     string `json:"turnover24h"`
	OpenInterest    string `json:"openInterest"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
}

type tickerResult struct {
	Category string       `json:"category"`
	List     []tickerItem `json:"list"`
}

type openInterestResult struct {
	Symbol string `json:"symbol"`
	List   []struct {
		OpenInterest string `json:"openInterest"`
		Timestamp    string `json:"timestamp"`
	} `json:"list"`
}

type fundingResult struct {
	List []struct {
		Symbol               string `json:"symbol"`
		FundingRate          string `json:"fundingRate"`
		FundingRateTimestamp string `json:"fundingRateTimestamp"`
	} `json:"list"`
}

type ratioResult struct {
	List []struct {
		Symbol    string `json:"symbol"`
		BuyRatio  string `json:"buyRatio"`
		SellRatio string `json:"sellRatio"`
		Timestamp string `json:"timestamp"`
	} `json:"list"`
}

type klineResult struct {
	Symbol string     `json:"symbol"`
	List   [][]string `json:"list"`
}

// fields parses Bybit's stringly typed numbers, keeping the first failure.
type fields struct {
	err error
}

func (f *fields) dec(name, raw string) decimal.Decimal {
	if f.err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		f.err = fmt.Errorf("%s %q: %w", name, raw, err)
	}
	return d
}

func (f *fields) ms(name, raw string) int64 {
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		f.err = fmt.Errorf("%s %q: %w", name, raw, err)
	}
	return v
}

var (
	hundred      = decimal.NewFromInt(100)
	ratioCeiling = decimal.NewFromInt(999)
)

func (t tickerItem) ticker(now int64) (market.Ticker, error) {
	var f fields
	last := f.dec("lastPrice", t.LastPrice)
	prev := f.dec("prevPrice24h", t.PrevPrice24h)
	rec := market.Ticker{
		Symbol:             t.Symbol,
		PriceChange:        last.Sub(prev),
		PriceChangePercent: f.dec("price24hPcnt", t.Price24hPcnt).Mul(hundred),
		LastPrice:          last,
		Volume:             f.dec("volume24h", t.Volume24h),
		QuoteVolume:        f.dec("turnover24h", t.Turnover24h),
		HighPrice:          f.dec("highPrice24h", t.HighPrice24h),
		LowPrice:           f.dec("lowPrice24h", t.LowPrice24h),
		OpenPrice:          prev,
		CloseTime:          now,
		Exchange:           exchangeName,
	}
	if now > 0 {
		rec.OpenTime = now - dayMillis
	}
	return rec, f.err
}

func (t tickerItem) markPrice() (market.MarkPrice, error) {
	var f fields
	rec := market.MarkPrice{
		Symbol:          t.Symbol,
		MarkPrice:       f.dec("markPrice", t.MarkPrice),
		IndexPrice:      f.dec("indexPrice", t.IndexPrice),
		LastFundingRate: f.dec("fundingRate", t.FundingRate),
		NextFundingTime: f.ms("nextFundingTime", t.NextFundingTime),
		Exchange:        exchangeName,
	}
	return rec, f.err
}

func (t tickerItem) openInterest(now int64) (market.OpenInterest, error) {
	var f fields
	rec := market.OpenInterest{
		Symbol:       t.Symbol,
		OpenInterest: f.dec("openInterest", t.OpenInterest),
		Timestamp:    now,
		Exchange:     exchangeName,
	}
	return rec, f.err
}

// longShort derives the ratio from account shares; an all-long book reports 999.
func longShort(buy, sell decimal.Decimal) decimal.Decimal {
	if sell.IsZero() {
		return ratioCeiling
	}
	return buy.Div(sell)
}

// parseKlineRow decodes [start, open, high, low, close, volume, turnover].
func parseKlineRow(row []string, span time.Duration) (market.Candle, error) {
	if len(row) < 7 {
		return market.Candle{}, fmt.Errorf("kline row has %d fields, want 7", len(row))
	}
	var f fields
	c := market.Candle{
		OpenTime:    f.ms("start", row[0]),
		Open:        f.dec("open", row[1]),
		High:        f.dec("high", row[2]),
		Low:         f.dec("low", row[3]),
		Close:       f.dec("close", row[4]),
		Volume:      f.dec("volume", row[5]),
		QuoteVolume: f.dec("turnover", row[6]),
	}
	c.CloseTime = c.OpenTime
	if span > 0 {
		c.CloseTime = c.OpenTime + span.Milliseconds() - 1
	}
	return c, f.err
}
