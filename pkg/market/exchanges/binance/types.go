package binance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"crypto-mcp/pkg/market"
)

const (
	defaultBaseURL = "https://fapi.binance.com"

	pathOpenInterest        = "/fapi/v1/openInterest"
	pathOpenInterestHistory = "/futures/data/openInterestHist"
	pathFundingRate         = "/fapi/v1/fundingRate"
	pathTicker24h           = "/fapi/v1/ticker/24hr"
	pathKlines              = "/fapi/v1/klines"
	pathPremiumIndex        = "/fapi/v1/premiumIndex"
	pathLongShortRatio      = "/futures/data/topLongShortPositionRatio"
)

// apiError is the body Binance returns alongside non-2xx statuses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type openInterestPayload struct {
	Symbol       string          `json:"symbol"`
	OpenInterest decimal.Decimal `json:"openInterest"`
	Time         int64           `json:"time"`
}

func (p openInterestPayload) record() market.OpenInterest {
	return market.OpenInterest{Symbol: p.Symbol, OpenInterest: p.OpenInterest, Timestamp: p.Time, Exchange: exchangeName}
}

type openInterestHistPayload struct {
	Symbol               string          `json:"symbol"`
	SumOpenInterest      decimal.Decimal `json:"sumOpenInterest"`
	SumOpenInterestValue decimal.Decimal `json:"sumOpenInterestValue"`
	Timestamp            int64           `json:"timestamp"`
}

func (p openInterestHistPayload) record() market.OpenInterest {
	return market.OpenInterest{Symbol: p.Symbol, OpenInterest: p.SumOpenInterest, Timestamp: p.Timestamp, Exchange: exchangeName}
}

type fundingRatePayload struct {
	Symbol      string          `json:"symbol"`
	FundingRate decimal.Decimal `json:"fundingRate"`
	FundingTime int64           `json:"fundingTime"`
	// markPrice is sometimes an empty string for older settlements.
	MarkPrice string `json:"markPrice"`
}

func (p fundingRatePayload) record() (market.FundingRate, error) {
	rec := market.FundingRate{Symbol: p.Symbol, FundingRate: p.FundingRate, FundingTime: p.FundingTime, Exchange: exchangeName}
	if mp := strings.TrimSpace(p.MarkPrice); mp != "" {
		d, err := decimal.NewFromString(mp)
		if err != nil {
			return rec, fmt.Errorf("markPrice %q: %w", mp, err)
		}
		rec.MarkPrice = &d
	}
	return rec, nil
}

type tickerPayload struct {
	Symbol             string          `json:"symbol"`
	PriceChange        decimal.Decimal `json:"priceChange"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	Volume             decimal.Decimal `json:"volume"`
	QuoteVolume        decimal.Decimal `json:"quoteVolume"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	OpenPrice          decimal.Decimal `json:"openPrice"`
	OpenTime           int64           `json:"openTime"`
	CloseTime          int64           `json:"closeTime"`
	Count              int64           `json:"count"`
}

func (p tickerPayload) record() market.Ticker {
	return market.Ticker{
		Symbol:             p.Symbol,
		PriceChange:        p.PriceChange,
		PriceChangePercent: p.PriceChangePercent,
		LastPrice:          p.LastPrice,
		Volume:             p.Volume,
		QuoteVolume:        p.QuoteVolume,
		HighPrice:          p.HighPrice,
		LowPrice:           p.LowPrice,
		OpenPrice:          p.OpenPrice,
		OpenTime:           p.OpenTime,
		CloseTime:          p.CloseTime,
		TradeCount:         p.Count,
		Exchange:           exchangeName,
	}
}

type premiumIndexPayload struct {
	Symbol          string          `json:"symbol"`
	MarkPrice       decimal.Decimal `json:"markPrice"`
	IndexPrice      decimal.Decimal `json:"indexPrice"`
	LastFundingRate decimal.Decimal `json:"lastFundingRate"`
	NextFundingTime int64           `json:"nextFundingTime"`
	Time            int64           `json:"time"`
}

func (p premiumIndexPayload) record() market.MarkPrice {
	return market.MarkPrice{
		Symbol:          p.Symbol,
		MarkPrice:       p.MarkPrice,
		IndexPrice:      p.IndexPrice,
		LastFundingRate: p.LastFundingRate,
		NextFundingTime: p.NextFundingTime,
		Exchange:        exchangeName,
	}
}

type longShortRatioPayload struct {
	Symbol         string          `json:"symbol"`
	LongShortRatio decimal.Decimal `json:"longShortRatio"`
	LongAccount    decimal.Decimal `json:"longAccount"`
	ShortAccount   decimal.Decimal `json:"shortAccount"`
	Timestamp      int64           `json:"timestamp"`
}

func (p longShortRatioPayload) record() market.LongShortRatio {
	return market.LongShortRatio{
		Symbol:         p.Symbol,
		LongShortRatio: p.LongShortRatio,
		LongAccount:    p.LongAccount,
		ShortAccount:   p.ShortAccount,
		Timestamp:      p.Timestamp,
		Exchange:       exchangeName,
	}
}

// parseKlineRow decodes one kline array:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...].
func parseKlineRow(row []json.RawMessage) (market.Candle, error) {
	var c market.Candle
	if len(row) < 9 {
		return c, fmt.Errorf("kline row has %d fields, want at least 9", len(row))
	}
	ints := []struct {
		dst *int64
		idx int
	}{{&c.OpenTime, 0}, {&c.CloseTime, 6}, {&c.TradeCount, 8}}
	for _, f := range ints {
		if err := json.Unmarshal(row[f.idx], f.dst); err != nil {
			return c, fmt.Errorf("kline field %d: %w", f.idx, err)
		}
	}
	decs := []struct {
		dst *decimal.Decimal
		idx int
	}{{&c.Open, 1}, {&c.High, 2}, {&c.Low, 3}, {&c.Close, 4}, {&c.Volume, 5}, {&c.QuoteVolume, 7}}
	for _, f := range decs {
		if err := json.Unmarshal(row[f.idx], f.dst); err != nil {
			return c, fmt.Errorf("kline field %d: %w", f.idx, err)
		}
	}
	return c, nil
}
