package market

import "github.com/shopspring/decimal"

// OpenInterest is a single open interest observation.
type OpenInterest struct {
	Symbol       string          `json:"symbol" msgpack:"symbol"`
	OpenInterest decimal.Decimal `json:"open_interest" msgpack:"open_interest"`
	Timestamp    int64           `json:"timestamp" msgpack:"timestamp"` // ms
	Exchange     string          `json:"exchange" msgpack:"exchange"`
}

// FundingRate is a settled (or predicted) perpetual funding rate.
type FundingRate struct {
	Symbol      string           `json:"symbol" msgpack:"symbol"`
	FundingRate decimal.Decimal  `json:"funding_rate" msgpack:"funding_rate"`
	FundingTime int64            `json:"funding_time" msgpack:"funding_time"` // ms
	MarkPrice   *decimal.Decimal `json:"mark_price" msgpack:"mark_price"`     // nil when the exchange omits it
	Exchange    string           `json:"exchange" msgpack:"exchange"`
}

// Ticker carries rolling 24h statistics.
type Ticker struct {
	Symbol             string          `json:"symbol" msgpack:"symbol"`
	PriceChange        decimal.Decimal `json:"price_change" msgpack:"price_change"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent" msgpack:"price_change_percent"`
	LastPrice          decimal.Decimal `json:"last_price" msgpack:"last_price"`
	Volume             decimal.Decimal `json:"volume" msgpack:"volume"`
	QuoteVolume        decimal.Decimal `json:"quote_volume" msgpack:"quote_volume"`
	HighPrice          decimal.Decimal `json:"high_price" msgpack:"high_price"`
	LowPrice           decimal.Decimal `json:"low_price" msgpack:"low_price"`
	OpenPrice          decimal.Decimal `json:"open_price" msgpack:"open_price"`
	OpenTime           int64           `json:"open_time" msgpack:"open_time"`
	CloseTime          int64           `json:"close_time" msgpack:"close_time"`
	TradeCount         int64           `json:"trade_count" msgpack:"trade_count"`
	Exchange           string          `json:"exchange" msgpack:"exchange"`
}

// Candle is a single OHLCV bar.
type Candle struct {
	OpenTime    int64           `json:"open_time" msgpack:"open_time"`
	Open        decimal.Decimal `json:"open" msgpack:"open"`
	High        decimal.Decimal `json:"high" msgpack:"high"`
	Low         decimal.Decimal `json:"low" msgpack:"low"`
	Close       decimal.Decimal `json:"close" msgpack:"close"`
	Volume      decimal.Decimal `json:"volume" msgpack:"volume"`
	CloseTime   int64           `json:"close_time" msgpack:"close_time"`
	QuoteVolume decimal.Decimal `json:"quote_volume" msgpack:"quote_volume"`
	TradeCount  int64           `json:"trade_count" msgpack:"trade_count"`
}

// Klines groups candles for one symbol and interval, oldest first.
type Klines struct {
	Symbol   string   `json:"symbol" msgpack:"symbol"`
	Interval string   `json:"interval" msgpack:"interval"`
	Candles  []Candle `json:"candles" msgpack:"candles"`
	Exchange string   `json:"exchange" msgpack:"exchange"`
}

// MarkPrice is the liquidation reference price plus funding context.
type MarkPrice struct {
	Symbol          string          `json:"symbol" msgpack:"symbol"`
	MarkPrice       decimal.Decimal `json:"mark_price" msgpack:"mark_price"`
	IndexPrice      decimal.Decimal `json:"index_price" msgpack:"index_price"`
	LastFundingRate decimal.Decimal `json:"last_funding_rate" msgpack:"last_funding_rate"`
	NextFundingTime int64           `json:"next_funding_time" msgpack:"next_funding_time"`
	Exchange        string          `json:"exchange" msgpack:"exchange"`
}

// LongShortRatio is the top trader long/short position ratio at a point in time.
type LongShortRatio struct {
	Symbol         string          `json:"symbol" msgpack:"symbol"`
	LongShortRatio decimal.Decimal `json:"long_short_ratio" msgpack:"long_short_ratio"`
	LongAccount    decimal.Decimal `json:"long_account" msgpack:"long_account"`
	ShortAccount   decimal.Decimal `json:"short_account" msgpack:"short_account"`
	Timestamp      int64           `json:"timestamp" msgpack:"timestamp"`
	Exchange       string          `json:"exchange" msgpack:"exchange"`
}
