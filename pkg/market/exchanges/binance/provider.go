package binance

import "crypto-mcp/pkg/market/exchanges/rest"

func init() {
	rest.Register(exchangeName, NewClient)
}
