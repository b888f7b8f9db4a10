package binance

import (
	"encoding/json"

	"crypto-mcp/pkg/market"
	"crypto-mcp/pkg/market/exchanges/rest"
)

// Binance error codes with a dedicated failure kind.
const (
	codeTooManyRequests = -1003
	codeTooManyOrders   = -1015
	codeInvalidSymbol   = -1121
)

func kindForCode(code int) market.ErrorKind {
	switch code {
	case codeTooManyRequests, codeTooManyOrders:
		return market.KindRateLimited
	case codeInvalidSymbol:
		return market.KindUnknownSymbol
	default:
		return market.KindUpstream
	}
}

// decodeError maps Binance error bodies onto market.ProviderError. Binance
// reports failures with a non-2xx status, and occasionally a negative code in
// a 200 body.
func decodeError(status int, body []byte) error {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Code < 0 {
		return market.NewProviderError(exchangeName, kindForCode(e.Code), e.Code, e.Msg)
	}
	if status < 200 || status >= 300 {
		return rest.StatusError(exchangeName, status, body)
	}
	return nil
}
