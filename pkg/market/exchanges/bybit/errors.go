package bybit

import (
	"encoding/json"

	"crypto-mcp/pkg/market"
	"crypto-mcp/pkg/market/exchanges/rest"
)

// Bybit V5 return codes with a dedicated failure kind.
const (
	codeParamError    = 10001
	codeRateLimit     = 10006
	codeInvalidSymbol = 110001
)

func kindForCode(code int) market.ErrorKind {
	switch code {
	case codeRateLimit:
		return market.KindRateLimited
	case codeParamError, codeInvalidSymbol:
		return market.KindUnknownSymbol
	default:
		return market.KindUpstream
	}
}

// decodeError inspects the V5 envelope; Bybit reports most failures with
// HTTP 200 and a non-zero retCode.
func decodeError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.RetCode != 0 {
		return market.NewProviderError(exchangeName, kindForCode(env.RetCode), env.RetCode, env.RetMsg)
	}
	if status < 200 || status >= 300 {
		return rest.StatusError(exchangeName, status, body)
	}
	return nil
}
