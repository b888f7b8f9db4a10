package market

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures in a machine-readable way.
type ErrorKind string

const (
	KindUnknownSymbol    ErrorKind = "unknown_symbol"
	KindRateLimited      ErrorKind = "rate_limited"
	KindMalformedPayload ErrorKind = "malformed_payload"
	KindNetwork          ErrorKind = "network"
	KindUpstream         ErrorKind = "upstream"
)

// Sentinels matched by errors.Is against a *ProviderError of the same kind.
var (
	ErrUnknownSymbol    = errors.New("market: unknown symbol")
	ErrRateLimited      = errors.New("market: rate limited")
	ErrMalformedPayload = errors.New("market: malformed upstream payload")
	ErrNetwork          = errors.New("market: network failure")
	ErrUpstream         = errors.New("market: upstream error")
)

var kindSentinels = map[ErrorKind]error{
	KindUnknownSymbol:    ErrUnknownSymbol,
	KindRateLimited:      ErrRateLimited,
	KindMalformedPayload: ErrMalformedPayload,
	KindNetwork:          ErrNetwork,
	KindUpstream:         ErrUpstream,
}

// ValidationError reports malformed or out-of-range input. It is raised before
// any upstream request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for the named field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderError is a failed upstream query for a single symbol or endpoint.
type ProviderError struct {
	Exchange string
	Kind     ErrorKind
	Code     int // exchange-native error code or HTTP status, 0 when unknown
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Exchange, e.Message)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code: %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRateLimited) and friends match on Kind.
func (e *ProviderError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// NewProviderError constructs a ProviderError.
func NewProviderError(exchange string, kind ErrorKind, code int, message string) *ProviderError {
	return &ProviderError{Exchange: exchange, Kind: kind, Code: code, Message: message}
}

// KindOf extracts the failure kind from err, defaulting to KindUpstream.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	return KindUpstream
}
