package rest

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"crypto-mcp/pkg/market"
)

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 8 * time.Second
	defaultBackoffFactor  = 2.0
	defaultMaxRetries     = 3
)

// RetryConfig encapsulates exponential backoff settings.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// RetryHandler executes retryable operations with backoff.
type RetryHandler struct {
	cfg RetryConfig
}

// NewRetryHandler constructs a handler, filling unset backoff fields with defaults.
func NewRetryHandler(cfg RetryConfig) *RetryHandler {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = defaultBackoffFactor
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &RetryHandler{cfg: cfg}
}

// Do executes fn until it succeeds, returns a permanent error or exhausts attempts.
func (r *RetryHandler) Do(ctx context.Context, fn func() error) error {
	var attempt int
	backoff := r.cfg.InitialBackoff

	for {
		err := fn()
		if err == nil {
			return nil
		}

		if !shouldRetry(err) || attempt >= r.cfg.MaxRetries {
			return err
		}
		attempt++
		logx.WithContext(ctx).Infof("rest: retry %d/%d in %s: %v", attempt, r.cfg.MaxRetries, backoff, err)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		backoff = time.Duration(math.Min(
			float64(r.cfg.MaxBackoff),
			float64(backoff)*r.cfg.Multiplier,
		))
	}
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var pe *market.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case market.KindRateLimited, market.KindNetwork:
		return true
	case market.KindUpstream:
		return pe.Code >= http.StatusInternalServerError && pe.Code <= 599
	default:
		return false
	}
}
