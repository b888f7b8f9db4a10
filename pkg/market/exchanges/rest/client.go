// Package rest is the GET-only JSON transport shared by the exchange providers.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"crypto-mcp/pkg/market"
)

const defaultHTTPTimeout = 30 * time.Second

// ErrorDecoder inspects a response and returns a *market.ProviderError when the
// exchange reported a failure, or nil when body carries a successful payload.
// It is called for every response, whatever the HTTP status.
type ErrorDecoder func(status int, body []byte) error

// Client issues rate limited, retried GET requests against one exchange.
type Client struct {
	exchange   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   RetryConfig
	retry      *RetryHandler
	decode     ErrorDecoder
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the exchange base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.retryCfg.MaxRetries = max
		}
	}
}

// WithBackoff overrides the initial and maximum retry delay.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.retryCfg.InitialBackoff = initial
		c.retryCfg.MaxBackoff = max
	}
}

// WithRateLimit throttles outgoing requests to perMinute. Zero disables throttling.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		burst := perMinute / 60
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
	}
}

// WithErrorDecoder installs the exchange specific error decoder.
func WithErrorDecoder(d ErrorDecoder) Option {
	return func(c *Client) {
		if d != nil {
			c.decode = d
		}
	}
}

// New constructs a client for exchange rooted at baseURL.
func New(exchange, baseURL string, opts ...Option) *Client {
	c := &Client{
		exchange:   exchange,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		retryCfg:   RetryConfig{MaxRetries: defaultMaxRetries},
	}
	c.decode = c.statusDecoder
	for _, opt := range opts {
		opt(c)
	}
	c.retry = NewRetryHandler(c.retryCfg)
	return c
}

// Get performs a GET against path with params and returns the raw body of a
// successful response.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body []byte
	err := c.retry.Do(ctx, func() error {
		b, err := c.once(ctx, endpoint)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON performs Get and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.Malformed(path, err)
	}
	return nil
}

// Malformed reports a payload that could not be mapped onto the expected schema.
func (c *Client) Malformed(path string, err error) error {
	pe := market.NewProviderError(c.exchange, market.KindMalformedPayload, 0, "decode "+path)
	pe.Err = err
	return pe
}

func (c *Client) once(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s: rate limiter: %w", c.exchange, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.exchange, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pe := market.NewProviderError(c.exchange, market.KindNetwork, 0, "request failed")
		pe.Err = err
		return nil, pe
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pe := market.NewProviderError(c.exchange, market.KindNetwork, resp.StatusCode, "read response")
		pe.Err = err
		return nil, pe
	}
	if err := c.decode(resp.StatusCode, body); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusDecoder(resp.StatusCode, body)
	}
	return body, nil
}

// statusDecoder maps HTTP status codes when no exchange decoder claimed the response.
func (c *Client) statusDecoder(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return StatusError(c.exchange, status, body)
}

// StatusError classifies a non-2xx response by status code alone.
func StatusError(exchange string, status int, body []byte) *market.ProviderError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	kind := market.KindUpstream
	switch status {
	case http.StatusTooManyRequests, http.StatusTeapot:
		kind = market.KindRateLimited
	}
	return market.NewProviderError(exchange, kind, status, msg)
}
