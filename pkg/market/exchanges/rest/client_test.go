package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-mcp/pkg/market"
)

func fastClient(baseURL string, opts ...Option) *Client {
	opts = append([]Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}, opts...)
	return New("test", baseURL, opts...)
}

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/fapi/v1/openInterest", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","openInterest":"10"}`))
	}))
	defer server.Close()

	client := fastClient(server.URL + "/")
	body, err := client.Get(context.Background(), "/fapi/v1/openInterest", url.Values{"symbol": {"BTCUSDT"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"symbol":"BTCUSDT","openInterest":"10"}`, string(body))
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := fastClient(server.URL, WithMaxRetries(3))
	_, err := client.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClientExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := fastClient(server.URL, WithMaxRetries(2))
	_, err := client.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, market.ErrRateLimited)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls)) // initial + 2 retries
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`bad`))
	}))
	defer server.Close()

	client := fastClient(server.URL)
	_, err := client.Get(context.Background(), "/x", nil)
	var pe *market.ProviderError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, market.KindUpstream, pe.Kind)
	require.Equal(t, http.StatusBadRequest, pe.Code)
	require.Equal(t, "bad", pe.Message)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := fastClient(server.URL)
	_, err := client.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClientErrorDecoder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10001}`))
	}))
	defer server.Close()

	decoder := func(status int, body []byte) error {
		return market.NewProviderError("test", market.KindUnknownSymbol, 10001, "symbol invalid")
	}
	client := fastClient(server.URL, WithErrorDecoder(decoder))
	_, err := client.Get(context.Background(), "/x", nil)
	require.ErrorIs(t, err, market.ErrUnknownSymbol)
}

func TestClientGetJSONMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := fastClient(server.URL)
	var out map[string]any
	err := client.GetJSON(context.Background(), "/x", nil, &out)
	require.ErrorIs(t, err, market.ErrMalformedPayload)
	require.Equal(t, market.KindMalformedPayload, market.KindOf(err))
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := fastClient(addr, WithMaxRetries(1))
	_, err := client.Get(context.Background(), "/x", nil)
	require.ErrorIs(t, err, market.ErrNetwork)
}

func TestClientContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New("test", server.URL, WithBackoff(time.Second, time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, "/x", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRateLimit(t *testing.T) {
	client := New("test", "http://localhost", WithRateLimit(1200))
	require.NotNil(t, client.limiter)
	require.InDelta(t, 20.0, float64(client.limiter.Limit()), 1e-9)
	require.Equal(t, 20, client.limiter.Burst())

	client = New("test", "http://localhost", WithRateLimit(30))
	require.Equal(t, 1, client.limiter.Burst())

	client = New("test", "http://localhost", WithRateLimit(0))
	require.Nil(t, client.limiter)
}
