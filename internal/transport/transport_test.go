package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nullpath7/agentcore-cli/api/schemas"
)

func newTestClient(t *testing.T, endpoint, token string) *Client {
	t.Helper()
	c, err := New(Options{Endpoint: endpoint, BearerToken: token}, zaptest.NewLogger(t))
	require.NoError(t, err)
	c.SetBackoffFactory(func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 5)
	})
	return c
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Options{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "endpoint is required")

	c, err := New(Options{Endpoint: "https://example.com/"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", c.Endpoint(), "trailing slash is stripped")
}

func TestDoJSONRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "custom-value", r.Header.Get("X-Custom"))
		fmt.Fprint(w, `{"greeting": "hello"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret")

	var out struct {
		Greeting string `json:"greeting"`
	}
	err := client.DoJSON(context.Background(), http.MethodPost, "/test",
		map[string]string{"X-Custom": "custom-value"},
		map[string]string{"ping": "pong"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Greeting)
}

func TestDoJSONRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message": "throttled"}`)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, `{"ok": true}`)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	err := client.DoJSON(context.Background(), http.MethodGet, "/flaky", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSONClientErrorsArePermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": "ValidationException", "message": "bad input"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	err := client.DoJSON(context.Background(), http.MethodPost, "/bad", nil, map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *schemas.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "ValidationException", apiErr.Code)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestDoJSONNotFoundMapsToSentinel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "gone"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	err := client.DoJSON(context.Background(), http.MethodGet, "/missing", nil, nil, nil)
	assert.ErrorIs(t, err, schemas.ErrNotFound)
}

func TestDoJSONNonJSONErrorBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "plain text denial")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	err := client.DoJSON(context.Background(), http.MethodGet, "/denied", nil, nil, nil)

	var apiErr *schemas.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "plain text denial", apiErr.Message)
}

func TestDoJSONRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.DoJSON(ctx, http.MethodGet, "/never", nil, nil, nil)
	assert.Error(t, err)
}

func TestDoRaw(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: hi\n\n")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	resp, err := client.DoRaw(context.Background(), http.MethodPost, "/stream", nil, map[string]string{"prompt": "hi"})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
}

func TestDoRawErrorUnwrapsToAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code": "ResourceNotFoundException", "message": "nope"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.DoRaw(context.Background(), http.MethodPost, "/missing", nil, nil)
	require.Error(t, err)

	// DoRaw callers must see the API error directly, not the backoff
	// permanent wrapper.
	apiErr, ok := err.(*schemas.APIError)
	require.True(t, ok, "expected *schemas.APIError, got %T", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
