// Package transport is the shared HTTP layer under the control and
// data plane clients: JSON codec, bearer auth, and retry with
// exponential backoff for transient failures.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Client.
type Options struct {
	Endpoint        string
	BearerToken     string
	APITimeout      time.Duration
	RetryMaxElapsed time.Duration
	RetryMaxWait    time.Duration
}

// Client issues JSON requests against one API endpoint.
type Client struct {
	endpoint    string
	bearerToken string
	httpClient  *http.Client
	logger      *zap.Logger

	retryMaxElapsed time.Duration
	retryMaxWait    time.Duration

	// backoffFactory is swappable so tests can collapse wait times.
	backoffFactory func() backoff.BackOff
}

// New builds a Client. The endpoint is required; everything else has
// workable defaults.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", opts.Endpoint, err)
	}

	timeout := opts.APITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxElapsed := opts.RetryMaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = time.Minute
	}
	maxWait := opts.RetryMaxWait
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}

	c := &Client{
		endpoint:        endpoint,
		bearerToken:     opts.BearerToken,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger.Named("transport"),
		retryMaxElapsed: maxElapsed,
		retryMaxWait:    maxWait,
	}
	c.backoffFactory = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = c.retryMaxElapsed
		b.MaxInterval = c.retryMaxWait
		return b
	}
	return c, nil
}

// Endpoint returns the normalized base endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

// SetBackoffFactory overrides retry timing. Tests only.
func (c *Client) SetBackoffFactory(f func() backoff.BackOff) { c.backoffFactory = f }

// DoJSON performs a JSON request/response exchange with retries.
// Transient failures (network errors, 429, 5xx) are retried until the
// backoff budget runs out; 4xx responses are permanent and surface as
// *schemas.APIError. A nil out discards the response body.
func (c *Client) DoJSON(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
	}

	operation := func() error {
		req, err := c.newRequest(ctx, method, path, headers, body)
		if err != nil {
			return backoff.Permanent(err)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Network error during API request, retrying...",
				zap.String("method", method), zap.String("path", path), zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return classifyAPIError(resp.StatusCode, respBody)
		}

		c.logger.Debug("API request complete",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)))

		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.backoffFactory(), ctx)); err != nil {
		return err
	}
	return nil
}

// DoRaw performs a single request and hands the open response to the
// caller. No retries: it exists for streaming responses whose body
// outlives the call. The caller owns resp.Body.
func (c *Client) DoRaw(ctx context.Context, method, path string, headers map[string]string, in any) (*http.Response, error) {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
	}

	req, err := c.newRequest(ctx, method, path, headers, body)
	if err != nil {
		return nil, err
	}
	// The default client timeout would sever long-lived streams.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return nil, unwrapPermanent(classifyAPIError(resp.StatusCode, respBody))
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, headers map[string]string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// classifyAPIError turns a non-2xx response into a retryable or
// permanent error. 429 and 5xx are transient; everything else is not.
func classifyAPIError(statusCode int, body []byte) error {
	apiErr := &schemas.APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(statusCode)
		}
	}

	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode >= http.StatusInternalServerError:
		return apiErr
	default:
		return backoff.Permanent(apiErr)
	}
}

// unwrapPermanent strips the backoff marker so DoRaw callers see the
// underlying *schemas.APIError directly.
func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
