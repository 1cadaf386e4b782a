// Package runtime is the data-plane client for invoking hosted agent
// runtimes, both request/response and streaming.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/transport"
)

// Header names of the runtime data plane.
const (
	headerSessionID = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"
	headerTraceID   = "X-Amzn-Trace-Id"
)

// Client invokes agent runtimes over the data-plane HTTP API.
type Client struct {
	api              *transport.Client
	logger           *zap.Logger
	defaultQualifier string
}

var _ schemas.RuntimeInvoker = (*Client)(nil)

// New builds a runtime client from configuration.
func New(dp config.DataPlaneConfig, rt config.RuntimeConfig, logger *zap.Logger) (*Client, error) {
	endpoint := dp.Endpoint
	if endpoint == "" {
		if dp.Region == "" {
			return nil, fmt.Errorf("data_plane.endpoint or data_plane.region is required")
		}
		endpoint = fmt.Sprintf("https://bedrock-agentcore.%s.amazonaws.com", dp.Region)
	}

	api, err := transport.New(transport.Options{
		Endpoint:        endpoint,
		BearerToken:     dp.BearerToken,
		APITimeout:      dp.APITimeout,
		RetryMaxElapsed: dp.RetryMaxElapsed,
		RetryMaxWait:    dp.RetryMaxWait,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build data-plane transport: %w", err)
	}

	qualifier := rt.DefaultQualifier
	if qualifier == "" {
		qualifier = "DEFAULT"
	}

	return &Client{
		api:              api,
		logger:           logger.Named("runtime"),
		defaultQualifier: qualifier,
	}, nil
}

// API exposes the underlying transport. Tests only.
func (c *Client) API() *transport.Client { return c.api }

// NewSessionID returns a fresh runtime session identifier satisfying
// the data plane's minimum length requirement.
func NewSessionID() string {
	return uuid.New().String()
}

// Invoke performs a non-streaming invocation and returns the raw JSON
// document produced by the runtime.
func (c *Client) Invoke(ctx context.Context, req schemas.InvocationRequest) (*schemas.InvocationResult, error) {
	path, headers, err := c.prepare(&req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Invoking agent runtime",
		zap.String("runtime", req.RuntimeARN),
		zap.String("session_id", req.SessionID))

	var raw json.RawMessage
	if err := c.api.DoJSON(ctx, http.MethodPost, path, headers, req, &raw); err != nil {
		return nil, fmt.Errorf("invocation failed: %w", err)
	}
	return &schemas.InvocationResult{
		Response:    raw,
		ContentType: "application/json",
		StatusCode:  http.StatusOK,
		SessionID:   req.SessionID,
	}, nil
}

// InvokeStream performs a streaming invocation. The returned Stream
// yields chunks in arrival order; the caller must Close it. When the
// runtime answers with a plain JSON document despite the stream
// request, the document is delivered as a single data event.
func (c *Client) InvokeStream(ctx context.Context, req schemas.InvocationRequest) (*Stream, error) {
	path, headers, err := c.prepare(&req)
	if err != nil {
		return nil, err
	}
	headers["Accept"] = "text/event-stream"

	c.logger.Info("Invoking agent runtime (streaming)",
		zap.String("runtime", req.RuntimeARN),
		zap.String("session_id", req.SessionID))

	resp, err := c.api.DoRaw(ctx, http.MethodPost, path, headers, req)
	if err != nil {
		return nil, fmt.Errorf("streaming invocation failed: %w", err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		defer resp.Body.Close()
		var result schemas.InvocationResult
		if err := json.NewDecoder(resp.Body).Decode(&result.Response); err != nil {
			return nil, fmt.Errorf("failed to decode non-stream response: %w", err)
		}
		stream := newBufferedStream(schemas.StreamEvent{Data: result.Text()})
		stream.SessionID = req.SessionID
		return stream, nil
	}
	stream := newStream(resp.Body)
	stream.SessionID = req.SessionID
	return stream, nil
}

// Ping checks the runtime's health route.
func (c *Client) Ping(ctx context.Context, runtimeARN string) (*schemas.PingStatus, error) {
	var out schemas.PingStatus
	path := "/runtimes/" + url.PathEscape(runtimeARN) + "/ping"
	if err := c.api.DoJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return &out, nil
}

// prepare validates the request, fills generated fields, and builds
// the invocation path and headers.
func (c *Client) prepare(req *schemas.InvocationRequest) (string, map[string]string, error) {
	if req.RuntimeARN == "" {
		return "", nil, fmt.Errorf("runtime ARN is required")
	}
	if req.Prompt == "" {
		return "", nil, fmt.Errorf("prompt is required")
	}
	if req.SessionID == "" {
		req.SessionID = NewSessionID()
	}
	if len(req.SessionID) < schemas.MinSessionIDLength {
		return "", nil, fmt.Errorf("session ID must be at least %d characters, got %d",
			schemas.MinSessionIDLength, len(req.SessionID))
	}
	if req.TraceID == "" {
		req.TraceID = uuid.New().String()
	}
	qualifier := req.Qualifier
	if qualifier == "" {
		qualifier = c.defaultQualifier
	}

	path := fmt.Sprintf("/runtimes/%s/invocations?qualifier=%s",
		url.PathEscape(req.RuntimeARN), url.QueryEscape(qualifier))
	headers := map[string]string{
		headerSessionID: req.SessionID,
		headerTraceID:   req.TraceID,
	}
	return path, headers, nil
}
