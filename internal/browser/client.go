// Package browser is the data-plane client for the managed browser
// sandbox: session lifecycle plus CDP automation over the session's
// WebSocket endpoint.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/transport"
)

// Client manages browser sandbox sessions.
type Client struct {
	api        *transport.Client
	logger     *zap.Logger
	identifier string
	cfg        config.BrowserConfig
}

// New builds a browser data-plane client.
func New(dp config.DataPlaneConfig, bc config.BrowserConfig, logger *zap.Logger) (*Client, error) {
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

	identifier := bc.Identifier
	if identifier == "" {
		identifier = schemas.SystemBrowserID
	}

	return &Client{
		api:        api,
		logger:     logger.Named("browser"),
		identifier: identifier,
		cfg:        bc,
	}, nil
}

// API exposes the underlying transport. Tests only.
func (c *Client) API() *transport.Client { return c.api }

// startSessionResponse is the data-plane wire shape; the automation
// stream carries the CDP endpoint and its authorization headers.
type startSessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Streams   struct {
		Automation struct {
			StreamEndpoint string            `json:"streamEndpoint"`
			Headers        map[string]string `json:"headers"`
		} `json:"automationStream"`
	} `json:"streams"`
}

// StartSession opens a browser sandbox session and returns its CDP
// automation endpoint.
func (c *Client) StartSession(ctx context.Context) (*schemas.BrowserSession, error) {
	in := map[string]any{
		"name":                  "agentcore-cli",
		"sessionTimeoutSeconds": int(c.cfg.SessionTimeout.Seconds()),
	}
	var out startSessionResponse
	path := "/browsers/" + url.PathEscape(c.identifier) + "/sessions"
	if err := c.api.DoJSON(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	session := &schemas.BrowserSession{
		SessionID:  out.SessionID,
		BrowserID:  c.identifier,
		Status:     out.Status,
		WSEndpoint: out.Streams.Automation.StreamEndpoint,
		WSHeaders:  out.Streams.Automation.Headers,
		TimeoutSec: int(c.cfg.SessionTimeout.Seconds()),
	}
	c.logger.Info("Browser session started",
		zap.String("session_id", session.SessionID),
		zap.String("browser", c.identifier))
	return session, nil
}

// GetSession fetches the current state of a session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*schemas.BrowserSession, error) {
	var out schemas.BrowserSession
	path := "/browsers/" + url.PathEscape(c.identifier) + "/sessions/" + url.PathEscape(sessionID)
	if err := c.api.DoJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get browser session %q: %w", sessionID, err)
	}
	out.BrowserID = c.identifier
	return &out, nil
}

// StopSession releases a session. Stopping a session that has already
// terminated is a no-op success.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	path := "/browsers/" + url.PathEscape(c.identifier) + "/sessions/" + url.PathEscape(sessionID)
	if err := c.api.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		if errors.Is(err, schemas.ErrNotFound) {
			c.logger.Debug("Browser session already stopped", zap.String("session_id", sessionID))
			return nil
		}
		return fmt.Errorf("failed to stop browser session %q: %w", sessionID, err)
	}
	c.logger.Info("Browser session stopped", zap.String("session_id", sessionID))
	return nil
}
