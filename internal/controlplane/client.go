// Package controlplane manages AgentCore resources: agent runtimes,
// browser sandboxes, and code interpreters.
package controlplane

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/transport"
)

// Client calls the control-plane HTTP API.
type Client struct {
	api    *transport.Client
	logger *zap.Logger
}

// New builds a control-plane client from configuration.
func New(cfg config.ControlPlaneConfig, logger *zap.Logger) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("control_plane.endpoint or control_plane.region is required")
		}
		endpoint = fmt.Sprintf("https://bedrock-agentcore-control.%s.amazonaws.com", cfg.Region)
	}

	api, err := transport.New(transport.Options{
		Endpoint:        endpoint,
		BearerToken:     cfg.BearerToken,
		APITimeout:      cfg.APITimeout,
		RetryMaxElapsed: cfg.RetryMaxElapsed,
		RetryMaxWait:    cfg.RetryMaxWait,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build control-plane transport: %w", err)
	}

	return &Client{
		api:    api,
		logger: logger.Named("controlplane"),
	}, nil
}

// API exposes the underlying transport. Tests only.
func (c *Client) API() *transport.Client { return c.api }

// -- Agent runtimes --

// CreateAgentRuntime registers a new hosted agent runtime. Creation is
// asynchronous: the returned record usually reports StatusCreating.
func (c *Client) CreateAgentRuntime(ctx context.Context, in schemas.CreateAgentRuntimeInput) (*schemas.AgentRuntime, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("agent runtime name is required")
	}
	var out schemas.AgentRuntime
	if err := c.api.DoJSON(ctx, http.MethodPut, "/runtimes", nil, in, &out); err != nil {
		return nil, fmt.Errorf("failed to create agent runtime %q: %w", in.Name, err)
	}
	c.logger.Info("Agent runtime created",
		zap.String("name", in.Name),
		zap.String("arn", out.ARN),
		zap.String("status", string(out.Status)))
	return &out, nil
}

// GetAgentRuntime fetches one runtime by ID or ARN.
func (c *Client) GetAgentRuntime(ctx context.Context, id string) (*schemas.AgentRuntime, error) {
	var out schemas.AgentRuntime
	if err := c.api.DoJSON(ctx, http.MethodGet, "/runtimes/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get agent runtime %q: %w", id, err)
	}
	return &out, nil
}

// ListAgentRuntimes returns all registered runtimes.
func (c *Client) ListAgentRuntimes(ctx context.Context) ([]schemas.AgentRuntime, error) {
	var out struct {
		Runtimes []schemas.AgentRuntime `json:"agentRuntimes"`
	}
	if err := c.api.DoJSON(ctx, http.MethodGet, "/runtimes", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list agent runtimes: %w", err)
	}
	return out.Runtimes, nil
}

// DeleteAgentRuntime removes a runtime. Deleting a missing runtime
// returns schemas.ErrNotFound (via errors.Is).
func (c *Client) DeleteAgentRuntime(ctx context.Context, id string) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/runtimes/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete agent runtime %q: %w", id, err)
	}
	c.logger.Info("Agent runtime deleted", zap.String("id", id))
	return nil
}

// -- Browser resources --

// CreateBrowser registers a custom browser sandbox definition.
func (c *Client) CreateBrowser(ctx context.Context, in schemas.CreateBrowserInput) (*schemas.BrowserResource, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("browser name is required")
	}
	var out schemas.BrowserResource
	if err := c.api.DoJSON(ctx, http.MethodPut, "/browsers", nil, in, &out); err != nil {
		return nil, fmt.Errorf("failed to create browser %q: %w", in.Name, err)
	}
	c.logger.Info("Browser created", zap.String("name", in.Name), zap.String("arn", out.ARN))
	return &out, nil
}

// GetBrowser fetches one browser definition by ID or ARN.
func (c *Client) GetBrowser(ctx context.Context, id string) (*schemas.BrowserResource, error) {
	var out schemas.BrowserResource
	if err := c.api.DoJSON(ctx, http.MethodGet, "/browsers/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get browser %q: %w", id, err)
	}
	return &out, nil
}

// DeleteBrowser removes a custom browser definition. The built-in
// system browser cannot be deleted.
func (c *Client) DeleteBrowser(ctx context.Context, id string) error {
	if id == schemas.SystemBrowserID {
		return fmt.Errorf("cannot delete the system browser %q", id)
	}
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/browsers/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete browser %q: %w", id, err)
	}
	c.logger.Info("Browser deleted", zap.String("id", id))
	return nil
}

// -- Code interpreters --

// CreateCodeInterpreter registers a custom code-interpreter definition.
func (c *Client) CreateCodeInterpreter(ctx context.Context, in schemas.CreateCodeInterpreterInput) (*schemas.CodeInterpreterResource, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("code interpreter name is required")
	}
	var out schemas.CodeInterpreterResource
	if err := c.api.DoJSON(ctx, http.MethodPut, "/code-interpreters", nil, in, &out); err != nil {
		return nil, fmt.Errorf("failed to create code interpreter %q: %w", in.Name, err)
	}
	c.logger.Info("Code interpreter created", zap.String("name", in.Name), zap.String("arn", out.ARN))
	return &out, nil
}

// GetCodeInterpreter fetches one interpreter definition by ID or ARN.
func (c *Client) GetCodeInterpreter(ctx context.Context, id string) (*schemas.CodeInterpreterResource, error) {
	var out schemas.CodeInterpreterResource
	if err := c.api.DoJSON(ctx, http.MethodGet, "/code-interpreters/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get code interpreter %q: %w", id, err)
	}
	return &out, nil
}

// DeleteCodeInterpreter removes a custom interpreter definition.
func (c *Client) DeleteCodeInterpreter(ctx context.Context, id string) error {
	if id == schemas.SystemInterpreterID {
		return fmt.Errorf("cannot delete the system code interpreter %q", id)
	}
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/code-interpreters/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete code interpreter %q: %w", id, err)
	}
	c.logger.Info("Code interpreter deleted", zap.String("id", id))
	return nil
}
