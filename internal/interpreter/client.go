// Package interpreter is the data-plane client for the managed
// code-interpreter sandbox: session lifecycle plus named tool
// invocations (executeCommand, writeFiles, ...).
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
	"github.com/nullpath7/agentcore-cli/internal/transport"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Client manages code-interpreter sessions and tool calls.
type Client struct {
	api        *transport.Client
	logger     *zap.Logger
	identifier string
	cfg        config.InterpreterConfig
}

// New builds a code-interpreter data-plane client.
func New(dp config.DataPlaneConfig, ic config.InterpreterConfig, logger *zap.Logger) (*Client, error) {
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

	identifier := ic.Identifier
	if identifier == "" {
		identifier = schemas.SystemInterpreterID
	}

	return &Client{
		api:        api,
		logger:     logger.Named("interpreter"),
		identifier: identifier,
		cfg:        ic,
	}, nil
}

// API exposes the underlying transport. Tests only.
func (c *Client) API() *transport.Client { return c.api }

// StartSession opens an interpreter session.
func (c *Client) StartSession(ctx context.Context) (*schemas.InterpreterSession, error) {
	name := c.cfg.SessionName
	if name == "" {
		name = "agentcore-cli-session"
	}
	in := map[string]any{
		"name":                  name,
		"sessionTimeoutSeconds": int(c.cfg.SessionTimeout.Seconds()),
	}

	var out schemas.InterpreterSession
	path := "/code-interpreters/" + url.PathEscape(c.identifier) + "/sessions"
	if err := c.api.DoJSON(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, fmt.Errorf("failed to start interpreter session: %w", err)
	}
	out.InterpreterID = c.identifier

	c.logger.Info("Interpreter session started",
		zap.String("session_id", out.SessionID),
		zap.String("interpreter", c.identifier))
	return &out, nil
}

// StopSession releases a session; stopping an already-stopped session
// is a no-op success.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	path := "/code-interpreters/" + url.PathEscape(c.identifier) + "/sessions/" + url.PathEscape(sessionID)
	if err := c.api.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		if errors.Is(err, schemas.ErrNotFound) {
			c.logger.Debug("Interpreter session already stopped", zap.String("session_id", sessionID))
			return nil
		}
		return fmt.Errorf("failed to stop interpreter session %q: %w", sessionID, err)
	}
	c.logger.Info("Interpreter session stopped", zap.String("session_id", sessionID))
	return nil
}

// InvokeTool calls one named remote operation with JSON arguments.
// A result flagged isError comes back as a *schemas.ToolError.
func (c *Client) InvokeTool(ctx context.Context, sessionID string, tool schemas.ToolName, args any) (*schemas.ToolResult, error) {
	if _, ok := schemas.KnownTools[tool]; !ok {
		return nil, fmt.Errorf("unknown tool %q", tool)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	rawArgs, err := jsonCodec.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s arguments: %w", tool, err)
	}
	in := map[string]any{
		"name":      string(tool),
		"arguments": jsoniter.RawMessage(rawArgs),
	}

	var out schemas.ToolResult
	path := "/code-interpreters/" + url.PathEscape(c.identifier) +
		"/sessions/" + url.PathEscape(sessionID) + "/tools"
	if err := c.api.DoJSON(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, fmt.Errorf("tool %s invocation failed: %w", tool, err)
	}

	if out.IsError {
		msg := out.Text()
		if msg == "" {
			msg = "remote tool reported an error without detail"
		}
		return &out, &schemas.ToolError{Tool: tool, Message: msg}
	}
	return &out, nil
}

// -- Typed convenience wrappers --

// ExecuteCommand runs a shell command and returns its output.
func (c *Client) ExecuteCommand(ctx context.Context, sessionID, command string) (schemas.CommandOutput, error) {
	res, err := c.InvokeTool(ctx, sessionID, schemas.ToolExecuteCommand, schemas.ExecuteCommandArgs{Command: command})
	if err != nil {
		return schemas.CommandOutput{}, err
	}
	return decodeOutput(res)
}

// ExecuteCode runs a code snippet.
func (c *Client) ExecuteCode(ctx context.Context, sessionID string, args schemas.ExecuteCodeArgs) (schemas.CommandOutput, error) {
	res, err := c.InvokeTool(ctx, sessionID, schemas.ToolExecuteCode, args)
	if err != nil {
		return schemas.CommandOutput{}, err
	}
	return decodeOutput(res)
}

// WriteFiles uploads files into the sandbox.
func (c *Client) WriteFiles(ctx context.Context, sessionID string, files []schemas.FileContent) error {
	_, err := c.InvokeTool(ctx, sessionID, schemas.ToolWriteFiles, schemas.WriteFilesArgs{Content: files})
	return err
}

// ReadFiles fetches file contents from the sandbox.
func (c *Client) ReadFiles(ctx context.Context, sessionID string, paths []string) (*schemas.ToolResult, error) {
	return c.InvokeTool(ctx, sessionID, schemas.ToolReadFiles, schemas.ReadFilesArgs{Paths: paths})
}

// ListFiles lists a sandbox directory.
func (c *Client) ListFiles(ctx context.Context, sessionID, path string) (*schemas.ToolResult, error) {
	return c.InvokeTool(ctx, sessionID, schemas.ToolListFiles, schemas.ListFilesArgs{Path: path})
}

// RemoveFiles deletes sandbox files.
func (c *Client) RemoveFiles(ctx context.Context, sessionID string, paths []string) error {
	_, err := c.InvokeTool(ctx, sessionID, schemas.ToolRemoveFiles, schemas.RemoveFilesArgs{Paths: paths})
	return err
}

func decodeOutput(res *schemas.ToolResult) (schemas.CommandOutput, error) {
	out, err := res.Output()
	if err != nil {
		return schemas.CommandOutput{}, fmt.Errorf("failed to decode structured output: %w", err)
	}
	// Older sandboxes put stdout in a text content block only.
	if out.Stdout == "" && len(res.Content) > 0 {
		out.Stdout = res.Text()
	}
	return out, nil
}
