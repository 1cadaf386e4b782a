package schemas

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the clients.
var (
	// ErrNotFound indicates the control plane has no such resource,
	// including deletes of already-deleted resources.
	ErrNotFound = errors.New("resource not found")
	// ErrSessionExpired indicates a data-plane session passed its TTL.
	ErrSessionExpired = errors.New("session expired")
	// ErrStreamClosed is returned by Recv after a stream terminates.
	ErrStreamClosed = errors.New("stream closed")
)

// APIError is a structured error document returned by the control or
// data plane.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is maps well-known API error shapes onto the sentinel errors so
// callers can use errors.Is without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404 || e.Code == "ResourceNotFoundException"
	case ErrSessionExpired:
		return e.Code == "SessionExpiredException"
	}
	return false
}

// ToolError is a tool result whose isError flag was set by the remote
// sandbox.
type ToolError struct {
	Tool    ToolName
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}
