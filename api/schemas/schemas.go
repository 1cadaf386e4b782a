// Package schemas defines the wire-level payloads exchanged with the
// AgentCore control and data planes, plus the small set of interfaces
// the rest of the codebase programs against.
package schemas

import (
	"encoding/json"
	"time"
)

// InvocationRequest describes a single call against a hosted agent runtime.
type InvocationRequest struct {
	// RuntimeARN identifies the agent runtime resource to invoke.
	RuntimeARN string `json:"-"`
	// Qualifier selects a runtime endpoint version. Empty means DEFAULT.
	Qualifier string `json:"-"`
	// SessionID groups invocations into one conversational session. The
	// data plane requires at least MinSessionIDLength characters.
	SessionID string `json:"-"`
	// TraceID is propagated for correlation; generated when empty.
	TraceID string `json:"-"`

	// Prompt is the user input forwarded to the agent.
	Prompt string `json:"prompt"`
}

// MinSessionIDLength is the minimum accepted runtime session ID length.
const MinSessionIDLength = 16

// InvocationResult is the non-streaming response of an agent runtime.
type InvocationResult struct {
	// Response holds the raw JSON document returned by the runtime.
	Response json.RawMessage
	// ContentType is the media type reported by the data plane.
	ContentType string
	// StatusCode is the HTTP status of the invocation.
	StatusCode int
	// SessionID is the effective runtime session ID the invocation was
	// sent under, including one generated when the request left it empty.
	SessionID string
}

// Text extracts the conventional {"result": ...} field from a runtime
// response. It returns the raw document when the field is absent.
func (r *InvocationResult) Text() string {
	var doc struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(r.Response, &doc); err == nil && doc.Result != "" {
		return doc.Result
	}
	return string(r.Response)
}

// StreamEventType classifies streamed chunks.
const (
	StreamEventData  = "data"
	StreamEventError = "stream_error"
)

// StreamEvent is one decoded server-sent event from a streaming
// invocation. A chunk carries either Data or an Error/Type pair,
// mirroring the runtime contract: {"data": str} for content and
// {"error": str, "type": "stream_error"} for mid-stream failures.
type StreamEvent struct {
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Type  string `json:"type,omitempty"`
}

// IsError reports whether the event is a terminal stream error.
func (e StreamEvent) IsError() bool {
	return e.Type == StreamEventError || e.Error != ""
}

// PingStatus is the health state reported by a runtime's /ping route.
type PingStatus struct {
	Status        string    `json:"status"`
	TimeOfLastUpd time.Time `json:"time_of_last_update,omitempty"`
}

// BatchResult is the outcome of one prompt inside a batch run.
type BatchResult struct {
	Index    int           `json:"index"`
	Prompt   string        `json:"prompt"`
	Output   string        `json:"output,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// InvocationRecord is the persisted audit form of a completed
// invocation (streaming transcripts are concatenated into Response).
type InvocationRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	RuntimeARN string    `json:"runtime_arn"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Streamed   bool      `json:"streamed"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
