package schemas

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationResultText(t *testing.T) {
	t.Parallel()

	res := &InvocationResult{Response: []byte(`{"result": "the answer"}`)}
	assert.Equal(t, "the answer", res.Text())

	// Non-conventional documents come back raw.
	res = &InvocationResult{Response: []byte(`{"something": "else"}`)}
	assert.Equal(t, `{"something": "else"}`, res.Text())

	res = &InvocationResult{Response: []byte(`not json at all`)}
	assert.Equal(t, "not json at all", res.Text())
}

func TestStreamEventIsError(t *testing.T) {
	t.Parallel()

	assert.False(t, StreamEvent{Data: "chunk"}.IsError())
	assert.True(t, StreamEvent{Error: "boom"}.IsError())
	assert.True(t, StreamEvent{Type: StreamEventError}.IsError())
}

func TestAPIErrorSentinelMapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("request failed: %w", &APIError{StatusCode: 404, Message: "gone"})
	assert.ErrorIs(t, wrapped, ErrNotFound)

	byCode := &APIError{StatusCode: 400, Code: "ResourceNotFoundException", Message: "gone"}
	assert.ErrorIs(t, byCode, ErrNotFound)

	expired := &APIError{StatusCode: 400, Code: "SessionExpiredException", Message: "too old"}
	assert.ErrorIs(t, expired, ErrSessionExpired)
	assert.False(t, errors.Is(expired, ErrNotFound))

	plain := &APIError{StatusCode: 500, Message: "oops"}
	assert.False(t, errors.Is(plain, ErrNotFound))
	assert.Contains(t, plain.Error(), "api error 500")
}

func TestToolResultHelpers(t *testing.T) {
	t.Parallel()

	res := &ToolResult{
		Content: []ContentBlock{
			{Type: "text", Text: "line one"},
			{Type: "resource", URI: "file:///tmp/x"},
			{Type: "text", Text: "line two"},
		},
		StructuredContent: []byte(`{"stdout": "hi", "exitCode": 3}`),
	}

	assert.Equal(t, "line one\nline two", res.Text())

	out, err := res.Output()
	assert.NoError(t, err)
	assert.Equal(t, "hi", out.Stdout)
	assert.Equal(t, 3, out.ExitCode)

	empty := &ToolResult{}
	out, err = empty.Output()
	assert.NoError(t, err)
	assert.Zero(t, out)
}
