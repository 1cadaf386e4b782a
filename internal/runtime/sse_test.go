package runtime

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullpath7/agentcore-cli/api/schemas"
)

func TestSSEDecoderFraming(t *testing.T) {
	t.Parallel()

	body := strings.Join([]string{
		": keep-alive comment",
		"data: first chunk",
		"",
		"event: message",
		"data: line one",
		"data: line two",
		"",
		"data: trailing without blank line",
	}, "\n")

	dec := newSSEDecoder(strings.NewReader(body))

	ev, err := dec.next()
	require.NoError(t, err)
	assert.Equal(t, "first chunk", ev)

	ev, err = dec.next()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", ev, "multi-line data fields join with newlines")

	ev, err = dec.next()
	require.NoError(t, err)
	assert.Equal(t, "trailing without blank line", ev)

	_, err = dec.next()
	assert.Equal(t, io.EOF, err)
}

func TestSSEDecoderEmptyBody(t *testing.T) {
	t.Parallel()

	dec := newSSEDecoder(strings.NewReader(""))
	_, err := dec.next()
	assert.Equal(t, io.EOF, err)
}

func TestParseChunk(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		payload string
		want    schemas.StreamEvent
	}{
		{
			name:    "quoted string chunk",
			payload: `"Hello, world"`,
			want:    schemas.StreamEvent{Data: "Hello, world"},
		},
		{
			name:    "data object",
			payload: `{"data": "partial answer"}`,
			want:    schemas.StreamEvent{Data: "partial answer"},
		},
		{
			name:    "error object",
			payload: `{"error": "model overloaded", "type": "stream_error"}`,
			want:    schemas.StreamEvent{Error: "model overloaded", Type: schemas.StreamEventError},
		},
		{
			name:    "error object with empty message keeps its type",
			payload: `{"type": "stream_error", "error": ""}`,
			want:    schemas.StreamEvent{Type: schemas.StreamEventError},
		},
		{
			name:    "unknown payload passes through verbatim",
			payload: "plain text chunk",
			want:    schemas.StreamEvent{Data: "plain text chunk"},
		},
		{
			name:    "malformed JSON object passes through verbatim",
			payload: `{"data": broken`,
			want:    schemas.StreamEvent{Data: `{"data": broken`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, parseChunk(tc.payload))
		})
	}
}

func TestStreamRecvUntilDone(t *testing.T) {
	t.Parallel()

	body := "data: \"Hello\"\n\ndata: \" there\"\n\ndata: [DONE]\n\ndata: \"never delivered\"\n\n"
	s := newStream(io.NopCloser(strings.NewReader(body)))

	ev, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "Hello", ev.Data)

	ev, err = s.Recv()
	require.NoError(t, err)
	assert.Equal(t, " there", ev.Data)

	_, err = s.Recv()
	assert.ErrorIs(t, err, schemas.ErrStreamClosed)

	// Recv after termination keeps returning the sentinel.
	_, err = s.Recv()
	assert.ErrorIs(t, err, schemas.ErrStreamClosed)
}

func TestStreamCollect(t *testing.T) {
	t.Parallel()

	body := "data: \"The answer\"\n\ndata: \" is 42.\"\n\ndata: [DONE]\n\n"
	s := newStream(io.NopCloser(strings.NewReader(body)))

	text, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", text)
}

func TestStreamCollectStopsOnErrorEvent(t *testing.T) {
	t.Parallel()

	body := "data: \"partial\"\n\n" +
		"data: {\"error\": \"throttled\", \"type\": \"stream_error\"}\n\n" +
		"data: \"after error\"\n\n"
	s := newStream(io.NopCloser(strings.NewReader(body)))

	text, err := s.Collect()
	assert.Equal(t, "partial", text)

	var apiErr *schemas.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, schemas.StreamEventError, apiErr.Code)
	assert.Equal(t, "throttled", apiErr.Message)
}

// failingReader simulates a connection severed mid-stream.
type failingReader struct {
	data string
	read bool
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func TestStreamMidStreamFailureBecomesErrorEvent(t *testing.T) {
	t.Parallel()

	r := &failingReader{
		data: "data: \"first\"\n\n",
		err:  io.ErrUnexpectedEOF,
	}
	s := newStream(io.NopCloser(r))

	ev, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "first", ev.Data)

	ev, err = s.Recv()
	require.NoError(t, err)
	assert.True(t, ev.IsError())
	assert.Equal(t, schemas.StreamEventError, ev.Type)

	_, err = s.Recv()
	assert.ErrorIs(t, err, schemas.ErrStreamClosed)
}

func TestBufferedStream(t *testing.T) {
	t.Parallel()

	s := newBufferedStream(schemas.StreamEvent{Data: "whole document"})

	ev, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "whole document", ev.Data)

	_, err = s.Recv()
	assert.ErrorIs(t, err, schemas.ErrStreamClosed)
	assert.NoError(t, s.Close())
}
