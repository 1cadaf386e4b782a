package runtime

import (
	"bufio"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/nullpath7/agentcore-cli/api/schemas"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// doneSentinel terminates a stream in-band.
const doneSentinel = "[DONE]"

// sseDecoder reads a text/event-stream body one event at a time. It
// owns the line framing only; payload interpretation happens in
// parseChunk.
type sseDecoder struct {
	scanner *bufio.Scanner
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	sc := bufio.NewScanner(r)
	// Single events can carry large model outputs.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseDecoder{scanner: sc}
}

// next returns the data payload of the next event, with multi-line
// data fields joined by newlines per the SSE specification. io.EOF
// signals the end of the body.
func (d *sseDecoder) next() (string, error) {
	var data []string
	for d.scanner.Scan() {
		line := d.scanner.Text()

		// Blank line dispatches the accumulated event, if any.
		if line == "" {
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, ":"):
			// Comment/keep-alive line.
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id:, retry: fields are not used by the runtime
			// contract and are skipped.
		}
	}
	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	if len(data) > 0 {
		// Body ended without a trailing blank line.
		return strings.Join(data, "\n"), nil
	}
	return "", io.EOF
}

// parseChunk interprets one event payload. The runtime emits either a
// JSON-quoted string chunk, a {"data": ...} object, or an
// {"error": ..., "type": "stream_error"} object. Anything else is
// passed through verbatim as data so callers never lose content.
func parseChunk(payload string) schemas.StreamEvent {
	trimmed := strings.TrimSpace(payload)
	switch {
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := jsonCodec.UnmarshalFromString(trimmed, &s); err == nil {
			return schemas.StreamEvent{Data: s}
		}
	case strings.HasPrefix(trimmed, "{"):
		var ev schemas.StreamEvent
		// A typed event with empty data or error fields is still an
		// event, not verbatim content.
		if err := jsonCodec.UnmarshalFromString(trimmed, &ev); err == nil &&
			(ev.Data != "" || ev.Error != "" || ev.Type != "") {
			return ev
		}
	}
	return schemas.StreamEvent{Data: payload}
}

// Stream is a live streaming invocation. It implements
// schemas.StreamReceiver.
type Stream struct {
	// SessionID is the effective runtime session ID of the invocation,
	// including one generated when the request left it empty.
	SessionID string

	body   io.ReadCloser
	dec    *sseDecoder
	buf    []schemas.StreamEvent
	closed bool
}

var _ schemas.StreamReceiver = (*Stream)(nil)

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, dec: newSSEDecoder(body)}
}

// newBufferedStream wraps pre-decoded events, used when the runtime
// answered with a plain JSON document instead of an event stream.
func newBufferedStream(events ...schemas.StreamEvent) *Stream {
	return &Stream{buf: events, closed: true}
}

// Recv returns the next decoded event. After the terminal event it
// returns schemas.ErrStreamClosed.
func (s *Stream) Recv() (schemas.StreamEvent, error) {
	if len(s.buf) > 0 {
		ev := s.buf[0]
		s.buf = s.buf[1:]
		return ev, nil
	}
	if s.closed {
		return schemas.StreamEvent{}, schemas.ErrStreamClosed
	}

	payload, err := s.dec.next()
	if err != nil {
		s.Close()
		if err == io.EOF {
			return schemas.StreamEvent{}, schemas.ErrStreamClosed
		}
		// A transport failure mid-stream becomes a terminal error
		// event rather than a bare error, matching the contract.
		return schemas.StreamEvent{Error: err.Error(), Type: schemas.StreamEventError}, nil
	}
	if strings.TrimSpace(payload) == doneSentinel {
		s.Close()
		return schemas.StreamEvent{}, schemas.ErrStreamClosed
	}
	return parseChunk(payload), nil
}

// Collect drains the stream, concatenating data chunks. The first
// error event aborts collection and is returned as an error.
func (s *Stream) Collect() (string, error) {
	var sb strings.Builder
	for {
		ev, err := s.Recv()
		if err == schemas.ErrStreamClosed {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		if ev.IsError() {
			return sb.String(), &schemas.APIError{Code: ev.Type, Message: ev.Error}
		}
		sb.WriteString(ev.Data)
	}
}

// Close releases the underlying response body. Safe to call twice.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
