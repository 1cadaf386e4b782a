package schemas

import "context"

// RuntimeInvoker is the data-plane surface the batch runner and CLI
// program against; implemented by runtime.Client.
type RuntimeInvoker interface {
	Invoke(ctx context.Context, req InvocationRequest) (*InvocationResult, error)
}

// StreamReceiver yields decoded events from a streaming invocation.
// Recv returns ErrStreamClosed after the final event has been read.
type StreamReceiver interface {
	Recv() (StreamEvent, error)
	Close() error
}

// Recorder persists completed invocations; implemented by store.Store.
type Recorder interface {
	SaveInvocations(ctx context.Context, records []InvocationRecord) error
}
