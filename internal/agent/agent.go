// Package agent defines the local agent contract used by the runtime
// emulator, plus the built-in implementations.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
)

// Agent produces responses for the runtime emulator. InvokeStream
// returns a channel of events that is closed after the final event;
// mid-stream failures arrive as stream_error events, never panics.
type Agent interface {
	Name() string
	Invoke(ctx context.Context, prompt string) (string, error)
	InvokeStream(ctx context.Context, prompt string) (<-chan schemas.StreamEvent, error)
}

// New builds the configured agent.
func New(cfg config.AgentConfig, logger *zap.Logger) (Agent, error) {
	switch cfg.Provider {
	case config.ProviderEcho:
		return NewEchoAgent(), nil
	case config.ProviderGemini:
		return NewGeminiAgent(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown agent provider %q", cfg.Provider)
	}
}

// EchoAgent repeats the prompt back. It exists for offline use and
// tests: deterministic output, word-by-word streaming.
type EchoAgent struct{}

// NewEchoAgent returns the trivial agent.
func NewEchoAgent() *EchoAgent { return &EchoAgent{} }

func (a *EchoAgent) Name() string { return "echo" }

func (a *EchoAgent) Invoke(_ context.Context, prompt string) (string, error) {
	return "echo: " + prompt, nil
}

func (a *EchoAgent) InvokeStream(ctx context.Context, prompt string) (<-chan schemas.StreamEvent, error) {
	words := strings.Fields("echo: " + prompt)
	out := make(chan schemas.StreamEvent)
	go func() {
		defer close(out)
		for i, w := range words {
			chunk := w
			if i < len(words)-1 {
				chunk += " "
			}
			select {
			case out <- schemas.StreamEvent{Data: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
