package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
)

// GeminiAgent generates responses with the Gemini API, streaming
// tokens as the model produces them.
type GeminiAgent struct {
	client *genai.Client
	cfg    config.AgentConfig
	logger *zap.Logger
}

// NewGeminiAgent initializes the genai client.
func NewGeminiAgent(cfg config.AgentConfig, logger *zap.Logger) (*GeminiAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (AGENTCORE_GEMINI_API_KEY)")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("agent.model is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiAgent{
		client: client,
		cfg:    cfg,
		logger: logger.Named("agent.gemini"),
	}, nil
}

func (a *GeminiAgent) Name() string { return "gemini" }

func (a *GeminiAgent) generationConfig() *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if a.cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(a.cfg.Temperature)
	}
	if a.cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(a.cfg.MaxTokens)
	}
	return gc
}

// Invoke runs one blocking generation.
func (a *GeminiAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	if a.cfg.APITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.APITimeout)
		defer cancel()
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.cfg.Model, genai.Text(prompt), a.generationConfig())
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return resp.Text(), nil
}

// InvokeStream forwards model tokens as data events. A mid-stream
// failure is delivered as a terminal stream_error event; the channel
// is always closed.
func (a *GeminiAgent) InvokeStream(ctx context.Context, prompt string) (<-chan schemas.StreamEvent, error) {
	out := make(chan schemas.StreamEvent)

	go func() {
		defer close(out)
		for resp, err := range a.client.Models.GenerateContentStream(ctx, a.cfg.Model, genai.Text(prompt), a.generationConfig()) {
			if err != nil {
				a.logger.Error("Gemini stream failed", zap.Error(err))
				select {
				case out <- schemas.StreamEvent{Error: err.Error(), Type: schemas.StreamEventError}:
				case <-ctx.Done():
				}
				return
			}
			chunk := resp.Text()
			if chunk == "" {
				continue
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
