// Package batch runs many prompts against one agent runtime with
// bounded concurrency and client-side rate limiting.
package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
)

// Runner fans prompts out over a RuntimeInvoker.
type Runner struct {
	invoker     schemas.RuntimeInvoker
	limiter     *rate.Limiter
	concurrency int
	logger      *zap.Logger
}

// New builds a Runner from configuration.
func New(invoker schemas.RuntimeInvoker, cfg config.BatchConfig, logger *zap.Logger) (*Runner, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Runner{
		invoker:     invoker,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		concurrency: concurrency,
		logger:      logger.Named("batch"),
	}, nil
}

// Run invokes every prompt and returns results in input order. Each
// prompt gets its own runtime session. A failed prompt records its
// error in the result instead of aborting the batch; context
// cancellation stops everything.
func (r *Runner) Run(ctx context.Context, runtimeARN string, prompts []string) ([]schemas.BatchResult, error) {
	if runtimeARN == "" {
		return nil, fmt.Errorf("runtime ARN is required")
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no prompts to run")
	}

	results := make([]schemas.BatchResult, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	start := time.Now()
	for i, prompt := range prompts {
		g.Go(func() error {
			if err := r.limiter.Wait(gctx); err != nil {
				return err
			}
			results[i] = r.runOne(gctx, runtimeARN, i, prompt)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch aborted: %w", err)
	}

	r.logger.Info("Batch complete",
		zap.Int("prompts", len(prompts)),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, runtimeARN string, index int, prompt string) schemas.BatchResult {
	result := schemas.BatchResult{Index: index, Prompt: prompt}

	start := time.Now()
	res, err := r.invoker.Invoke(ctx, schemas.InvocationRequest{
		RuntimeARN: runtimeARN,
		Prompt:     prompt,
	})
	result.Duration = time.Since(start)

	if err != nil {
		r.logger.Warn("Batch prompt failed",
			zap.Int("index", index),
			zap.Error(err))
		result.Err = err.Error()
		return result
	}
	result.Output = res.Text()
	return result
}
