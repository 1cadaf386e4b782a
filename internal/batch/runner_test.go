package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeInvoker records concurrency and fails prompts on demand.
type fakeInvoker struct {
	mu        sync.Mutex
	inFlight  int32
	maxSeen   int32
	failWith  map[string]error
	seenARNs  map[string]int
	blockUtil chan struct{}
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		failWith: map[string]error{},
		seenARNs: map[string]int{},
	}
}

func (f *fakeInvoker) Invoke(ctx context.Context, req schemas.InvocationRequest) (*schemas.InvocationResult, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxSeen, prev, cur) {
			break
		}
	}
	if f.blockUtil != nil {
		<-f.blockUtil
	}

	f.mu.Lock()
	f.seenARNs[req.RuntimeARN]++
	err := f.failWith[req.Prompt]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &schemas.InvocationResult{
		Response: []byte(fmt.Sprintf(`{"result": "answer to %s"}`, req.Prompt)),
	}, nil
}

func newTestRunner(t *testing.T, invoker schemas.RuntimeInvoker, concurrency int) *Runner {
	t.Helper()
	runner, err := New(invoker, config.BatchConfig{
		Concurrency:   concurrency,
		RatePerSecond: 10000, // effectively unthrottled in tests
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return runner
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, config.BatchConfig{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "invoker is required")
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, newFakeInvoker(), 2)
	ctx := context.Background()

	_, err := runner.Run(ctx, "", []string{"hi"})
	assert.ErrorContains(t, err, "runtime ARN")

	_, err = runner.Run(ctx, "arn:agent", nil)
	assert.ErrorContains(t, err, "no prompts")
}

func TestRunPreservesInputOrder(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	runner := newTestRunner(t, invoker, 4)

	prompts := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	results, err := runner.Run(context.Background(), "arn:agent", prompts)
	require.NoError(t, err)
	require.Len(t, results, len(prompts))

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, prompts[i], res.Prompt)
		assert.Equal(t, "answer to "+prompts[i], res.Output)
		assert.Empty(t, res.Err)
	}
}

func TestRunRecordsPerPromptErrors(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.failWith["bad"] = fmt.Errorf("runtime exploded")
	runner := newTestRunner(t, invoker, 2)

	results, err := runner.Run(context.Background(), "arn:agent", []string{"good", "bad", "also good"})
	require.NoError(t, err, "a failed prompt must not abort the batch")

	assert.Empty(t, results[0].Err)
	assert.Equal(t, "runtime exploded", results[1].Err)
	assert.Empty(t, results[1].Output)
	assert.Empty(t, results[2].Err)
}

func TestRunHonorsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	runner := newTestRunner(t, invoker, 3)

	prompts := make([]string, 20)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("p%d", i)
	}
	_, err := runner.Run(context.Background(), "arn:agent", prompts)
	require.NoError(t, err)

	assert.LessOrEqual(t, invoker.maxSeen, int32(3))
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(t, newFakeInvoker(), 2)
	_, err := runner.Run(ctx, "arn:agent", []string{"p0", "p1"})
	assert.ErrorContains(t, err, "batch aborted")
}
