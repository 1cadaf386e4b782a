package observability

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/nullpath7/agentcore-cli/internal/config"
)

// syncBuffer is a threadsafe WriteSyncer capturing console output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Sync() error { return nil }

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLoggerConfig() config.LoggerConfig {
	return config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "agentcore-test",
		Colors:      config.ColorConfig{Info: "green", Error: "red"},
	}
}

func TestInitializeAndGetLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	out := &syncBuffer{}
	Initialize(testLoggerConfig(), zapcore.AddSync(out))

	logger := GetLogger()
	require.NotNil(t, logger)

	logger.Info("hello from the test")
	assert.Contains(t, out.String(), "hello from the test")
	assert.Contains(t, out.String(), "agentcore-test", "service name is attached")
}

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}
	Initialize(testLoggerConfig(), zapcore.AddSync(first))
	Initialize(testLoggerConfig(), zapcore.AddSync(second))

	GetLogger().Info("only once")
	assert.Contains(t, first.String(), "only once")
	assert.Empty(t, second.String(), "second Initialize must be a no-op")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := testLoggerConfig()
	cfg.Level = "chatty"
	out := &syncBuffer{}
	Initialize(cfg, zapcore.AddSync(out))

	GetLogger().Debug("below the fallback level")
	GetLogger().Info("at the fallback level")

	assert.NotContains(t, out.String(), "below the fallback level")
	assert.Contains(t, out.String(), "at the fallback level")
}

func TestGetLoggerBeforeInitialization(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger, "a fallback logger is always available")
}

func TestColorizedLevelEncoder(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	out := &syncBuffer{}
	Initialize(testLoggerConfig(), zapcore.AddSync(out))

	GetLogger().Info("colored")
	// Info is configured green.
	assert.True(t, strings.Contains(out.String(), colorGreen+"INFO"+colorReset),
		"expected colorized level token in %q", out.String())
}

func TestSyncWithoutLoggerIsSafe(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	Sync()
}
