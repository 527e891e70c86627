package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestLogger_EmitsFieldsWithTypedValues(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Info("prediction served",
		String("method", "exact_match"),
		Int("candidates", 2),
		Float64("confidence", 75.0),
		Bool("cached", true),
		Duration("elapsed", 3*time.Millisecond),
		Strings("reactants", []string{"H", "H", "O"}),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "prediction served", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "exact_match", ctx["method"])
	assert.Equal(t, int64(2), ctx["candidates"])
	assert.Equal(t, 75.0, ctx["confidence"])
	assert.Equal(t, true, ctx["cached"])
	assert.Equal(t, []interface{}{"H", "H", "O"}, ctx["reactants"])
}

func TestLogger_ErrFieldUsesCanonicalKey(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Error("reasoning call failed", Err(errors.New("timeout")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "timeout", entries[0].ContextMap()["error"])
}

func TestLogger_ErrFieldNilError(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Warn("no cause", Err(nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "<nil>", entries[0].ContextMap()["error"])
}

func TestLogger_WithAttachesFieldsToChildren(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	child := log.With(String("component", "router"))
	child.Info("first")
	log.Info("second")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "router", entries[0].ContextMap()["component"])
	assert.NotContains(t, entries[1].ContextMap(), "component")
}

func TestLogger_LevelFiltersDebug(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Debug("hidden")
	log.Info("visible")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0].Message)
}

func TestNewLogger_AppliesDefaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewLogger_RejectsUnopenablePath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir-xyz/out.log"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestDefaultLogger_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log := NewNopLogger()
	SetDefault(log)
	assert.Equal(t, log, Default())

	SetDefault(nil)
	assert.Equal(t, log, Default())
}
