package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/post-batch/config"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Set(zap.NewNop()) })

	require.NoError(t, Init(config.LogConfig{Level: "debug", Format: "json"}))
	assert.True(t, L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init(config.LogConfig{Level: "nonsense", Format: "console"}))
	assert.False(t, L().Core().Enabled(zap.DebugLevel))
	assert.True(t, L().Core().Enabled(zap.InfoLevel))
}

func TestPackageLevelHelpers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Debug("hidden")
	Info("saved posts", zap.Int("count", 3))
	Warn("queue full")
	Error("write failed")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "saved posts", entries[0].Message)
	assert.Equal(t, int64(3), entries[0].ContextMap()["count"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}
