package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fedquery/gateway/config"
)

func TestInitLogger_JSONByDefault(t *testing.T) {
	logger := initLogger(config.LogConfig{Level: "info", Format: "json"})
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInitLogger_DebugLevel(t *testing.T) {
	logger := initLogger(config.LogConfig{Level: "debug", Format: "json"})
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInitLogger_ConsoleFormat(t *testing.T) {
	logger := initLogger(config.LogConfig{Level: "warn", Format: "console"})
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}
