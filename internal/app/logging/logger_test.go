package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		level       string
		enabled     zapcore.Level
		disabled    zapcore.Level
	}{
		{"production default", false, "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"development default", true, "", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"explicit warn", false, "warn", zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.development, tt.level)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.disabled))
		})
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(false, "loud")
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewLogger(false, "loud") })
}
