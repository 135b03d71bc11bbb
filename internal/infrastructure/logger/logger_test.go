package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		log, err := New(DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("creates logger with production config", func(t *testing.T) {
		log, err := New(ProductionConfig())
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("creates JSON logger", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Format = "json"

		log, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, log)
	})
}

func TestNewForEnvironment(t *testing.T) {
	t.Run("production environment uses JSON format", func(t *testing.T) {
		log, err := NewForEnvironment("production")
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("development environment uses console format", func(t *testing.T) {
		log, err := NewForEnvironment("development")
		require.NoError(t, err)
		assert.NotNil(t, log)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"INFO", zapcore.InfoLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}
