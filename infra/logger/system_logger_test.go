package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	sl := NewSystemLogger(nil, SystemLoggerConfig{
		EnableConsole: false,
		MinLevel:      LevelWarn,
		Service:       "gvpay",
	})

	assert.True(t, levelOrder[LevelDebug] < levelOrder[sl.minLevel])
	assert.True(t, levelOrder[LevelWarn] >= levelOrder[sl.minLevel])
	assert.True(t, levelOrder[LevelError] >= levelOrder[sl.minLevel])

	// must not panic without an OpenSearch sink
	sl.Debug("debug message")
	sl.Info("info message")
	sl.Warn("warn message")
	sl.Error("error message", assert.AnError)
}

func TestExtractComponent(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"/home/dev/gvpay/provider/garanti/hash.go", "provider/garanti"},
		{"/home/dev/gvpay/handler/payment.go", "handler/payment.go"},
		{"/some/other/path/file.go", "path"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractComponent(tt.file), tt.file)
	}
}

func TestContextLogger(t *testing.T) {
	sl := NewSystemLogger(nil, SystemLoggerConfig{
		EnableConsole: false,
		MinLevel:      LevelDebug,
		Service:       "gvpay",
	})

	cl := sl.WithContext(LogContext{TenantID: "1", Provider: "garanti"})
	cl.AddField("order_id", "ORD1")

	assert.Equal(t, "1", cl.context.TenantID)
	assert.Equal(t, "garanti", cl.context.Provider)
	assert.Equal(t, "ORD1", cl.context.Fields["order_id"])

	// must not panic
	cl.Info("context message")
	cl.Error("context error", assert.AnError)
}

func TestOpenSearchDisabledWithoutLogger(t *testing.T) {
	sl := NewSystemLogger(nil, SystemLoggerConfig{
		EnableConsole:    false,
		EnableOpenSearch: true,
		MinLevel:         LevelInfo,
	})

	// EnableOpenSearch without a sink must be ignored
	assert.False(t, sl.enableOpenSearch)
	sl.Info("no sink")
}

func TestGetGlobalLoggerFallback(t *testing.T) {
	logger := GetGlobalLogger()
	assert.NotNil(t, logger)
	assert.Same(t, logger, GetGlobalLogger())
}
