package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		debug    string
		level    string
		expected LogLevel
	}{
		{"Debug via LOG_LEVEL", "", "debug", LevelDebug},
		{"Info via LOG_LEVEL", "", "info", LevelInfo},
		{"Warn via LOG_LEVEL", "", "warn", LevelWarn},
		{"Error via LOG_LEVEL", "", "error", LevelError},
		{"Case insensitive", "", "DEBUG", LevelDebug},
		{"Warning alias", "", "warning", LevelWarn},
		{"DEBUG=true wins", "true", "error", LevelDebug},
		{"DEBUG=on", "on", "", LevelDebug},
		{"DEBUG=false ignored", "false", "warn", LevelWarn},
		{"Unknown defaults to info", "", "verbose", LevelInfo},
		{"Empty defaults to info", "", "", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.debug, tt.level))
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	assert.Less(t, LevelDebug, LevelInfo)
	assert.Less(t, LevelInfo, LevelWarn)
	assert.Less(t, LevelWarn, LevelError)
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestSetOutputCapturesMessages(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	Error("resize failed for %s", "a.png")
	Sync()

	out := buf.String()
	assert.Contains(t, out, "resize failed for a.png")
	assert.Contains(t, out, "ERROR")
}

func TestLevelFiltering(t *testing.T) {
	if IsDebugEnabled() {
		t.Skip("debug logging enabled in this environment")
	}

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("should not appear")
	Sync()

	assert.False(t, strings.Contains(buf.String(), "should not appear"))
}
