package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestStandardLogger_LogStartup(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLoggerWithWriter(&buf, "info", "production")

	l.LogStartup("finsight-ml", "v1.0", 8000)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "Application startup", entry["msg"])
	assert.Equal(t, "finsight-ml", entry["service"])
	assert.Equal(t, "v1.0", entry["version"])
	assert.Equal(t, float64(8000), entry["port"])
	assert.Equal(t, "startup", entry["event"])
	assert.Equal(t, "production", entry["environment"])
}

func TestStandardLogger_LogAPIRequest(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLoggerWithWriter(&buf, "debug", "")

	l.LogAPIRequest("POST", "/api/v1/anomaly/detect", 200, 12, "req-1")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.NotContains(t, entry, "environment")
}

func TestStandardLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLoggerWithWriter(&buf, "error", "test")

	l.LogShutdown("finsight-ml", "signal")
	assert.Zero(t, buf.Len())

	l.WithError(errors.New("boom")).Error("failed")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestStandardLogger_ContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLoggerWithWriter(&buf, "info", "")

	l.WithService("svc").Info("a")
	assert.Equal(t, "svc", decodeLine(t, &buf)["service"])
	buf.Reset()

	l.WithComponent("cache").Info("b")
	assert.Equal(t, "cache", decodeLine(t, &buf)["component"])
	buf.Reset()

	l.WithRequestID("abc").Info("c")
	assert.Equal(t, "abc", decodeLine(t, &buf)["request_id"])
	assert.NotNil(t, l.Logger())
}

func TestGetSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getSlogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getSlogLevel("warning"))
	assert.Equal(t, slog.LevelError, getSlogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getSlogLevel("verbose"))
}

func TestParseLogrusLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"Warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		"":        logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogrusLevel(in), "level %q", in)
	}
}

func TestNewLogrusLogger(t *testing.T) {
	dev := NewLogrusLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)

	prod := NewLogrusLogger("warn", "production")
	assert.Equal(t, logrus.WarnLevel, prod.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
}
