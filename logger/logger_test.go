package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("complaints", "complaint submitted", map[string]interface{}{"id": "abc"})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "complaint submitted", entries[0].Message)
	assert.Equal(t, "complaints", ctx["module"])
	assert.Equal(t, map[string]interface{}{"id": "abc"}, ctx["details"])
}

func TestLoggerFlattensErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Error("store", "insert failed", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, map[string]interface{}{"error": "boom"}, ctx["details"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLoggerNilDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Warn("mail", "transport missing", nil)

	require.Len(t, logs.All(), 1)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestNewCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l := New(path, "debug", false)
	l.Info("test", "hello", nil)
	_ = l.Sync()

	assert.FileExists(t, path)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}
