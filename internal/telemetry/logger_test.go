package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestFanout_SendsToEveryEnabledHandler(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	logger := slog.New(fanout{
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	})

	logger.Debug("attempt accepted", "attempt", 1)
	logger.Info("target complete", "target", "react")

	assert.Len(t, decodeLines(t, &debugBuf), 2)
	info := decodeLines(t, &infoBuf)
	require.Len(t, info, 1)
	assert.Equal(t, "target complete", info[0]["msg"])
	assert.Equal(t, "react", info[0]["target"])
}

func TestFanout_Enabled(t *testing.T) {
	f := fanout{
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
	assert.True(t, f.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, f.Enabled(context.Background(), slog.LevelDebug))
}

func TestFanout_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(fanout{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}).With("run_id", "r1").WithGroup("page")

	logger.Info("loaded", "url", "http://localhost:4173")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "r1", lines[0]["run_id"])
		page, ok := lines[0]["page"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:4173", page["url"])
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanout_HandleJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewJSONHandler(&buf, nil)
	f := fanout{failingHandler{ok}, ok}

	err := f.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
	assert.ErrorContains(t, err, "disk full")
	assert.Contains(t, buf.String(), `"msg":"msg"`, "remaining handlers still receive the record")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uibench.log")

	logger, closeLog := NewLogger(true, path, true)
	logger.Debug("debug line")
	logger.Info("info line")

	require.NoError(t, closeLog())
	require.NoError(t, closeLog(), "closing twice is harmless")
	logger.Info("after close")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug line")
	assert.Contains(t, string(content), "info line")
	assert.NotContains(t, string(content), "after close")
}

func TestNewLogger_InfoLevelDropsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uibench.log")

	logger, closeLog := NewLogger(false, path, true)
	defer closeLog()
	logger.Debug("hidden")
	logger.Info("shown")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), "shown")
}

func TestNewLogger_NoHandlers(t *testing.T) {
	logger, closeLog := NewLogger(false, "", true)
	require.NotNil(t, logger)
	assert.NoError(t, closeLog())
	assert.NotPanics(t, func() { logger.Info("discarded") })
}

func TestNewLogger_FileError(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger, closeLog := NewLogger(false, filepath.Join(t.TempDir(), "missing", "uibench.log"), true)
	assert.NotNil(t, logger)
	assert.NoError(t, closeLog())
	assert.Contains(t, buf.String(), "Failed to open log file")
}

func TestInitLogger_SetsDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger, closeLog := InitLogger(true, "")
	defer closeLog()
	assert.Same(t, logger, slog.Default())
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestLogError(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	LogError("run failed", errors.New("boom"), "target", "react")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "run failed", lines[0]["msg"])
	assert.Equal(t, "ERROR", lines[0]["level"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "react", lines[0]["target"])
}
