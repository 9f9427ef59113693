package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("calibrated", zap.String("run_id", "abc"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "calibrated", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibcheck.log")
	logger, err := New(Config{File: path, MaxSizeMB: 1}, &bytes.Buffer{})
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"}, nil)
	assert.Error(t, err)
	_, err = New(Config{Format: "xml"}, nil)
	assert.Error(t, err)
}
