package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytrag.log")

	logger, err := New(false, path)
	require.NoError(t, err)
	logger.Info("transcript fetched", zap.String("video_id", "dQw4w9WgXcQ"))
	logger.Debug("hidden at info level")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "transcript fetched", entry["msg"])
	assert.Equal(t, "dQw4w9WgXcQ", entry["video_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewDebugEnablesDebugLevel(t *testing.T) {
	logger, err := New(true, filepath.Join(t.TempDir(), "debug.log"))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewForTUIWithoutPathIsSilent(t *testing.T) {
	logger, err := NewForTUI(true, "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewBadPath(t *testing.T) {
	_, err := New(false, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.ErrorContains(t, err, "build logger")
}
