package logger

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

func readEntries(t *testing.T, path string) []map[string]interface{} {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		entries = append(entries, m)
	}
	return entries
}

func TestFileModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parq.log")
	write := func(mode FileMode, msg string) {
		l, err := New(Config{Path: path, Mode: mode, Level: zapcore.InfoLevel})
		require.NoError(t, err)
		l.Debug("hidden")
		l.Info(msg, zap.Int("rows", 3))
		require.NoError(t, l.Sync())
	}
	write(FileModeTruncate, "first")
	write(FileModeAppend, "second")
	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0]["msg"])
	assert.Equal(t, "second", entries[1]["msg"])
	assert.EqualValues(t, 3, entries[1]["rows"])

	write(FileModeTruncate, "third")
	entries = readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "third", entries[0]["msg"])
}

func TestRotateNeedsDir(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing", "parq.log"), FileModeRotate)
	assert.Error(t, err)
}

func TestFileModeSet(t *testing.T) {
	var m FileMode
	require.NoError(t, m.Set("rotate"))
	assert.Equal(t, FileModeRotate, m)
	require.NoError(t, m.Set(""))
	assert.Equal(t, FileModeTruncate, m)
	assert.Error(t, m.Set("sometimes"))
}
