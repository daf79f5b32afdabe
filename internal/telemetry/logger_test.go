package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, log.InfoLevel)
	l.Info("quest.completed", "quest", "high_clarity", "xp", 30)
	l.Debug("hidden")

	scanner := bufio.NewScanner(&buf)
	var lines []map[string]any
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "quest.completed", lines[0]["msg"])
	assert.Equal(t, "high_clarity", lines[0]["quest"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Contains(t, lines[0], "time")
}

func TestNewOpensFileAndRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	l, err := New(path, "warn")
	require.NoError(t, err)
	l.Info("dropped")
	l.Warn("state.decode_failed", "key", "userXP")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "state.decode_failed")
	assert.NotContains(t, string(data), "dropped")

	_, err = New("", "loud")
	assert.Error(t, err)
}

func TestEmptyPathDiscards(t *testing.T) {
	l, err := New("", "")
	require.NoError(t, err)
	l.Error("nothing to see")
	assert.NoError(t, l.Close())
}
