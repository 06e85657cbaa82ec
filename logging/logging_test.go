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

	"github.com/use-agent/scrapeview/config"
)

func TestNew_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrapeview.log")

	logger, err := New(config.LogConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("scrape succeeded", zap.String("url", "https://example.com/"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "scrape succeeded", entry["msg"])
	assert.Equal(t, "https://example.com/", entry["url"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_Console(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")

	logger, err := New(config.LogConfig{Level: "debug", Format: "console", File: path})
	require.NoError(t, err)
	logger.Debug("visible")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "visible")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
