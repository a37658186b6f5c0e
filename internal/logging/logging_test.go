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
)

func TestNewWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studymind.log")
	logger, err := New(Options{Path: path})
	require.NoError(t, err)

	logger.Info("document loaded", zap.String("module", "document"), zap.Int("pages", 3))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "document loaded", entry["message"])
	assert.Equal(t, float64(3), entry["pages"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	logger.Info("dropped")
}

func TestSecretMasksValue(t *testing.T) {
	assert.Equal(t, "****cdef", Secret("api_key", "sk-abcdef").String)
	assert.Equal(t, "****", Secret("api_key", "abc").String)
	assert.Equal(t, "", Secret("api_key", "  ").String)
}
