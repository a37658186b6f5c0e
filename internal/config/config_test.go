package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.AI.Provider)
}

func TestResolveLayersFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[ai]
provider = "openrouter"
max_tokens = 900

[relay]
addr = "127.0.0.1:9000"
max_age = "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv(envAPIKey, "sk-test")
	t.Setenv(envRelayAddr, "127.0.0.1:9100")

	file, err := LoadConfig(path)
	require.NoError(t, err)
	settings, err := Resolve(file)
	require.NoError(t, err)

	assert.Equal(t, "openrouter", settings.Provider)
	assert.Equal(t, 900, settings.MaxTokens)
	assert.Equal(t, DefaultTemperature, settings.Temperature)
	assert.Equal(t, "sk-test", settings.APIKey)
	assert.Equal(t, "127.0.0.1:9100", settings.RelayAddr)
	assert.Equal(t, 30*time.Minute, settings.RelayMaxAge)
}

func TestResolveRejectsBadValues(t *testing.T) {
	bad := "soon"
	_, err := Resolve(FileConfig{Relay: RelayConfig{MaxAge: &bad}})
	require.Error(t, err)

	zero := 0
	_, err = Resolve(FileConfig{AI: AIConfig{MaxTokens: &zero}})
	require.Error(t, err)
}
