// Package config loads the TOML configuration file and resolves runtime settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	envAPIKey    = "STUDYMIND_API_KEY"
	envProvider  = "STUDYMIND_PROVIDER"
	envRelayAddr = "STUDYMIND_RELAY_ADDR"
	envCacheDir  = "STUDYMIND_CACHE_DIR"
	envMaxTokens = "STUDYMIND_MAX_TOKENS"

	DefaultProvider    = "openai"
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.7
	DefaultRelayAddr   = "127.0.0.1:7345"
)

// FileConfig mirrors config.toml. Pointer fields distinguish unset values.
type FileConfig struct {
	AI    AIConfig    `toml:"ai"`
	Relay RelayConfig `toml:"relay"`
	Paths PathsConfig `toml:"paths"`
}

// AIConfig maps the [ai] table.
type AIConfig struct {
	Provider    *string  `toml:"provider"`
	Model       *string  `toml:"model"`
	Endpoint    *string  `toml:"endpoint"`
	MaxTokens   *int     `toml:"max_tokens"`
	Temperature *float64 `toml:"temperature"`
}

// RelayConfig maps the [relay] table.
type RelayConfig struct {
	Addr         *string  `toml:"addr"`
	MaxAge       *string  `toml:"max_age"`
	AllowOrigins []string `toml:"allow_origins"`
}

// PathsConfig maps the [paths] table.
type PathsConfig struct {
	Log     *string `toml:"log"`
	DB      *string `toml:"db"`
	Cache   *string `toml:"cache"`
	Journal *string `toml:"journal"`
}

// Settings is the fully resolved configuration handed to the commands.
type Settings struct {
	Provider    string
	APIKey      string
	Model       string
	Endpoint    string
	MaxTokens   int
	Temperature float64

	RelayAddr         string
	RelayMaxAge       time.Duration
	RelayAllowOrigins []string

	LogPath     string
	DBPath      string
	CacheDir    string
	JournalPath string
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Resolve layers defaults, the file and environment variables, in that order.
func Resolve(file FileConfig) (Settings, error) {
	s := Settings{
		Provider:    DefaultProvider,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		RelayAddr:   DefaultRelayAddr,
		LogPath:     DefaultLogPath(),
		DBPath:      DefaultDBPath(),
		CacheDir:    DefaultCacheDir(),
		JournalPath: DefaultJournalPath(),
	}

	setString(&s.Provider, file.AI.Provider)
	setString(&s.Model, file.AI.Model)
	setString(&s.Endpoint, file.AI.Endpoint)
	if file.AI.MaxTokens != nil {
		s.MaxTokens = *file.AI.MaxTokens
	}
	if file.AI.Temperature != nil {
		s.Temperature = *file.AI.Temperature
	}
	setString(&s.RelayAddr, file.Relay.Addr)
	if file.Relay.MaxAge != nil && strings.TrimSpace(*file.Relay.MaxAge) != "" {
		age, err := time.ParseDuration(strings.TrimSpace(*file.Relay.MaxAge))
		if err != nil {
			return Settings{}, fmt.Errorf("invalid relay.max_age: %w", err)
		}
		s.RelayMaxAge = age
	}
	for _, origin := range file.Relay.AllowOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			s.RelayAllowOrigins = append(s.RelayAllowOrigins, origin)
		}
	}
	setString(&s.LogPath, file.Paths.Log)
	setString(&s.DBPath, file.Paths.DB)
	setString(&s.CacheDir, file.Paths.Cache)
	setString(&s.JournalPath, file.Paths.Journal)

	if v := strings.TrimSpace(os.Getenv(envAPIKey)); v != "" {
		s.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envProvider)); v != "" {
		s.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv(envRelayAddr)); v != "" {
		s.RelayAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(envCacheDir)); v != "" {
		s.CacheDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envMaxTokens)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", envMaxTokens, err)
		}
		s.MaxTokens = n
	}

	if s.MaxTokens <= 0 {
		return Settings{}, fmt.Errorf("max_tokens must be greater than 0")
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return Settings{}, fmt.Errorf("temperature must be between 0 and 2")
	}
	return s, nil
}

func setString(dst *string, v *string) {
	if v == nil {
		return
	}
	if trimmed := strings.TrimSpace(*v); trimmed != "" {
		*dst = trimmed
	}
}

// DefaultTemplate is written by `studymind config init`.
func DefaultTemplate() string {
	return `# StudyMind configuration

[ai]
# provider = "openai"      # or "openrouter"
# model = "gpt-4o"
# max_tokens = 1500
# temperature = 0.7

[relay]
# addr = "127.0.0.1:7345"
# max_age = "24h"          # empty keeps captured PDFs until overwritten
# allow_origins = ["*"]    # let browser pages publish captured PDFs

[paths]
# log = "~/.local/share/studymind/studymind.log"
`
}
