package config

import (
	"os"
	"path/filepath"
)

const appDir = "studymind"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}

// DefaultDBPath returns the SQLite database holding preferences.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "prefs.db")
}

// DefaultLogPath returns the rotated log file location.
func DefaultLogPath() string {
	return filepath.Join(XDGDataHome(), appDir, "studymind.log")
}

// DefaultJournalPath returns the JSON journal of exported artifacts.
func DefaultJournalPath() string {
	return filepath.Join(XDGDataHome(), appDir, "journal.json")
}

// DefaultCacheDir returns the directory used for downloaded PDFs.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "studymind-cache")
	}
	return filepath.Join(base, appDir, "pdfs")
}
