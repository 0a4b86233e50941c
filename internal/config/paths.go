package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the path to the service data directory.
// - Windows: %APPDATA%\careerforge
// - Other OS: ~/.careerforge
func DataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "careerforge")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".careerforge"
	}
	return filepath.Join(home, ".careerforge")
}

// DefaultDatabasePath returns the path to the SQLite database file.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), "careerforge.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
