// Package config provides configuration management for netdout.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LogDirectory returns the log directory for the daemon and CLI.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\netdout\logs
//   - Unix: <os.UserConfigDir()>/netdout/logs ($XDG_CONFIG_HOME or
//     ~/.config on Linux, ~/Library/Application Support on macOS), falling
//     back to ~/.config/netdout/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "netdout-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "netdout", "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "netdout-logs")
		}
		return filepath.Join(homeDir, ".config", "netdout", "logs")
	}
	return filepath.Join(configDir, "netdout", "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
