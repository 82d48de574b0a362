// Package config provides configuration management for netdout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is netdout's unified configuration.
//
// Config file location:
//   - Windows: %APPDATA%\netdout\netdout.conf
//   - Unix: ~/.config/netdout/netdout.conf
//
// INI format:
//
//	[daemon]
//	api_bind_address = 127.0.0.1:8472
//	db_path = netdout.db
//	worker_ceiling = 8
//	chunk_size_bytes = 2097152
//	download_dir = .
type Config struct {
	Daemon DaemonConfig
}

// DaemonConfig holds the download engine's tunables.
type DaemonConfig struct {
	// APIBindAddress is the address the HTTP API listens on.
	APIBindAddress string `ini:"api_bind_address"`

	// DBPath is the resume store's database file.
	DBPath string `ini:"db_path"`

	// WorkerCeiling is the configured parallelism ceiling handed to the
	// Scheduler.
	WorkerCeiling int `ini:"worker_ceiling"`

	// ChunkSizeBytes is the byte-range size the Chunk Planner uses.
	ChunkSizeBytes int64 `ini:"chunk_size_bytes"`

	// DownloadDir is the base directory CLI-relative output paths resolve
	// against.
	DownloadDir string `ini:"download_dir"`
}

// Validation errors.
var (
	ErrInvalidAPIBindAddress = errors.New("api_bind_address must not be empty")
	ErrInvalidWorkerCeiling  = errors.New("worker_ceiling must be between 1 and 256")
	ErrInvalidChunkSize      = errors.New("chunk_size_bytes must be positive")
	ErrMissingDBPath         = errors.New("db_path must not be empty")
)

// DefaultConfigPath returns the default path for netdout.conf.
//   - Windows: %APPDATA%\netdout\netdout.conf
//   - Unix: ~/.config/netdout/netdout.conf
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE environment variable set")
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "netdout")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "netdout")
	}

	return filepath.Join(configDir, "netdout.conf"), nil
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		Daemon: DaemonConfig{
			APIBindAddress: "127.0.0.1:8472",
			DBPath:         "netdout.db",
			WorkerCeiling:  8,
			ChunkSizeBytes: 2 * 1024 * 1024,
			DownloadDir:    ".",
		},
	}
}

// Load loads configuration from path. If path is empty, the default path is
// used. A missing file yields defaults and no error; an invalid file is an
// error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load netdout.conf: %w", err)
	}

	section := iniFile.Section("daemon")
	cfg.Daemon.APIBindAddress = section.Key("api_bind_address").MustString(cfg.Daemon.APIBindAddress)
	cfg.Daemon.DBPath = section.Key("db_path").MustString(cfg.Daemon.DBPath)
	cfg.Daemon.WorkerCeiling = section.Key("worker_ceiling").MustInt(cfg.Daemon.WorkerCeiling)
	cfg.Daemon.ChunkSizeBytes = section.Key("chunk_size_bytes").MustInt64(cfg.Daemon.ChunkSizeBytes)
	cfg.Daemon.DownloadDir = section.Key("download_dir").MustString(cfg.Daemon.DownloadDir)

	return cfg, cfg.Validate()
}

// Save writes cfg to path (or the default path) atomically: the file is
// written to a temp path, permissions restricted on Unix, then renamed into
// place.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()
	section, err := iniFile.NewSection("daemon")
	if err != nil {
		return fmt.Errorf("failed to create daemon section: %w", err)
	}
	section.Key("api_bind_address").SetValue(cfg.Daemon.APIBindAddress)
	section.Key("db_path").SetValue(cfg.Daemon.DBPath)
	section.Key("worker_ceiling").SetValue(fmt.Sprintf("%d", cfg.Daemon.WorkerCeiling))
	section.Key("chunk_size_bytes").SetValue(fmt.Sprintf("%d", cfg.Daemon.ChunkSizeBytes))
	section.Key("download_dir").SetValue(cfg.Daemon.DownloadDir)

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks that the configuration's values are usable.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Daemon.APIBindAddress) == "" {
		return ErrInvalidAPIBindAddress
	}
	if strings.TrimSpace(cfg.Daemon.DBPath) == "" {
		return ErrMissingDBPath
	}
	if cfg.Daemon.WorkerCeiling < 1 || cfg.Daemon.WorkerCeiling > 256 {
		return ErrInvalidWorkerCeiling
	}
	if cfg.Daemon.ChunkSizeBytes < 1 {
		return ErrInvalidChunkSize
	}
	return nil
}
