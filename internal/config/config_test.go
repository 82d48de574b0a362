package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "127.0.0.1:8472", cfg.Daemon.APIBindAddress)
	assert.Equal(t, "netdout.db", cfg.Daemon.DBPath)
	assert.Equal(t, 8, cfg.Daemon.WorkerCeiling)
	assert.EqualValues(t, 2*1024*1024, cfg.Daemon.ChunkSizeBytes)
	assert.Equal(t, ".", cfg.Daemon.DownloadDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "netdout-config-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "netdout.conf")

	cfg := New()
	cfg.Daemon.APIBindAddress = "0.0.0.0:9000"
	cfg.Daemon.DBPath = "/var/lib/netdout/state.db"
	cfg.Daemon.WorkerCeiling = 3
	cfg.Daemon.ChunkSizeBytes = 1024 * 1024
	cfg.Daemon.DownloadDir = "/tmp/downloads"

	require.NoError(t, Save(cfg, configPath))

	_, err = os.Stat(configPath)
	require.NoError(t, err)

	loaded, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, cfg.Daemon, loaded.Daemon)
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/netdout.conf")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, New().Daemon, cfg.Daemon)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid defaults", func(cfg *Config) {}, nil},
		{"missing bind address", func(cfg *Config) { cfg.Daemon.APIBindAddress = "" }, ErrInvalidAPIBindAddress},
		{"missing db path", func(cfg *Config) { cfg.Daemon.DBPath = "" }, ErrMissingDBPath},
		{"worker ceiling too low", func(cfg *Config) { cfg.Daemon.WorkerCeiling = 0 }, ErrInvalidWorkerCeiling},
		{"worker ceiling too high", func(cfg *Config) { cfg.Daemon.WorkerCeiling = 1000 }, ErrInvalidWorkerCeiling},
		{"chunk size not positive", func(cfg *Config) { cfg.Daemon.ChunkSizeBytes = 0 }, ErrInvalidChunkSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			assert.Equal(t, tt.wantErr, cfg.Validate())
		})
	}
}
