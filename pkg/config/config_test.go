package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanhub/lanhub/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "lanhub", cfg.Server.Name)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 2*bytesize.GiB, cfg.Transfer.MaxSize)
	assert.Equal(t, DefaultAcceptWindow, cfg.Transfer.AcceptWindow)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.True(t, cfg.Permissions.AllUserGetMessage)
	assert.False(t, cfg.Permissions.AllUserUploadFile)

	require.NoError(t, Validate(cfg))
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  name: S1
  port: 9000
share:
  path: /srv/share
users:
  file: /etc/lanhub/users.csv
transfer:
  max_size: 256Mi
  accept_window: 5s
permissions:
  all_user_upload_file: true
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "S1", cfg.Server.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/share", cfg.Share.Path)
	assert.Equal(t, 256*bytesize.MiB, cfg.Transfer.MaxSize)
	assert.Equal(t, 5*time.Second, cfg.Transfer.AcceptWindow)
	assert.True(t, cfg.Permissions.AllUserUploadFile)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	// Unset sections fall back to defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.Equal(t, DefaultAdminAddr, cfg.Admin.Listen)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad server name", "server:\n  name: 'has space'\nshare:\n  path: /s\nusers:\n  file: /u\n"},
		{"bad port", "server:\n  name: S1\n  port: 70000\nshare:\n  path: /s\nusers:\n  file: /u\n"},
		{"missing share", "server:\n  name: S1\nusers:\n  file: /u\n"},
		{"discovery without ip", "server:\n  name: S1\nshare:\n  path: /s\nusers:\n  file: /u\ndiscovery:\n  enabled: true\n"},
		{"bad log level", "server:\n  name: S1\nshare:\n  path: /s\nusers:\n  file: /u\nlogging:\n  level: CHATTY\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  name: S1\nshare:\n  path: /s\nusers:\n  file: /u\n")
	t.Setenv("LANHUB_SERVER_PORT", "12345")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12345, cfg.Server.Port)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Server.Name = "roundtrip"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", loaded.Server.Name)
	assert.Equal(t, cfg.Transfer.MaxSize, loaded.Transfer.MaxSize)
}
