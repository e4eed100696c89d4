package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
app:
  name: test-bot
storage:
  driver: memory
database:
  host: db.local
  port: 6543
redis:
  host: cache.local
nats:
  url: nats://bus:4222
  reconnect_wait: 3s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-bot", cfg.App.Name)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "cache.local", cfg.Redis.Host)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, 3*time.Second, cfg.NATS.ReconnectWait)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: x\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 15*time.Second, cfg.Storage.LockTTL)
	assert.Equal(t, 10*time.Second, cfg.Storage.OpTimeout)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, 16, cfg.Subscriber.WorkerCount)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: postgres\n")
	t.Setenv("ROLEBOT_STORAGE_DRIVER", "redis")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Driver)
}

func TestLoad_LockTTLShorterThanOpTimeout(t *testing.T) {
	path := writeConfig(t, "storage:\n  lock_ttl: 5s\n  op_timeout: 10s\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrLockTTLTooShort)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
