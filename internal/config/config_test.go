// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RUMMY_STORE", "")
	t.Setenv("RUMMY_MAX_PLAYERS", "")
	t.Setenv("RUMMY_POOL_LIMIT", "")
	t.Setenv("RUMMY_RECONNECT_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, 2, cfg.MaxPlayers)
	assert.Nil(t, cfg.PoolLimit)
	assert.Equal(t, 10*time.Second, cfg.ReconnectTimeout)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.NotEmpty(t, cfg.StorePath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RUMMY_STORE", "Redis")
	t.Setenv("RUMMY_MAX_PLAYERS", "6")
	t.Setenv("RUMMY_POOL_LIMIT", "201")
	t.Setenv("RUMMY_RECONNECT_TIMEOUT", "3")
	t.Setenv("RUMMY_RECONNECT_DELAY", "500ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 6, cfg.MaxPlayers)
	require.NotNil(t, cfg.PoolLimit)
	assert.Equal(t, 201, *cfg.PoolLimit)
	assert.Equal(t, 3*time.Second, cfg.ReconnectTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("RUMMY_STORE", "sqlite")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RUMMY_STORE", "file")
	t.Setenv("RUMMY_POOL_LIMIT", "lots")
	_, err = Load()
	assert.Error(t, err)
}
