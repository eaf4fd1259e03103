package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 50, cfg.Limits.MaxPlayers)
	assert.Equal(t, 5, cfg.Limits.MaxConnsPerIP)
	assert.Equal(t, 1000, cfg.Limits.MaxTotalConns)
	assert.Equal(t, 240.0, cfg.World.Bound)
	assert.Equal(t, 2.5, cfg.World.HitRadius)
	assert.Equal(t, 100.0, cfg.World.OriginToleranceSq)
	assert.Equal(t, 50*time.Millisecond, cfg.Move.BaseInterval)
	assert.Equal(t, 2.0, cfg.Move.Exponent)
	assert.Equal(t, 30*time.Second, cfg.Timers.LedgerReset)
	assert.Equal(t, 5*time.Second, cfg.Timers.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.Timers.PongTimeout)
	assert.Equal(t, 12*time.Hour, cfg.Admin.TokenTTL)
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":4000"
limits:
  max_players: 8
move:
  displacement_exponent: 1
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, 8, cfg.Limits.MaxPlayers)
	assert.Equal(t, 1.0, cfg.Move.Exponent)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Limits.MaxConnsPerIP)
	assert.Equal(t, 1.1, cfg.Move.Margin)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_players: 0\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "max_players")

	require.NoError(t, os.WriteFile(path, []byte("limits: [1, 2"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
