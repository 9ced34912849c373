package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15, cfg.BoardSize)
	assert.Equal(t, 5, cfg.WinLength)
	assert.Equal(t, 1000, cfg.AITimeLimitMs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NINAROW_BOARD_SIZE", "9")
	t.Setenv("NINAROW_WIN_LENGTH", "4")
	t.Setenv("NINAROW_AI_TIME_LIMIT_MS", "250")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.BoardSize)
	assert.Equal(t, 4, cfg.WinLength)
	assert.Equal(t, 250, cfg.AITimeLimitMs)
}

func TestLoadRejectsBadWinLength(t *testing.T) {
	t.Setenv("NINAROW_BOARD_SIZE", "5")
	t.Setenv("NINAROW_WIN_LENGTH", "9")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Addr: ":0", BoardSize: 3, WinLength: 3, TTSize: 1}
	assert.NoError(t, cfg.Validate())
	cfg.BoardSize = 2
	assert.Error(t, cfg.Validate())
}
