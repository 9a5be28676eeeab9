package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, 500, cfg.Poll.IntervalMS)
	assert.Equal(t, 100, cfg.Poll.Lines)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("POLL_INTERVAL_MS", "250")
	t.Setenv("POLL_LINES", "40")
	t.Setenv("LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval())
	assert.Equal(t, 40, cfg.Poll.Lines)
	assert.True(t, cfg.Logging.Development)
}

func TestDefaultMatchesLoad(t *testing.T) {
	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), loaded)
}
