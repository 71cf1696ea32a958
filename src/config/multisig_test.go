package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("MULTISIG_CHANNEL_ID", "1089713385475674172")
}

func TestLoadMultisigConfigDefaults(t *testing.T) {
	requiredEnv(t)

	cfg, err := LoadMultisigConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, uint32(0), cfg.CoreID)
	assert.Equal(t, "INV4", cfg.Pallet)
	assert.Equal(t, "1000000", cfg.DisplayScale.String())
	assert.Equal(t, "bolt", cfg.Store)
	assert.Equal(t, uint64(600), cfg.MaxBackfill)
	assert.Equal(t, 3, cfg.NotifyAttempts)
	assert.Equal(t, 2*time.Second, cfg.NotifyDelay)
	assert.Equal(t, uint16(0), cfg.SS58Prefix)
	assert.Equal(t, DefaultAppsURL, cfg.AppsURL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadMultisigConfigOverrides(t *testing.T) {
	requiredEnv(t)
	t.Setenv("CORE_ID", "7")
	t.Setenv("DISPLAY_SCALE", "1000000000000")
	t.Setenv("MULTISIG_STORE", "Memory")
	t.Setenv("SS58_PREFIX", "117")
	t.Setenv("MAX_BACKFILL_BLOCKS", "0")
	t.Setenv("NOTIFY_ATTEMPTS", "5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadMultisigConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(7), cfg.CoreID)
	assert.Equal(t, "1000000000000", cfg.DisplayScale.String())
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, uint16(117), cfg.SS58Prefix)
	assert.Zero(t, cfg.MaxBackfill)
	assert.Equal(t, 5, cfg.NotifyAttempts)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadMultisigConfigRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"core id":         {"CORE_ID": "-1"},
		"scale zero":      {"DISPLAY_SCALE": "0"},
		"scale text":      {"DISPLAY_SCALE": "lots"},
		"prefix range":    {"SS58_PREFIX": "20000"},
		"attempts":        {"NOTIFY_ATTEMPTS": "0"},
		"store":           {"MULTISIG_STORE": "postgres"},
		"missing token":   {"DISCORD_TOKEN": ""},
		"missing channel": {"MULTISIG_CHANNEL_ID": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			requiredEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadMultisigConfig(nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadStatusAPIConfig(t *testing.T) {
	t.Setenv("API_LISTEN", "")
	assert.False(t, LoadStatusAPIConfig(nil).Enabled)

	t.Setenv("API_LISTEN", ":8080")
	t.Setenv("API_JWT_SECRET", "s3cret")
	cfg := LoadStatusAPIConfig(nil)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}
