package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, time.Minute, cfg.Interval)
	require.Equal(t, 48*time.Hour, cfg.Expire)
	require.Equal(t, blocklist, cfg.Clients)
	require.True(t, cfg.SkipLocal)
	require.NoError(t, cfg.validate())
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("IPBLOCKS_FIREWALL", "nftables")
	t.Setenv("IPBLOCKS_INTERVAL", "30s")
	t.Setenv("IPBLOCKS_CLIENTS", "xunlei,thunder")

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "nftables", cfg.Firewall)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.Equal(t, []string{"xunlei", "thunder"}, cfg.Clients)
	require.NoError(t, cfg.validate())
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("IPBLOCKS_FIREWALL", "pf")
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Error(t, cfg.validate())

	t.Setenv("IPBLOCKS_INTERVAL", "bogus")
	_, err = loadConfig()
	require.Error(t, err)
}
