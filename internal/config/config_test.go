package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contractHex = "0x5555555555555555555555555555555555555555"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.ConfirmTimeout)
	assert.Equal(t, 5*time.Second, cfg.StatusTTL)
	assert.Equal(t, uint64(365), cfg.PeriodsPerYear)
	assert.True(t, cfg.WatchEvents)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("YIELDLOCK_CONTRACT", contractHex)
	t.Setenv("YIELDLOCK_POLL_INTERVAL", "10s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Duration("confirm-timeout", 0, "")
	require.NoError(t, flags.Parse([]string{"--rpc", "http://localhost:8545", "--confirm-timeout", "2m"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, contractHex, cfg.Contract)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yieldlock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc: http://node:8545\ncontract: "+contractHex+"\nperiods-per-year: 52\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://node:8545", cfg.RPCURL)
	assert.Equal(t, uint64(52), cfg.PeriodsPerYear)
	assert.Equal(t, contractHex, cfg.ContractAddress().Hex())
}

func TestValidate(t *testing.T) {
	base := Config{RPCURL: "http://x", Contract: contractHex, PollInterval: time.Second}
	require.NoError(t, base.Validate())

	missing := base
	missing.RPCURL = ""
	assert.Error(t, missing.Validate())

	bad := base
	bad.Contract = "0x12"
	assert.Error(t, bad.Validate())

	account := base
	account.Account = "nope"
	assert.Error(t, account.Validate())

	_, ok := base.AccountAddress()
	assert.False(t, ok)
}
