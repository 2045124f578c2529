package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SOLANA_RPC_URL",
	"SOLANA_COMMITMENT",
	"RPC_RATE_LIMIT",
	"RPC_BURST",
	"RPC_TIMEOUT",
	"DECODE_CONCURRENCY",
	"IDL_DIR",
	"FETCH_IDL",
	"LOG_LEVEL",
	"METRICS_ADDR",
}

func cleanupEnv() {
	for _, key := range envKeys {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, rpc.MainNetBeta_RPC, cfg.RPCURL)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, 10, cfg.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.FetchIDL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("SOLANA_RPC_URL", "http://localhost:8899")
	os.Setenv("SOLANA_COMMITMENT", "finalized")
	os.Setenv("RPC_RATE_LIMIT", "0")
	os.Setenv("RPC_TIMEOUT", "5s")
	os.Setenv("DECODE_CONCURRENCY", "16")
	os.Setenv("IDL_DIR", dir)
	os.Setenv("FETCH_IDL", "false")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("METRICS_ADDR", ":9090")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8899", cfg.RPCURL)
	assert.Equal(t, "finalized", cfg.Commitment)
	assert.Equal(t, 0, cfg.RequestsPerSecond)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 16, cfg.Concurrency)
	assert.Equal(t, dir, cfg.IDLDir)
	assert.False(t, cfg.FetchIDL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_ReportsEveryParseError(t *testing.T) {
	os.Setenv("RPC_TIMEOUT", "soon")
	os.Setenv("DECODE_CONCURRENCY", "many")
	os.Setenv("FETCH_IDL", "maybe")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
	assert.Contains(t, err.Error(), "invalid integer")
	assert.Contains(t, err.Error(), "invalid boolean")
}

func TestLoad_InvalidCommitment(t *testing.T) {
	os.Setenv("SOLANA_COMMITMENT", "recent")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be processed, confirmed or finalized")
}

func TestValidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "idl.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty rpc url", mutate: func(c *Config) { c.RPCURL = "" }, wantErr: "RPCURL is required"},
		{name: "negative rate", mutate: func(c *Config) { c.RequestsPerSecond = -1 }, wantErr: "cannot be negative"},
		{name: "zero burst", mutate: func(c *Config) { c.Burst = 0 }, wantErr: "Burst must be at least 1"},
		{name: "zero burst unlimited", mutate: func(c *Config) { c.RequestsPerSecond, c.Burst = 0, 0 }},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "RequestTimeout must be positive"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: "Concurrency must be at least 1"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "LogLevel"},
		{name: "missing idl dir", mutate: func(c *Config) { c.IDLDir = filepath.Join(file, "nope") }, wantErr: "IDLDir"},
		{name: "idl dir is a file", mutate: func(c *Config) { c.IDLDir = file }, wantErr: "is not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	os.Setenv("LOG_LEVEL", "loud")
	defer cleanupEnv()

	assert.Panics(t, func() { MustLoad() })
}
