package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("sopnav", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return LoadConfig(fs)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(t)
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ".sopnav/sessions", cfg.StoreDir)
	assert.Equal(t, "agents", cfg.AgentsDir)
	assert.Equal(t, "full", cfg.Disclosure)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.False(t, cfg.AllowRemote)
	assert.False(t, cfg.Debug)
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("SOPNAV_AGENTS_DIR", "/from/env")
	t.Setenv("SOPNAV_STORE", "file")

	cfg, err := loadConfig(t, "--store", "sqlite", "--capabilities", "lookup,refund")
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/from/env", cfg.AgentsDir)
	assert.Equal(t, []string{"lookup", "refund"}, cfg.Capabilities)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sopnav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store: redis
session-ttl: 10m
disclosure: skeleton
allow-remote: true
`), 0o644))

	cfg, err := loadConfig(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "skeleton", cfg.Disclosure)
	assert.True(t, cfg.AllowRemote)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"unknown store", []string{"--store", "etcd"}, `unknown store "etcd"`},
		{"postgres without url", []string{"--store", "postgres"}, "--postgres-url is required"},
		{"unknown log format", []string{"--log-format", "xml"}, `unknown log format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadConfig_MissingConfigFile(t *testing.T) {
	_, err := loadConfig(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
