package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/internal/logging"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agentsDir lays out dir/support/AGENTS.md from the shared fixture.
func agentsDir(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/support.md")
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "support"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "support", "AGENTS.md"), data, 0o644))
	return dir
}

func baseConfig(t *testing.T) Config {
	return Config{
		Store:      StoreMemory,
		StoreDir:   t.TempDir(),
		AgentsDir:  agentsDir(t),
		Disclosure: "full",
	}
}

func TestCreateEngine_Stores(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name  string
		setup func(*Config)
	}{
		{"memory", func(*Config) {}},
		{"file", func(c *Config) { c.Store = StoreFile }},
		{"sqlite", func(c *Config) { c.Store = StoreSQLite }},
		{"redis", func(c *Config) { c.Store = StoreRedis; c.RedisAddr = mr.Addr() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.setup(&cfg)

			ctx := context.Background()
			rt, err := createEngine(ctx, cfg, logging.NewNop())
			require.NoError(t, err)
			defer rt.Close()

			_, err = rt.Engine.Load(ctx, "s1", sopnav.LoadRequest{Ref: "support"})
			require.NoError(t, err)
			_, err = rt.Engine.Goto(ctx, "s1", "START")
			require.NoError(t, err)

			s, err := rt.Engine.Session(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, []string{"START"}, s.Path)

			ids, err := rt.Engine.Sessions(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, "s1")
		})
	}
}

func TestCreateEngine_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := baseConfig(t)
	cfg.Store = StoreRedis
	cfg.RedisAddr = addr

	_, err := createEngine(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach redis")
}

func TestCreateEngine_Resolver(t *testing.T) {
	cfg := baseConfig(t)
	ctx := context.Background()
	rt, err := createEngine(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	agents, err := rt.Engine.Agents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"support"}, agents)

	abs := WorkflowRef(filepath.Join(cfg.AgentsDir, "support", "AGENTS.md"))
	assert.True(t, filepath.IsAbs(abs))
	_, err = rt.Engine.Load(ctx, "by-path", sopnav.LoadRequest{Ref: abs})
	require.NoError(t, err)

	_, err = rt.Engine.Load(ctx, "remote", sopnav.LoadRequest{Ref: "https://example.com/AGENTS.md"})
	assert.ErrorIs(t, err, domain.ErrSourceNotFound, "remote sources are opt-in")
}

func TestCreateEngine_BadDisclosure(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Disclosure = "partial"
	_, err := createEngine(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestCreateEngine_Hooks(t *testing.T) {
	var moves int
	hooks := domain.LifecycleHooks{
		OnMove: func(context.Context, *domain.MoveEvent) { moves++ },
	}
	cfg := baseConfig(t)
	cfg.Debug = true

	ctx := context.Background()
	rt, err := createEngine(ctx, cfg, logging.NewNop(), hooks)
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Engine.Load(ctx, "h", sopnav.LoadRequest{Ref: "support"})
	require.NoError(t, err)
	_, err = rt.Engine.Goto(ctx, "h", "START")
	require.NoError(t, err)
	assert.Equal(t, 1, moves)
}

func TestWorkflowRef_PassesNamesThrough(t *testing.T) {
	assert.Equal(t, "support", WorkflowRef("support"))
	assert.Equal(t, "https://example.com/a.md", WorkflowRef("https://example.com/a.md"))
}

func TestCreateEngine_SealedAndRedactedStore(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Store = StoreFile
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.RedactPII = true

	ctx := context.Background()
	rt, err := createEngine(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Engine.Load(ctx, "sealed", sopnav.LoadRequest{Ref: "support"})
	require.NoError(t, err)
	_, err = rt.Engine.SetTasks(ctx, "sealed", []domain.Task{{Description: "Refund jane@example.com"}})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(cfg.StoreDir, "*"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "Return processed")
		assert.NotContains(t, string(data), "jane@example.com")
	}

	s, err := rt.Engine.Session(ctx, "sealed")
	require.NoError(t, err)
	assert.Equal(t, "Refund ***", s.Tasks[0].Description)
	assert.NotNil(t, s.Workflow)
}

func TestStoreMiddleware_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"not base64", Config{EncryptionKey: "%%%"}},
		{"short key", Config{EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}},
		{"bad pattern", Config{RedactPatterns: []string{"("}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storeMiddleware(tt.cfg)
			assert.Error(t, err)
		})
	}
}
