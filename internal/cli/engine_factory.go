package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/sopnav"
	"github.com/aretw0/sopnav/internal/logging"
	"github.com/aretw0/sopnav/pkg/adapters/chain"
	"github.com/aretw0/sopnav/pkg/adapters/file"
	"github.com/aretw0/sopnav/pkg/adapters/loam"
	"github.com/aretw0/sopnav/pkg/adapters/memory"
	"github.com/aretw0/sopnav/pkg/adapters/postgres"
	"github.com/aretw0/sopnav/pkg/adapters/redis"
	"github.com/aretw0/sopnav/pkg/adapters/remote"
	"github.com/aretw0/sopnav/pkg/adapters/sqlite"
	"github.com/aretw0/sopnav/pkg/domain"
	"github.com/aretw0/sopnav/pkg/observability"
	"github.com/aretw0/sopnav/pkg/persistence/middleware"
	"github.com/aretw0/sopnav/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Runtime bundles an engine with the resources to release on exit.
type Runtime struct {
	Engine *sopnav.Engine
	Logger *slog.Logger

	closers []func() error
}

// Close releases the store connections.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// NewRuntime builds the engine described by cfg. The hooks are installed in
// addition to the audit hooks enabled by --debug.
func NewRuntime(ctx context.Context, cfg Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*Runtime, error) {
	return createEngine(ctx, cfg, logger, hooks...)
}

// NewLogger returns the logger configured by cfg.
func NewLogger(cfg Config) *slog.Logger {
	return createLogger(cfg)
}

// createEngine initializes an engine with standard CLI conventions.
func createEngine(ctx context.Context, cfg Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*Runtime, error) {
	rt := &Runtime{Logger: logger}

	disclosure, err := sopnav.ParseDisclosure(cfg.Disclosure)
	if err != nil {
		return nil, err
	}
	resolver, err := createResolver(cfg)
	if err != nil {
		return nil, err
	}

	opts := []sopnav.Option{
		sopnav.WithLogger(logger),
		sopnav.WithResolver(resolver),
		sopnav.WithDisclosure(disclosure),
		sopnav.WithCapabilities(cfg.Capabilities...),
	}
	if cfg.CatalogSize > 0 {
		opts = append(opts, sopnav.WithCatalogSize(cfg.CatalogSize))
	}
	if cfg.Debug {
		opts = append(opts, sopnav.WithLifecycleHooks(observability.AuditHooks(logger)))
	}
	for _, h := range hooks {
		opts = append(opts, sopnav.WithLifecycleHooks(h))
	}

	store, storeOpts, err := rt.createStore(ctx, cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	opts = append(opts, sopnav.WithStore(middleware.Wrap(store, mws...)))
	opts = append(opts, storeOpts...)

	eng, err := sopnav.New(opts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = eng
	return rt, nil
}

func (rt *Runtime) createStore(ctx context.Context, cfg Config) (ports.SessionStore, []sopnav.Option, error) {
	switch cfg.Store {
	case StoreFile:
		return file.New(cfg.StoreDir), nil, nil

	case StoreSQLite:
		store, err := sqlite.Open(cfg.StoreDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil, nil

	case StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		store := redis.NewFromClient(client, redis.WithTTL(cfg.SessionTTL))
		return store, []sopnav.Option{
			sopnav.WithLocker(redis.NewLocker(client, redis.DefaultPrefix)),
			sopnav.WithLockTTL(cfg.LockTTL),
		}, nil

	case StorePostgres:
		store, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		rt.closers = append(rt.closers, func() error { store.Close(); return nil })
		if err := store.CreateSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare postgres schema: %w", err)
		}
		return store, nil, nil
	}
	return memory.NewStore(), nil, nil
}

// storeMiddleware builds the redaction and encryption layers. Redaction runs
// first so masked text is what gets sealed.
func storeMiddleware(cfg Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	patterns := append([]string(nil), cfg.RedactPatterns...)
	if cfg.RedactPII {
		patterns = append(patterns, middleware.EmailPattern, middleware.PhonePattern)
	}
	if len(patterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	if cfg.EncryptionKey != "" {
		active, err := decodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// createResolver chains the configured workflow sources: the agents
// directory first, then the loam library, then remote URLs when allowed.
func createResolver(cfg Config) (ports.SourceResolver, error) {
	resolvers := []ports.SourceResolver{file.NewSource(cfg.AgentsDir)}
	if cfg.LibraryDir != "" {
		lib, err := loam.Open(cfg.LibraryDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open agents library: %w", err)
		}
		resolvers = append(resolvers, lib)
	}
	if cfg.AllowRemote {
		resolvers = append(resolvers, remote.New())
	}
	return chain.New(resolvers...), nil
}

// createLogger configures the application logger. Debug wins over log-level.
func createLogger(cfg Config) *slog.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return logging.New(level, logging.Format(cfg.LogFormat))
}
