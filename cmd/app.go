package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zjrosen/modelreg/internal/artifact"
	"github.com/zjrosen/modelreg/internal/config"
	"github.com/zjrosen/modelreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/registry"
	"github.com/zjrosen/modelreg/internal/tracing"
)

// app holds the wired registry and everything that must be closed with it.
type app struct {
	reg     *registry.Registry
	db      *sqlite.DB
	store   artifact.Store
	tracing *tracing.Provider
}

// openApp validates cfg and wires the database, artifact store, tracer and registry.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.ModelDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating model directory: %w", err)
	}

	provider, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	db, err := sqlite.NewDBWithOptions(cfg.DatabasePath(), sqlite.Options{BusyTimeout: cfg.Database.BusyTimeout})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	var retention registry.RetentionPolicy
	if cfg.Retention.AutoPrune {
		retention = retentionPolicy(cfg.Retention)
	}

	reg := registry.New(registry.Config{
		Repo:  db.VersionRepository(),
		Store: store,
		Cache: registry.CacheConfig{
			Enabled: cfg.Cache.Enabled,
			TTL:     cfg.Cache.TTL,
		},
		Tracer:    provider.Tracer(),
		Retention: retention,
	})

	log.Info(log.CatConfig, "registry opened",
		"db", db.Path(),
		"backend", cfg.Artifacts.Backend,
		"cache", cfg.Cache.Enabled,
		"tracing", provider.Enabled(),
	)

	return &app{reg: reg, db: db, store: store, tracing: provider}, nil
}

// newStore builds the configured artifact store.
func newStore(ctx context.Context, cfg config.Config) (artifact.Store, error) {
	switch cfg.Artifacts.Backend {
	case config.BackendGCS:
		store, err := artifact.NewGCSStore(ctx, cfg.Artifacts.Bucket, cfg.Artifacts.Prefix)
		if err != nil {
			return nil, fmt.Errorf("opening gcs artifact store: %w", err)
		}
		return store, nil
	default:
		store, err := artifact.NewFileStore(cfg.ModelDir)
		if err != nil {
			return nil, fmt.Errorf("opening artifact directory: %w", err)
		}
		return store, nil
	}
}

func retentionPolicy(r config.RetentionConfig) registry.RetentionPolicy {
	return registry.RetentionPolicy{
		MaxVersionsPerType: r.MaxVersionsPerType,
		MaxAge:             r.MaxAge,
	}
}

// Close flushes spans and releases the database and store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if closer, ok := a.store.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, a.db.Close(), a.tracing.Shutdown(ctx))
	return errors.Join(errs...)
}
