// Package registry tracks versions of trained models.
//
// A Registry pairs an artifact store holding serialized models with a
// relational store holding one immutable metadata row per version. It answers
// the lookups the serving layer needs: all versions of a type, the latest
// version of a type, the full record of one version, and the model itself.
//
// # Consistency
//
// Register inserts the row, writes the artifact and commits inside one
// transaction. Any failure rolls the row back and removes an artifact that was
// already written, so a committed row always has its artifact and a failed
// registration leaves neither behind.
//
// # Error policy
//
// Register and Prune return errors. Every read operation recovers at the
// registry boundary: failures are logged and reported as an absent value.
package registry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/modelreg/internal/artifact"
	"github.com/zjrosen/modelreg/internal/cachemanager"
	"github.com/zjrosen/modelreg/internal/predictor"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// CacheConfig controls the read caches.
type CacheConfig struct {
	Enabled bool
	// TTL bounds how long a cached latest version may lag behind writes from other processes.
	TTL time.Duration
}

// Config wires a Registry. Repo and Store are required.
type Config struct {
	Repo  domain.Repository
	Store artifact.Store

	// Codec defaults to artifact.GobCodec.
	Codec artifact.Codec

	// Clock defaults to time.Now.
	Clock func() time.Time

	Cache CacheConfig

	// Tracer defaults to a no-op tracer.
	Tracer trace.Tracer

	// Retention, when set, is applied to a model type after each successful registration.
	Retention RetentionPolicy
}

// Registry is safe for concurrent use.
type Registry struct {
	repo      domain.Repository
	store     artifact.Store
	codec     artifact.Codec
	now       func() time.Time
	tracer    trace.Tracer
	retention RetentionPolicy
	ttl       time.Duration

	// Versions are immutable, so detail hits extend their TTL.
	details *cachemanager.ReadThroughCache[string, *domain.ModelVersion, string]
	latest  *cachemanager.ReadThroughCache[string, string, string]
	models  cachemanager.CacheManager[string, predictor.Model]
	cached  bool
}

// New creates a Registry.
func New(cfg Config) *Registry {
	r := &Registry{
		repo:      cfg.Repo,
		store:     cfg.Store,
		codec:     cfg.Codec,
		now:       cfg.Clock,
		tracer:    cfg.Tracer,
		retention: cfg.Retention,
		ttl:       cfg.Cache.TTL,
		cached:    cfg.Cache.Enabled,
	}
	if r.codec == nil {
		r.codec = artifact.GobCodec{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if r.ttl <= 0 {
		r.ttl = cachemanager.DefaultExpiration
	}

	skip := !cfg.Cache.Enabled
	r.details = cachemanager.NewReadThroughCache[string, *domain.ModelVersion, string](
		cachemanager.NewInMemoryCacheManager[string, *domain.ModelVersion]("version-details", r.ttl, cachemanager.DefaultCleanupInterval),
		r.repo.FindByName,
		skip,
	)
	r.latest = cachemanager.NewReadThroughCache[string, string, string](
		cachemanager.NewInMemoryCacheManager[string, string]("latest-version", r.ttl, cachemanager.DefaultCleanupInterval),
		func(ctx context.Context, modelType string) (string, error) {
			v, err := r.repo.Latest(ctx, modelType)
			if err != nil {
				return "", err
			}
			return v.VersionName(), nil
		},
		skip,
	)
	r.models = cachemanager.NewInMemoryCacheManager[string, predictor.Model]("loaded-models", r.ttl, cachemanager.DefaultCleanupInterval)
	return r
}

// Codec returns the codec used for artifacts.
func (r *Registry) Codec() artifact.Codec {
	return r.codec
}

// invalidateType drops cached lookups that a write to modelType can change.
func (r *Registry) invalidateType(ctx context.Context, modelType string) {
	r.latest.Invalidate(ctx, modelType)
}

// invalidateVersion drops every cached entry derived from one version.
func (r *Registry) invalidateVersion(ctx context.Context, versionName string) {
	r.details.Invalidate(ctx, versionName)
	_ = r.models.Delete(ctx, versionName)
}
