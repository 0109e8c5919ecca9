package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/tracing"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// RetentionPolicy bounds how many versions of each model type are kept.
// The latest version of a type is never pruned.
type RetentionPolicy struct {
	// MaxVersionsPerType keeps at most this many versions per type. Zero disables the limit.
	MaxVersionsPerType int
	// MaxAge prunes versions created longer ago than this. Zero disables the limit.
	MaxAge time.Duration
}

// IsZero reports whether the policy keeps everything.
func (p RetentionPolicy) IsZero() bool {
	return p.MaxVersionsPerType <= 0 && p.MaxAge <= 0
}

func (p RetentionPolicy) String() string {
	return fmt.Sprintf("max_versions=%d max_age=%s", p.MaxVersionsPerType, p.MaxAge)
}

// PruneResult lists what a Prune removed, or would remove on a dry run.
type PruneResult struct {
	// Versions are version names, newest first within each model type.
	Versions []string
	// Orphans are artifact keys that no version row references.
	Orphans []string
}

// Prune removes the versions policy does not keep, across every model type,
// then sweeps orphaned artifacts. With dryRun set nothing is removed.
// A version whose removal fails is left in place and its error is joined into
// the returned error; the other victims are still processed.
func (r *Registry) Prune(ctx context.Context, policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanPrune, attribute.Bool(tracing.AttrDryRun, dryRun))

	result := PruneResult{Versions: []string{}, Orphans: []string{}}
	var errs []error

	if !policy.IsZero() {
		types, err := r.repo.ModelTypes(ctx)
		if err != nil {
			tracing.Finish(span, tracing.ResultFailed, err)
			return result, fmt.Errorf("list model types: %w", err)
		}
		for _, modelType := range types {
			names, err := r.pruneType(ctx, modelType, policy, dryRun)
			result.Versions = append(result.Versions, names...)
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	orphans, err := r.sweepOrphans(ctx, dryRun)
	result.Orphans = append(result.Orphans, orphans...)
	if err != nil {
		errs = append(errs, err)
	}

	err = errors.Join(errs...)
	span.SetAttributes(
		attribute.Int(tracing.AttrCount, len(result.Versions)),
		attribute.Int(tracing.AttrOrphans, len(result.Orphans)),
	)
	tracing.Finish(span, tracing.ResultOK, err)

	log.Info(log.CatRegistry, "prune finished", "policy", policy.String(), "dry_run", dryRun,
		"pruned", len(result.Versions), "orphans", len(result.Orphans), "failed", len(errs))
	return result, err
}

func (r *Registry) pruneType(ctx context.Context, modelType string, policy RetentionPolicy, dryRun bool) ([]string, error) {
	victims, err := r.pruneCandidates(ctx, modelType, policy)
	if err != nil {
		return nil, err
	}

	pruned := make([]string, 0, len(victims))
	if dryRun {
		for _, v := range victims {
			pruned = append(pruned, v.VersionName())
		}
		return pruned, nil
	}

	var errs []error
	for _, v := range victims {
		if err := r.removeVersion(ctx, v); err != nil {
			errs = append(errs, fmt.Errorf("prune %s: %w", v.VersionName(), err))
			continue
		}
		pruned = append(pruned, v.VersionName())
	}
	if len(pruned) > 0 {
		r.invalidateType(ctx, modelType)
	}
	return pruned, errors.Join(errs...)
}

// pruneCandidates returns the versions of modelType outside policy, newest first.
// The latest version is never a candidate.
func (r *Registry) pruneCandidates(ctx context.Context, modelType string, policy RetentionPolicy) ([]*domain.ModelVersion, error) {
	latest, err := r.repo.Latest(ctx, modelType)
	var noVersions *domain.NoVersionsError
	if errors.As(err, &noVersions) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest version of %s: %w", modelType, err)
	}

	seen := map[string]bool{latest.VersionName(): true}
	var victims []*domain.ModelVersion
	add := func(versions []*domain.ModelVersion) {
		for _, v := range versions {
			if !seen[v.VersionName()] {
				seen[v.VersionName()] = true
				victims = append(victims, v)
			}
		}
	}

	if policy.MaxVersionsPerType > 0 {
		versions, err := r.repo.List(ctx, domain.ListFilter{ModelType: modelType})
		if err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", modelType, err)
		}
		if len(versions) > policy.MaxVersionsPerType {
			add(versions[policy.MaxVersionsPerType:])
		}
	}
	if policy.MaxAge > 0 {
		old, err := r.repo.List(ctx, domain.ListFilter{
			ModelType:     modelType,
			CreatedBefore: r.now().Add(-policy.MaxAge),
		})
		if err != nil {
			return nil, fmt.Errorf("list expired versions of %s: %w", modelType, err)
		}
		add(old)
	}

	slices.SortFunc(victims, func(a, b *domain.ModelVersion) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(b.ID(), a.ID())
	})
	return victims, nil
}

// removeVersion deletes the row and its artifact together. The artifact is
// deleted before commit, so a failed delete keeps the row.
func (r *Registry) removeVersion(ctx context.Context, v *domain.ModelVersion) error {
	span := trace.SpanFromContext(ctx)
	err := r.repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Delete(ctx, v.VersionName()); err != nil {
			return err
		}
		if err := r.store.Delete(ctx, v.ArtifactKey()); err != nil {
			return fmt.Errorf("delete artifact %s: %w", v.ArtifactKey(), err)
		}
		span.AddEvent(tracing.EventArtifactRemoved, trace.WithAttributes(attribute.String(tracing.AttrArtifactKey, v.ArtifactKey())))
		return nil
	})
	if err != nil {
		log.ErrorErr(log.CatRegistry, "failed to prune version", err, "version", v.VersionName())
		return err
	}

	r.invalidateVersion(ctx, v.VersionName())
	span.AddEvent(tracing.EventVersionPruned, trace.WithAttributes(attribute.String(tracing.AttrVersionName, v.VersionName())))
	log.Info(log.CatRegistry, "version pruned", "version", v.VersionName(), "model_type", v.ModelType())
	return nil
}

// sweepOrphans removes artifacts in the codec's format that no version row
// references, such as those left by a process that died before committing its
// registration. It runs inside a write transaction, which registrations also
// hold from insert to commit, so an in-flight registration is never swept.
// Keys in other formats are left alone.
func (r *Registry) sweepOrphans(ctx context.Context, dryRun bool) ([]string, error) {
	span := trace.SpanFromContext(ctx)
	suffix := "." + r.codec.Format()

	orphans := []string{}
	err := r.repo.WithinTx(ctx, func(ctx context.Context, _ domain.Tx) error {
		keys, err := r.store.List(ctx)
		if err != nil {
			return fmt.Errorf("list artifacts: %w", err)
		}

		var errs []error
		for _, key := range keys {
			name, ok := strings.CutSuffix(key, suffix)
			if !ok || name == "" {
				continue
			}
			_, err := r.repo.FindByName(ctx, name)
			var notFound *domain.VersionNotFoundError
			if err == nil {
				continue
			}
			if !errors.As(err, &notFound) {
				errs = append(errs, fmt.Errorf("look up owner of %s: %w", key, err))
				continue
			}

			if !dryRun {
				if err := r.store.Delete(ctx, key); err != nil {
					errs = append(errs, fmt.Errorf("delete orphaned artifact %s: %w", key, err))
					continue
				}
				_ = r.models.Delete(ctx, name)
				span.AddEvent(tracing.EventOrphanRemoved, trace.WithAttributes(attribute.String(tracing.AttrArtifactKey, key)))
				log.Info(log.CatArtifact, "orphaned artifact removed", "key", key)
			}
			orphans = append(orphans, key)
		}
		return errors.Join(errs...)
	})
	if err != nil {
		log.ErrorErr(log.CatArtifact, "orphan sweep incomplete", err, "swept", len(orphans))
	}
	return orphans, err
}
