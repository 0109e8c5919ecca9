package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/modelreg/internal/artifact"
	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/predictor"
	"github.com/zjrosen/modelreg/internal/tracing"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// Summary is the listing view of a version.
type Summary struct {
	ID           int64
	VersionName  string
	ModelType    string
	CreationDate time.Time
	Description  string
	Metrics      map[string]float64
}

func summarize(v *domain.ModelVersion) Summary {
	return Summary{
		ID:           v.ID(),
		VersionName:  v.VersionName(),
		ModelType:    v.ModelType(),
		CreationDate: v.CreatedAt(),
		Description:  v.Description(),
		Metrics:      v.Metrics(),
	}
}

// ListVersions returns versions newest first, restricted to modelType when it
// is not empty. Failures are logged and reported as an empty list.
func (r *Registry) ListVersions(ctx context.Context, modelType string) []Summary {
	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanListVersions, attribute.String(tracing.AttrModelType, modelType))

	versions, err := r.repo.List(ctx, domain.ListFilter{ModelType: modelType})
	if err != nil {
		tracing.Finish(span, tracing.ResultFailed, err)
		log.ErrorErr(log.CatRegistry, "failed to list versions", err, "model_type", modelType)
		return []Summary{}
	}
	span.SetAttributes(attribute.Int(tracing.AttrCount, len(versions)))
	tracing.Finish(span, tracing.ResultOK, nil)

	out := make([]Summary, 0, len(versions))
	for _, v := range versions {
		out = append(out, summarize(v))
	}
	return out
}

// LatestVersion returns the name of the newest version of modelType.
func (r *Registry) LatestVersion(ctx context.Context, modelType string) (string, bool) {
	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanLatestVersion, attribute.String(tracing.AttrModelType, modelType))

	name, err := r.latestName(ctx, modelType)
	if err != nil {
		var none *domain.NoVersionsError
		if errors.As(err, &none) {
			tracing.Finish(span, tracing.ResultNotFound, nil)
			log.Debug(log.CatRegistry, "no versions for model type", "model_type", modelType)
			return "", false
		}
		tracing.Finish(span, tracing.ResultFailed, err)
		log.ErrorErr(log.CatRegistry, "failed to resolve latest version", err, "model_type", modelType)
		return "", false
	}
	span.SetAttributes(attribute.String(tracing.AttrVersionName, name))
	tracing.Finish(span, tracing.ResultOK, nil)
	return name, true
}

func (r *Registry) latestName(ctx context.Context, modelType string) (string, error) {
	return r.latest.Get(ctx, modelType, modelType, r.ttl)
}

// VersionDetails returns the full record of one version.
func (r *Registry) VersionDetails(ctx context.Context, versionName string) (*domain.ModelVersion, bool) {
	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanVersionDetails, attribute.String(tracing.AttrVersionName, versionName))

	v, err := r.details.GetWithRefresh(ctx, versionName, versionName, r.ttl)
	if err != nil {
		var nf *domain.VersionNotFoundError
		if errors.As(err, &nf) {
			tracing.Finish(span, tracing.ResultNotFound, nil)
			return nil, false
		}
		tracing.Finish(span, tracing.ResultFailed, err)
		log.ErrorErr(log.CatRegistry, "failed to fetch version details", err, "version", versionName)
		return nil, false
	}
	tracing.Finish(span, tracing.ResultOK, nil)
	return v, true
}

// LoadRef selects the version Load returns. VersionName wins over ModelType;
// ModelType alone selects the latest version of that type.
type LoadRef struct {
	VersionName string
	ModelType   string
}

// Load returns the model stored for ref. Every failure, including a missing
// version or an unreadable artifact, is logged and reported as absent.
func (r *Registry) Load(ctx context.Context, ref LoadRef) (predictor.Model, bool) {
	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanLoad,
		attribute.String(tracing.AttrVersionName, ref.VersionName),
		attribute.String(tracing.AttrModelType, ref.ModelType),
	)

	m, result, err := r.load(ctx, span, ref)
	tracing.Finish(span, result, err)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "failed to load model", err, "version", ref.VersionName, "model_type", ref.ModelType)
		return nil, false
	}
	if m == nil {
		log.Warn(log.CatRegistry, "model not found", "version", ref.VersionName, "model_type", ref.ModelType)
		return nil, false
	}
	return m, true
}

func (r *Registry) load(ctx context.Context, span trace.Span, ref LoadRef) (predictor.Model, string, error) {
	name := ref.VersionName
	if name == "" {
		if ref.ModelType == "" {
			return nil, tracing.ResultFailed, ErrInsufficientArguments
		}
		latest, err := r.latestName(ctx, ref.ModelType)
		if err != nil {
			var none *domain.NoVersionsError
			if errors.As(err, &none) {
				return nil, tracing.ResultNotFound, nil
			}
			return nil, tracing.ResultFailed, err
		}
		name = latest
		span.SetAttributes(attribute.String(tracing.AttrVersionName, name))
	}

	if r.cached {
		if m, ok := r.models.Get(ctx, name); ok {
			span.AddEvent(tracing.EventCacheHit)
			return m, tracing.ResultOK, nil
		}
	}

	v, err := r.details.GetWithRefresh(ctx, name, name, r.ttl)
	if err != nil {
		var nf *domain.VersionNotFoundError
		if errors.As(err, &nf) {
			return nil, tracing.ResultNotFound, nil
		}
		return nil, tracing.ResultFailed, err
	}
	span.SetAttributes(attribute.String(tracing.AttrArtifactKey, v.ArtifactKey()))

	m, err := r.readArtifact(ctx, v)
	if err != nil {
		return nil, tracing.ResultFailed, err
	}
	if r.cached {
		r.models.Set(ctx, name, m, r.ttl)
	}
	return m, tracing.ResultOK, nil
}

func (r *Registry) readArtifact(ctx context.Context, v *domain.ModelVersion) (predictor.Model, error) {
	if v.ArtifactFormat() != r.codec.Format() {
		return nil, fmt.Errorf("artifact format %q is not supported by codec %q", v.ArtifactFormat(), r.codec.Format())
	}
	rc, err := r.store.Open(ctx, v.ArtifactKey())
	if err != nil {
		if errors.Is(err, artifact.ErrNotExist) {
			log.Warn(log.CatArtifact, "artifact missing for registered version", "version", v.VersionName(), "key", v.ArtifactKey())
		}
		return nil, err
	}
	defer rc.Close()

	m, err := r.codec.Decode(rc)
	if err != nil {
		if errors.Is(err, artifact.ErrMalformed) {
			log.Warn(log.CatArtifact, "artifact is malformed", "version", v.VersionName(), "key", v.ArtifactKey())
		}
		return nil, err
	}
	return m, nil
}

// ModelTypes returns every model type with at least one version, sorted.
func (r *Registry) ModelTypes(ctx context.Context) []string {
	types, err := r.repo.ModelTypes(ctx)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "failed to list model types", err)
		return []string{}
	}
	return types
}

// InvalidateArtifact drops cached state derived from the artifact stored under
// key. It is called when the artifact changes outside this process.
func (r *Registry) InvalidateArtifact(ctx context.Context, key string) {
	name, ok := strings.CutSuffix(key, "."+r.codec.Format())
	if !ok {
		return
	}
	r.invalidateVersion(ctx, name)
	// A new artifact may belong to any type, so every cached latest name is suspect.
	r.latest.InvalidatePrefix(ctx, "")
	log.Debug(log.CatCache, "invalidated cached version", "version", name)
}
