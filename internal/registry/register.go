package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/modelreg/internal/artifact"
	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/predictor"
	"github.com/zjrosen/modelreg/internal/tracing"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// RegisterOptions describes a registration. ModelType is required.
type RegisterOptions struct {
	ModelType string
	// VersionName defaults to "{ModelType}_{YYYYMMDD_HHMMSS}" in UTC.
	VersionName     string
	Description     string
	Hyperparameters map[string]any
	Metrics         map[string]float64
}

// Register stores model as a new version and returns its name.
// On failure nothing is persisted and the error is a *RegistrationError.
func (r *Registry) Register(ctx context.Context, model predictor.Model, opts RegisterOptions) (string, error) {
	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanRegister, attribute.String(tracing.AttrModelType, opts.ModelType))

	name, err := r.register(ctx, span, model, opts)
	tracing.Finish(span, tracing.ResultOK, err)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "registration failed", err, "model_type", opts.ModelType, "version", name)
		return "", err
	}

	log.Info(log.CatRegistry, "model registered", "model_type", opts.ModelType, "version", name)
	r.invalidateType(ctx, opts.ModelType)

	if !r.retention.IsZero() {
		if _, err := r.pruneType(ctx, opts.ModelType, r.retention, false); err != nil {
			log.ErrorErr(log.CatRegistry, "retention after registration failed", err, "model_type", opts.ModelType)
		}
	}
	return name, nil
}

func (r *Registry) register(ctx context.Context, span trace.Span, model predictor.Model, opts RegisterOptions) (string, error) {
	now := r.now()
	name := opts.VersionName
	if name == "" && strings.TrimSpace(opts.ModelType) != "" {
		name = domain.GenerateVersionName(opts.ModelType, now)
	}
	span.SetAttributes(attribute.String(tracing.AttrVersionName, name))
	fail := func(stage Stage, err error) (string, error) {
		span.SetAttributes(attribute.String(tracing.AttrStage, string(stage)))
		return name, &RegistrationError{VersionName: name, Stage: stage, Err: err}
	}

	if err := predictor.Validate(model); err != nil {
		return fail(StageValidate, err)
	}
	if err := validateVersionName(name); err != nil {
		return fail(StageValidate, err)
	}

	importance := predictor.ResolveImportance(model)
	key := artifact.Key(name, r.codec.Format())
	version, err := domain.NewModelVersion(domain.NewVersionParams{
		VersionName:       name,
		ModelType:         opts.ModelType,
		Description:       opts.Description,
		Hyperparameters:   opts.Hyperparameters,
		FeatureImportance: importance.Scores,
		Metrics:           opts.Metrics,
		ArtifactKey:       key,
		ArtifactFormat:    r.codec.Format(),
		CreatedAt:         now,
	})
	if err != nil {
		return fail(StageValidate, err)
	}
	log.Debug(log.CatRegistry, "feature importance resolved", "version", name, "source", string(importance.Source), "features", len(importance.Scores))

	var payload bytes.Buffer
	if err := r.codec.Encode(&payload, model); err != nil {
		return fail(StageEncode, err)
	}

	stage := StageInsert
	err = r.repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Insert(ctx, version); err != nil {
			return err
		}
		span.AddEvent(tracing.EventRowInserted)

		stage = StageArtifact
		if err := r.store.Put(ctx, key, &payload); err != nil {
			return err
		}
		span.AddEvent(tracing.EventArtifactWritten, trace.WithAttributes(attribute.String(tracing.AttrArtifactKey, key)))

		stage = StageCommit
		return nil
	})
	if err != nil {
		if stage != StageInsert {
			// The row is gone; the artifact must go too. The insert succeeded, so no
			// committed version owns this key.
			span.AddEvent(tracing.EventRollbackArtifact)
			if delErr := r.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
				log.ErrorErr(log.CatArtifact, "failed to remove artifact of rolled back registration", delErr, "key", key)
			}
		}
		return fail(stage, err)
	}
	return name, nil
}

// validateVersionName rejects names that cannot be used as artifact keys.
func validateVersionName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("model type or version name is required")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("version name %q must not contain path separators", name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("version name %q must not start with a dot", name)
	}
	return nil
}
