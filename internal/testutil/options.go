package testutil

import (
	"time"

	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// Base is the creation time of fixtures that set no CreatedAt.
var Base = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

// Score creates a FeatureScore.
func Score(feature string, importance float64) domain.FeatureScore {
	return domain.FeatureScore{Feature: feature, Importance: importance}
}

// defaultVersion returns params with sensible defaults: model type taken from
// the name prefix before the first underscore and a gob artifact named after the version.
func defaultVersion(name string) domain.NewVersionParams {
	modelType := name
	for i, r := range name {
		if r == '_' {
			modelType = name[:i]
			break
		}
	}
	return domain.NewVersionParams{
		VersionName:    name,
		ModelType:      modelType,
		ArtifactKey:    name + ".gob",
		ArtifactFormat: "gob",
		CreatedAt:      Base,
	}
}

// VersionOption configures a version during builder setup.
type VersionOption func(*domain.NewVersionParams)

// ModelType overrides the model type derived from the name.
func ModelType(t string) VersionOption {
	return func(p *domain.NewVersionParams) { p.ModelType = t }
}

// Description sets the version description.
func Description(desc string) VersionOption {
	return func(p *domain.NewVersionParams) { p.Description = desc }
}

// CreatedAt sets the creation timestamp.
func CreatedAt(t time.Time) VersionOption {
	return func(p *domain.NewVersionParams) { p.CreatedAt = t }
}

// After sets the creation timestamp to Base plus d.
func After(d time.Duration) VersionOption {
	return CreatedAt(Base.Add(d))
}

// Param sets one hyperparameter.
func Param(key string, value any) VersionOption {
	return func(p *domain.NewVersionParams) {
		if p.Hyperparameters == nil {
			p.Hyperparameters = map[string]any{}
		}
		p.Hyperparameters[key] = value
	}
}

// Metric sets one evaluation metric.
func Metric(key string, value float64) VersionOption {
	return func(p *domain.NewVersionParams) {
		if p.Metrics == nil {
			p.Metrics = map[string]float64{}
		}
		p.Metrics[key] = value
	}
}

// Importance sets the feature importance table.
func Importance(scores ...domain.FeatureScore) VersionOption {
	return func(p *domain.NewVersionParams) { p.FeatureImportance = scores }
}

// Artifact sets the artifact key and format.
func Artifact(key, format string) VersionOption {
	return func(p *domain.NewVersionParams) {
		p.ArtifactKey = key
		p.ArtifactFormat = format
	}
}
