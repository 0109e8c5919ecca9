// Package domain provides the pure domain layer for model versions with no infrastructure dependencies.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code with standard library imports
//   - Defines the ModelVersion entity with encapsulated, immutable state
//   - Defines the Repository interface for persistence abstraction
//   - Provides domain-specific error types
//
// A model version is created exactly once and never mutated afterwards; the
// only state change the domain allows is assigning the persistence ID.
package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// VersionNameLayout is the timestamp layout appended to generated version names.
const VersionNameLayout = "20060102_150405"

// ModelVersion is one immutable registration event pairing an artifact with metadata.
// All fields are unexported to enforce encapsulation; use the constructor
// and getter methods to access data.
type ModelVersion struct {
	id          int64
	versionName string
	modelType   string
	description string

	hyperparameters   map[string]any
	featureImportance []FeatureScore
	metrics           map[string]float64

	// Artifact location in the artifact store
	artifactKey    string
	artifactFormat string

	createdAt time.Time
}

// NewVersionParams holds the inputs for NewModelVersion.
type NewVersionParams struct {
	VersionName       string
	ModelType         string
	Description       string
	Hyperparameters   map[string]any
	FeatureImportance []FeatureScore
	Metrics           map[string]float64
	ArtifactKey       string
	ArtifactFormat    string
	CreatedAt         time.Time
}

// NewModelVersion creates a new ModelVersion ready to be inserted.
// The ID is left as zero; it will be assigned by the persistence layer.
// Maps and slices are copied so later caller mutations cannot leak in.
func NewModelVersion(p NewVersionParams) (*ModelVersion, error) {
	if strings.TrimSpace(p.ModelType) == "" {
		return nil, fmt.Errorf("model type is required")
	}
	if strings.TrimSpace(p.VersionName) == "" {
		return nil, fmt.Errorf("version name is required")
	}
	if p.ArtifactKey == "" {
		return nil, fmt.Errorf("artifact key is required")
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &ModelVersion{
		versionName:       p.VersionName,
		modelType:         p.ModelType,
		description:       p.Description,
		hyperparameters:   maps.Clone(p.Hyperparameters),
		featureImportance: SortImportance(p.FeatureImportance),
		metrics:           maps.Clone(p.Metrics),
		artifactKey:       p.ArtifactKey,
		artifactFormat:    p.ArtifactFormat,
		createdAt:         createdAt.UTC(),
	}, nil
}

// ReconstituteModelVersion rebuilds a ModelVersion from persisted state.
// It performs no validation; stored rows are trusted.
func ReconstituteModelVersion(
	id int64,
	versionName string,
	modelType string,
	description string,
	hyperparameters map[string]any,
	featureImportance []FeatureScore,
	metrics map[string]float64,
	artifactKey string,
	artifactFormat string,
	createdAt time.Time,
) *ModelVersion {
	return &ModelVersion{
		id:                id,
		versionName:       versionName,
		modelType:         modelType,
		description:       description,
		hyperparameters:   hyperparameters,
		featureImportance: featureImportance,
		metrics:           metrics,
		artifactKey:       artifactKey,
		artifactFormat:    artifactFormat,
		createdAt:         createdAt.UTC(),
	}
}

// GenerateVersionName returns the default version name "{modelType}_{YYYYMMDD_HHMMSS}".
// Two calls within the same second for the same model type collide.
func GenerateVersionName(modelType string, now time.Time) string {
	return modelType + "_" + now.UTC().Format(VersionNameLayout)
}

// ID returns the persistence ID (0 until stored).
func (v *ModelVersion) ID() int64 {
	return v.id
}

func (v *ModelVersion) VersionName() string {
	return v.versionName
}

func (v *ModelVersion) ModelType() string {
	return v.modelType
}

func (v *ModelVersion) Description() string {
	return v.description
}

// ArtifactKey returns the key of the serialized model in the artifact store.
func (v *ModelVersion) ArtifactKey() string {
	return v.artifactKey
}

func (v *ModelVersion) ArtifactFormat() string {
	return v.artifactFormat
}

// CreatedAt returns the registration time in UTC.
func (v *ModelVersion) CreatedAt() time.Time {
	return v.createdAt
}

// Hyperparameters returns a copy of the stored hyperparameters (nil when none were recorded).
func (v *ModelVersion) Hyperparameters() map[string]any {
	return maps.Clone(v.hyperparameters)
}

// FeatureImportance returns a copy of the importance table, highest score first.
func (v *ModelVersion) FeatureImportance() []FeatureScore {
	return slices.Clone(v.featureImportance)
}

// Metrics returns a copy of the evaluation metrics. Never nil.
func (v *ModelVersion) Metrics() map[string]float64 {
	if v.metrics == nil {
		return map[string]float64{}
	}
	return maps.Clone(v.metrics)
}

// HasFeatureImportance reports whether importance data was recorded.
func (v *ModelVersion) HasFeatureImportance() bool {
	return len(v.featureImportance) > 0
}

// SetID assigns the persistence ID. It is only valid on a version that has not been stored yet.
func (v *ModelVersion) SetID(id int64) {
	if v.id != 0 {
		return
	}
	v.id = id
}
