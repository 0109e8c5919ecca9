package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// VersionModel represents the database row for the model_versions table.
// Structured fields are stored as JSON text; creation_date is Unix nanoseconds.
type VersionModel struct {
	ID                int64
	VersionName       string
	ModelType         string
	CreationDate      int64
	Description       *string // nullable
	Hyperparameters   *string // nullable, JSON object
	FeatureImportance *string // nullable, JSON array of {feature, importance}
	Metrics           *string // nullable, JSON object
	ArtifactKey       string
	ArtifactFormat    string
}

// toVersionModel converts a domain ModelVersion to a database VersionModel.
func toVersionModel(v *domain.ModelVersion) (*VersionModel, error) {
	m := &VersionModel{
		ID:             v.ID(),
		VersionName:    v.VersionName(),
		ModelType:      v.ModelType(),
		CreationDate:   v.CreatedAt().UnixNano(),
		ArtifactKey:    v.ArtifactKey(),
		ArtifactFormat: v.ArtifactFormat(),
	}
	if v.Description() != "" {
		description := v.Description()
		m.Description = &description
	}
	if params := v.Hyperparameters(); len(params) > 0 {
		encoded, err := encodeJSON(params)
		if err != nil {
			return nil, fmt.Errorf("encoding hyperparameters: %w", err)
		}
		m.Hyperparameters = encoded
	}
	if v.HasFeatureImportance() {
		encoded, err := encodeJSON(v.FeatureImportance())
		if err != nil {
			return nil, fmt.Errorf("encoding feature importance: %w", err)
		}
		m.FeatureImportance = encoded
	}
	if metrics := v.Metrics(); len(metrics) > 0 {
		encoded, err := encodeJSON(metrics)
		if err != nil {
			return nil, fmt.Errorf("encoding metrics: %w", err)
		}
		m.Metrics = encoded
	}
	return m, nil
}

// toDomain converts a database VersionModel to a domain ModelVersion.
// Undecodable JSON columns are treated as absent.
func (m *VersionModel) toDomain() *domain.ModelVersion {
	var description string
	if m.Description != nil {
		description = *m.Description
	}
	var params map[string]any
	if m.Hyperparameters != nil {
		_ = json.Unmarshal([]byte(*m.Hyperparameters), &params)
	}
	var importance []domain.FeatureScore
	if m.FeatureImportance != nil {
		_ = json.Unmarshal([]byte(*m.FeatureImportance), &importance)
	}
	var metrics map[string]float64
	if m.Metrics != nil {
		_ = json.Unmarshal([]byte(*m.Metrics), &metrics)
	}
	return domain.ReconstituteModelVersion(
		m.ID,
		m.VersionName,
		m.ModelType,
		description,
		params,
		importance,
		metrics,
		m.ArtifactKey,
		m.ArtifactFormat,
		time.Unix(0, m.CreationDate),
	)
}

func encodeJSON(v any) (*string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
