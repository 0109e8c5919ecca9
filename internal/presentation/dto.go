package presentation

import (
	"time"

	"github.com/zjrosen/modelreg/internal/registry"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// TimeLayout is the ISO-8601 layout used for creation dates.
const TimeLayout = time.RFC3339

// SummaryDTO represents one version in a listing
type SummaryDTO struct {
	ID           int64              `json:"id"`
	VersionName  string             `json:"version_name"`
	ModelType    string             `json:"model_type"`
	CreationDate string             `json:"creation_date"`
	Description  string             `json:"description"`
	Metrics      map[string]float64 `json:"metrics"`
}

// FeatureScoreDTO is one row of a feature importance table
type FeatureScoreDTO struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// DetailDTO represents the full record of one version
type DetailDTO struct {
	ID                int64              `json:"id"`
	VersionName       string             `json:"version_name"`
	ModelType         string             `json:"model_type"`
	CreationDate      string             `json:"creation_date"`
	Description       string             `json:"description"`
	Hyperparameters   map[string]any     `json:"hyperparameters"`
	FeatureImportance []FeatureScoreDTO  `json:"feature_importance"`
	Metrics           map[string]float64 `json:"metrics"`
	ArtifactKey       string             `json:"artifact_key"`
	ArtifactFormat    string             `json:"artifact_format"`
}

// VersionListDTO wraps a listing with its size
type VersionListDTO struct {
	Versions []SummaryDTO `json:"versions"`
	Total    int          `json:"total"`
}

// FromSummary converts a registry summary to a DTO.
// Absent metrics become an empty object rather than null.
func FromSummary(s registry.Summary) SummaryDTO {
	return SummaryDTO{
		ID:           s.ID,
		VersionName:  s.VersionName,
		ModelType:    s.ModelType,
		CreationDate: s.CreationDate.UTC().Format(TimeLayout),
		Description:  s.Description,
		Metrics:      nonNilMetrics(s.Metrics),
	}
}

// FromSummaries converts a listing, preserving its order
func FromSummaries(summaries []registry.Summary) VersionListDTO {
	dtos := make([]SummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = FromSummary(s)
	}
	return VersionListDTO{Versions: dtos, Total: len(dtos)}
}

// FromVersion converts a domain version to a DetailDTO
func FromVersion(v *domain.ModelVersion) DetailDTO {
	importance := make([]FeatureScoreDTO, 0, len(v.FeatureImportance()))
	for _, s := range v.FeatureImportance() {
		importance = append(importance, FeatureScoreDTO{Feature: s.Feature, Importance: s.Importance})
	}
	params := v.Hyperparameters()
	if params == nil {
		params = map[string]any{}
	}
	return DetailDTO{
		ID:                v.ID(),
		VersionName:       v.VersionName(),
		ModelType:         v.ModelType(),
		CreationDate:      v.CreatedAt().UTC().Format(TimeLayout),
		Description:       v.Description(),
		Hyperparameters:   params,
		FeatureImportance: importance,
		Metrics:           nonNilMetrics(v.Metrics()),
		ArtifactKey:       v.ArtifactKey(),
		ArtifactFormat:    v.ArtifactFormat(),
	}
}

func nonNilMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
