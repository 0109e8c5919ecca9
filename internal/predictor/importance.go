package predictor

import (
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// ImportanceReporter is implemented by models that compute their own importance table.
type ImportanceReporter interface {
	FeatureImportance() []domain.FeatureScore
}

// ImportanceArrays is implemented by models that expose importance as two
// parallel arrays: one score per input feature and the feature names.
type ImportanceArrays interface {
	FeatureImportances() []float64
	FeatureNamesIn() []string
}

// ImportanceSource records which capability produced an importance table.
type ImportanceSource string

const (
	SourceMethod ImportanceSource = "method"
	SourceArrays ImportanceSource = "arrays"
	SourceNone   ImportanceSource = "none"
)

// Importance is the resolved importance of a model.
// Scores is sorted by importance descending and is nil when Source is SourceNone.
type Importance struct {
	Source ImportanceSource
	Scores []domain.FeatureScore
}

// ResolveImportance extracts feature importance from m.
// The method variant wins over the arrays variant; a model offering neither,
// or offering only empty data, resolves to SourceNone.
func ResolveImportance(m Model) Importance {
	switch v := m.(type) {
	case ImportanceReporter:
		if scores := domain.SortImportance(v.FeatureImportance()); len(scores) > 0 {
			return Importance{Source: SourceMethod, Scores: scores}
		}
	case ImportanceArrays:
		if scores := domain.ZipImportance(v.FeatureNamesIn(), v.FeatureImportances()); len(scores) > 0 {
			return Importance{Source: SourceArrays, Scores: scores}
		}
	}
	return Importance{Source: SourceNone}
}
