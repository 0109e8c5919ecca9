package domain

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewModelVersion_Defaults(t *testing.T) {
	v, err := NewModelVersion(NewVersionParams{
		VersionName: "ensemble_20250303_100000",
		ModelType:   "ensemble",
		ArtifactKey: "ensemble_20250303_100000.gob",
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), v.ID(), "New version should have ID 0")
	require.Equal(t, "ensemble", v.ModelType())
	require.False(t, v.CreatedAt().IsZero(), "CreatedAt should default to now")
	require.Equal(t, time.UTC, v.CreatedAt().Location())
	require.NotNil(t, v.Metrics(), "Metrics should never be nil")
	require.Empty(t, v.Metrics())
	require.Nil(t, v.Hyperparameters())
	require.False(t, v.HasFeatureImportance())
}

func TestNewModelVersion_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params NewVersionParams
		errMsg string
	}{
		{"missing type", NewVersionParams{VersionName: "a", ArtifactKey: "a.gob"}, "model type"},
		{"blank type", NewVersionParams{ModelType: "  ", VersionName: "a", ArtifactKey: "a.gob"}, "model type"},
		{"missing name", NewVersionParams{ModelType: "rf", ArtifactKey: "a.gob"}, "version name"},
		{"missing artifact", NewVersionParams{ModelType: "rf", VersionName: "a"}, "artifact key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModelVersion(tt.params)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewModelVersion_CopiesInputs(t *testing.T) {
	params := map[string]any{"n_estimators": 200}
	metrics := map[string]float64{"accuracy": 0.61}
	v, err := NewModelVersion(NewVersionParams{
		VersionName:     "rf_1",
		ModelType:       "randomforest",
		ArtifactKey:     "rf_1.gob",
		Hyperparameters: params,
		Metrics:         metrics,
	})
	require.NoError(t, err)

	params["n_estimators"] = 1
	metrics["accuracy"] = 0
	require.Equal(t, 200, v.Hyperparameters()["n_estimators"])
	require.Equal(t, 0.61, v.Metrics()["accuracy"])

	got := v.Metrics()
	got["f1"] = 1
	require.NotContains(t, v.Metrics(), "f1", "getter should return a copy")
}

func TestModelVersion_SetIDOnce(t *testing.T) {
	v, err := NewModelVersion(NewVersionParams{VersionName: "a", ModelType: "t", ArtifactKey: "a.gob"})
	require.NoError(t, err)
	v.SetID(7)
	v.SetID(9)
	require.Equal(t, int64(7), v.ID())
}

func TestGenerateVersionName(t *testing.T) {
	now := time.Date(2025, 3, 3, 10, 4, 5, 999, time.FixedZone("CET", 3600))
	require.Equal(t, "ensemble_20250303_090405", GenerateVersionName("ensemble", now))
}

var timestampToken = regexp.MustCompile(`^\d{8}_\d{6}$`)

// Property: a generated name is "{type}_" followed by a 15-character timestamp token.
func TestGenerateVersionName_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		modelType := rapid.StringMatching(`[a-z][a-z0-9_]{0,20}`).Draw(t, "modelType")
		sec := rapid.Int64Range(0, 4102444800).Draw(t, "unix")
		name := GenerateVersionName(modelType, time.Unix(sec, 0))

		require.True(t, strings.HasPrefix(name, modelType+"_"))
		token := strings.TrimPrefix(name, modelType+"_")
		require.Len(t, token, 15)
		require.Regexp(t, timestampToken, token)
	})
}

func TestSortImportance(t *testing.T) {
	sorted := SortImportance([]FeatureScore{
		{"venue_code", 0.1},
		{"gf_rolling", 0.4},
		{"opp_code", 0.1},
		{"sot_rolling", 0.25},
	})
	require.Equal(t, []FeatureScore{
		{"gf_rolling", 0.4},
		{"sot_rolling", 0.25},
		{"opp_code", 0.1},
		{"venue_code", 0.1},
	}, sorted)
	require.Nil(t, SortImportance(nil))
}

func TestZipImportance_MismatchedLengths(t *testing.T) {
	got := ZipImportance([]string{"a", "b", "c"}, []float64{0.2, 0.8})
	require.Equal(t, []FeatureScore{{"b", 0.8}, {"a", 0.2}}, got)
	require.Nil(t, ZipImportance(nil, []float64{1}))
}

// Property: sorting is a permutation ordered by importance descending.
func TestSortImportance_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		in := make([]FeatureScore, n)
		for i := range in {
			in[i] = FeatureScore{
				Feature:    rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "feature"),
				Importance: rapid.Float64Range(0, 1).Draw(t, "importance"),
			}
		}
		out := SortImportance(in)
		require.Len(t, out, n)
		for i := 1; i < len(out); i++ {
			require.GreaterOrEqual(t, out[i-1].Importance, out[i].Importance)
		}
		require.ElementsMatch(t, in, out)
	})
}

func TestErrors(t *testing.T) {
	require.Equal(t, "model version not found: x", (&VersionNotFoundError{VersionName: "x"}).Error())
	require.Equal(t, "no versions registered for model type: rf", (&NoVersionsError{ModelType: "rf"}).Error())
	require.Equal(t, "model version already exists: x", (&DuplicateVersionError{VersionName: "x"}).Error())
}
