package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modelreg/internal/testutil"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// setupTestRepo creates a fresh database and returns its version repository.
func setupTestRepo(t *testing.T) (domain.Repository, *DB) {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.VersionRepository(), db
}

var baseTime = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func newTestVersion(t *testing.T, name, modelType string, createdAt time.Time) *domain.ModelVersion {
	t.Helper()
	v, err := domain.NewModelVersion(domain.NewVersionParams{
		VersionName:    name,
		ModelType:      modelType,
		ArtifactKey:    name + ".gob",
		ArtifactFormat: "gob",
		CreatedAt:      createdAt,
	})
	require.NoError(t, err)
	return v
}

func insert(t *testing.T, repo domain.Repository, versions ...*domain.ModelVersion) {
	t.Helper()
	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		for _, v := range versions {
			if err := tx.Insert(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestVersionRepository_InsertAssignsID(t *testing.T) {
	repo, _ := setupTestRepo(t)

	v1 := newTestVersion(t, "rf_1", "randomforest", baseTime)
	v2 := newTestVersion(t, "rf_2", "randomforest", baseTime.Add(time.Second))
	insert(t, repo, v1, v2)

	require.Greater(t, v1.ID(), int64(0))
	require.Greater(t, v2.ID(), v1.ID())
}

func TestVersionRepository_RoundTrip(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	v, err := domain.NewModelVersion(domain.NewVersionParams{
		VersionName:     "ensemble_20250303_100000",
		ModelType:       "ensemble",
		Description:     "home/away weighted",
		Hyperparameters: map[string]any{"n_estimators": 200, "criterion": "gini", "bootstrap": true},
		FeatureImportance: []domain.FeatureScore{
			{Feature: "venue_code", Importance: 0.2},
			{Feature: "gf_rolling", Importance: 0.5},
		},
		Metrics:        map[string]float64{"accuracy": 0.61, "precision": 0.58},
		ArtifactKey:    "ensemble_20250303_100000.gob",
		ArtifactFormat: "gob",
		CreatedAt:      baseTime.Add(123 * time.Nanosecond),
	})
	require.NoError(t, err)
	insert(t, repo, v)

	got, err := repo.FindByName(ctx, "ensemble_20250303_100000")
	require.NoError(t, err)
	require.Equal(t, v.ID(), got.ID())
	require.Equal(t, "ensemble", got.ModelType())
	require.Equal(t, "home/away weighted", got.Description())
	require.True(t, baseTime.Add(123*time.Nanosecond).Equal(got.CreatedAt()))
	require.Equal(t, "ensemble_20250303_100000.gob", got.ArtifactKey())
	require.Equal(t, "gob", got.ArtifactFormat())

	// JSON numbers decode as float64.
	require.Equal(t, map[string]any{"n_estimators": float64(200), "criterion": "gini", "bootstrap": true}, got.Hyperparameters())
	require.Equal(t, map[string]float64{"accuracy": 0.61, "precision": 0.58}, got.Metrics())
	require.Equal(t, []domain.FeatureScore{
		{Feature: "gf_rolling", Importance: 0.5},
		{Feature: "venue_code", Importance: 0.2},
	}, got.FeatureImportance())
}

func TestVersionRepository_NullableColumns(t *testing.T) {
	repo, db := setupTestRepo(t)
	insert(t, repo, newTestVersion(t, "baseline_1", "baseline", baseTime))

	var description, params, importance, metrics *string
	err := db.conn.QueryRow(
		`SELECT description, hyperparameters, feature_importance, metrics FROM model_versions WHERE version_name = ?`,
		"baseline_1",
	).Scan(&description, &params, &importance, &metrics)
	require.NoError(t, err)
	require.Nil(t, description)
	require.Nil(t, params)
	require.Nil(t, importance)
	require.Nil(t, metrics)

	got, err := repo.FindByName(context.Background(), "baseline_1")
	require.NoError(t, err)
	require.Empty(t, got.Description())
	require.Nil(t, got.Hyperparameters())
	require.False(t, got.HasFeatureImportance())
	require.Empty(t, got.Metrics())
}

func TestVersionRepository_DuplicateName(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insert(t, repo, newTestVersion(t, "rf_1", "randomforest", baseTime))

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.Insert(ctx, newTestVersion(t, "rf_1", "randomforest", baseTime.Add(time.Hour)))
	})
	var dupErr *domain.DuplicateVersionError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "rf_1", dupErr.VersionName)

	versions, err := repo.List(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, versions, 1)
}

func TestVersionRepository_FindByName_NotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.FindByName(context.Background(), "missing")
	var notFound *domain.VersionNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.VersionName)
}

func TestVersionRepository_Latest(t *testing.T) {
	repo, _ := setupTestRepo(t)
	testutil.NewBuilder(t, repo).
		WithVersion("rf_old", testutil.ModelType("randomforest")).
		WithVersion("rf_new", testutil.ModelType("randomforest"), testutil.After(time.Minute)).
		WithVersion("xgb_newest", testutil.ModelType("xgboost"), testutil.After(time.Hour)).
		Build()

	got, err := repo.Latest(context.Background(), "randomforest")
	require.NoError(t, err)
	require.Equal(t, "rf_new", got.VersionName())
}

func TestVersionRepository_Latest_TieBrokenByID(t *testing.T) {
	repo, _ := setupTestRepo(t)
	testutil.NewBuilder(t, repo).WithTiedTestData().Build()

	got, err := repo.Latest(context.Background(), "randomforest")
	require.NoError(t, err)
	require.Equal(t, "rf_b", got.VersionName(), "equal timestamps resolve to the later insert")
}

func TestVersionRepository_Latest_NoVersions(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.Latest(context.Background(), "randomforest")
	var noVersions *domain.NoVersionsError
	require.ErrorAs(t, err, &noVersions)
	require.Equal(t, "randomforest", noVersions.ModelType)
}

func TestVersionRepository_List(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	testutil.NewBuilder(t, repo).WithStandardTestData().Build()

	tests := []struct {
		name   string
		filter domain.ListFilter
		want   []string
	}{
		{"all newest first", domain.ListFilter{}, []string{"rf_3", "rf_2", "xgb_1", "rf_1"}},
		{"by type", domain.ListFilter{ModelType: "randomforest"}, []string{"rf_3", "rf_2", "rf_1"}},
		{"created before with type", domain.ListFilter{ModelType: "randomforest", CreatedBefore: testutil.Base.Add(3 * time.Minute)}, []string{"rf_2", "rf_1"}},
		{"created before", domain.ListFilter{CreatedBefore: testutil.Base.Add(2 * time.Minute)}, []string{"xgb_1", "rf_1"}},
		{"unknown type", domain.ListFilter{ModelType: "svm"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versions, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			names := []string{}
			for _, v := range versions {
				names = append(names, v.VersionName())
			}
			require.Equal(t, tt.want, names)
		})
	}
}

func TestVersionRepository_ModelTypes(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	types, err := repo.ModelTypes(ctx)
	require.NoError(t, err)
	require.Empty(t, types)

	testutil.NewBuilder(t, repo).WithStandardTestData().Build()

	types, err = repo.ModelTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"randomforest", "xgboost"}, types)
}

func TestVersionRepository_WithinTx_RollbackOnError(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	errArtifact := errors.New("artifact write failed")

	err := repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Insert(ctx, newTestVersion(t, "rf_1", "randomforest", baseTime)); err != nil {
			return err
		}
		return errArtifact
	})
	require.ErrorIs(t, err, errArtifact)

	_, err = repo.FindByName(ctx, "rf_1")
	var notFound *domain.VersionNotFoundError
	require.ErrorAs(t, err, &notFound, "row must not survive a rolled back transaction")
}

func TestVersionRepository_WithinTx_RollbackOnPanic(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	require.PanicsWithValue(t, "boom", func() {
		_ = repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
			_ = tx.Insert(ctx, newTestVersion(t, "rf_1", "randomforest", baseTime))
			panic("boom")
		})
	})

	versions, err := repo.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, versions)

	// The connection is still usable after the panic.
	insert(t, repo, newTestVersion(t, "rf_2", "randomforest", baseTime))
}

func TestVersionRepository_Delete(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	insert(t, repo,
		newTestVersion(t, "rf_1", "randomforest", baseTime),
		newTestVersion(t, "rf_2", "randomforest", baseTime.Add(time.Second)),
	)

	err := repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Delete(ctx, "rf_1")
	})
	require.NoError(t, err)

	versions, err := repo.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, "rf_2", versions[0].VersionName())

	err = repo.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Delete(ctx, "rf_1")
	})
	var notFound *domain.VersionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestVersionRepository_Close(t *testing.T) {
	repo, _ := setupTestRepo(t)
	require.NoError(t, repo.Close())
}
