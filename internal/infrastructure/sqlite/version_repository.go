package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/go-sqlite3"

	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// versionColumns is the list of columns to select for version queries.
const versionColumns = `id, version_name, model_type, creation_date, description,
	hyperparameters, feature_importance, metrics, artifact_key, artifact_format`

// versionRepository implements domain.Repository using SQLite.
type versionRepository struct {
	db *sql.DB
}

// newVersionRepository creates a new versionRepository instance.
func newVersionRepository(db *sql.DB) *versionRepository {
	return &versionRepository{db: db}
}

// Ensure versionRepository implements domain.Repository.
var _ domain.Repository = (*versionRepository)(nil)

// scanVersion scans a row into a VersionModel.
func scanVersion(scanner interface{ Scan(...any) error }) (*VersionModel, error) {
	var model VersionModel
	err := scanner.Scan(
		&model.ID, &model.VersionName, &model.ModelType, &model.CreationDate, &model.Description,
		&model.Hyperparameters, &model.FeatureImportance, &model.Metrics,
		&model.ArtifactKey, &model.ArtifactFormat,
	)
	return &model, err
}

// WithinTx runs fn in a transaction that is always released: committed when fn
// returns nil, rolled back when fn returns an error or panics.
func (r *versionRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.ErrorErr(log.CatDB, "rollback failed", rbErr)
		}
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err := fn(ctx, &versionTx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// FindByName retrieves a version by its unique name.
// Returns VersionNotFoundError if no matching version exists.
func (r *versionRepository) FindByName(ctx context.Context, versionName string) (*domain.ModelVersion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM model_versions WHERE version_name = ?`,
		versionName,
	)
	model, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.VersionNotFoundError{VersionName: versionName}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find version by name: %w", err)
	}
	return model.toDomain(), nil
}

// Latest retrieves the newest version for a model type.
// Returns NoVersionsError if the type has no versions.
func (r *versionRepository) Latest(ctx context.Context, modelType string) (*domain.ModelVersion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM model_versions
		 WHERE model_type = ?
		 ORDER BY creation_date DESC, id DESC
		 LIMIT 1`,
		modelType,
	)
	model, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NoVersionsError{ModelType: modelType}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}
	return model.toDomain(), nil
}

// List retrieves versions matching the filter criteria.
// Results are ordered by creation_date descending (newest first).
func (r *versionRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ModelVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM model_versions WHERE 1 = 1`
	var args []any

	if filter.ModelType != "" {
		query += ` AND model_type = ?`
		args = append(args, filter.ModelType)
	}
	if !filter.CreatedBefore.IsZero() {
		query += ` AND creation_date < ?`
		args = append(args, filter.CreatedBefore.UnixNano())
	}

	query += ` ORDER BY creation_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	versions := []*domain.ModelVersion{}
	for rows.Next() {
		model, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		versions = append(versions, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating version rows: %w", err)
	}
	return versions, nil
}

// ModelTypes returns the distinct model types, sorted.
func (r *versionRepository) ModelTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT model_type FROM model_versions ORDER BY model_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list model types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan model type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model types: %w", err)
	}
	return types, nil
}

// Close releases any resources held by the repository.
// This is a no-op because the connection is owned by the DB struct.
func (r *versionRepository) Close() error {
	return nil
}

// versionTx implements domain.Tx on a *sql.Tx.
type versionTx struct {
	tx *sql.Tx
}

// Insert stores a new version and assigns its ID.
func (t *versionTx) Insert(ctx context.Context, version *domain.ModelVersion) error {
	model, err := toVersionModel(version)
	if err != nil {
		return err
	}
	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO model_versions (
			version_name, model_type, creation_date, description,
			hyperparameters, feature_importance, metrics, artifact_key, artifact_format
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model.VersionName, model.ModelType, model.CreationDate, model.Description,
		model.Hyperparameters, model.FeatureImportance, model.Metrics,
		model.ArtifactKey, model.ArtifactFormat,
	)
	if isUniqueViolation(err) {
		return &domain.DuplicateVersionError{VersionName: version.VersionName()}
	}
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	version.SetID(id)
	return nil
}

// Delete removes a version row by name.
func (t *versionTx) Delete(ctx context.Context, versionName string) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM model_versions WHERE version_name = ?`, versionName)
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.VersionNotFoundError{VersionName: versionName}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
