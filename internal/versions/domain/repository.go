package domain

import (
	"context"
	"time"
)

// ListFilter provides filtering options for listing versions.
type ListFilter struct {
	// ModelType restricts results to one model type.
	// If empty, all types are included.
	ModelType string

	// CreatedBefore restricts results to versions created strictly before this time.
	// If zero, no time filtering is applied.
	CreatedBefore time.Time
}

// Tx is a scoped transactional handle. It is only valid inside Repository.WithinTx.
type Tx interface {
	// Insert stores a new version and assigns its ID.
	// Returns DuplicateVersionError if the version name is taken.
	Insert(ctx context.Context, version *ModelVersion) error

	// Delete removes a version row by name.
	// Returns VersionNotFoundError if no matching version exists.
	Delete(ctx context.Context, versionName string) error
}

// Repository defines the persistence interface for ModelVersion entities.
type Repository interface {
	// WithinTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back when fn returns an error or panics.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// FindByName retrieves a version by its unique name.
	// Returns VersionNotFoundError if no matching version exists.
	FindByName(ctx context.Context, versionName string) (*ModelVersion, error)

	// Latest retrieves the version with the greatest creation date for a model type,
	// ties broken by the greater ID.
	// Returns NoVersionsError if the type has no versions.
	Latest(ctx context.Context, modelType string) (*ModelVersion, error)

	// List retrieves versions matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*ModelVersion, error)

	// ModelTypes returns the distinct model types, sorted.
	ModelTypes(ctx context.Context) ([]string, error)

	// Close releases any resources held by the repository.
	Close() error
}
