package domain

import "fmt"

// VersionNotFoundError is returned when a version name does not exist.
type VersionNotFoundError struct {
	VersionName string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("model version not found: %s", e.VersionName)
}

// NoVersionsError is returned when a model type has no registered versions.
type NoVersionsError struct {
	ModelType string
}

func (e *NoVersionsError) Error() string {
	return fmt.Sprintf("no versions registered for model type: %s", e.ModelType)
}

// DuplicateVersionError is returned when inserting a version whose name is taken.
type DuplicateVersionError struct {
	VersionName string
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("model version already exists: %s", e.VersionName)
}
