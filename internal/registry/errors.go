package registry

import (
	"errors"
	"fmt"
)

// ErrInsufficientArguments is reported by Load when neither a version name nor a model type is given.
var ErrInsufficientArguments = errors.New("either version name or model type is required")

// Stage names the step of a registration that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageEncode   Stage = "encode"
	StageInsert   Stage = "insert"
	StageArtifact Stage = "artifact"
	StageCommit   Stage = "commit"
)

// RegistrationError is returned by Register when nothing was persisted.
// VersionName is the name the registration would have used.
type RegistrationError struct {
	VersionName string
	Stage       Stage
	Err         error
}

func (e *RegistrationError) Error() string {
	if e.VersionName == "" {
		return fmt.Sprintf("register model: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("register %s: %s: %v", e.VersionName, e.Stage, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
