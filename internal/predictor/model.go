// Package predictor defines the models the registry stores and the
// capability shapes used to extract feature importance from them.
//
// Three model kinds are bundled and registered with encoding/gob so they can
// round-trip through the artifact codec:
//   - Linear: a scored linear classifier exposing parallel importance arrays
//   - Ensemble: a weighted vote over member models exposing an importance method
//   - Baseline: a constant predictor with no importance data
package predictor

import (
	"encoding/gob"
	"errors"
	"fmt"
	"strings"
)

// Outcome is a match result from the home side's perspective.
type Outcome int

const (
	Loss Outcome = iota
	Draw
	Win
)

var outcomeNames = [...]string{"loss", "draw", "win"}

func (o Outcome) String() string {
	if o < Loss || o > Win {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText renders the outcome name in JSON and YAML.
func (o Outcome) MarshalText() ([]byte, error) {
	if o < Loss || o > Win {
		return nil, fmt.Errorf("invalid outcome %d", int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome parses "loss", "draw" or "win" (case-insensitive).
func ParseOutcome(s string) (Outcome, error) {
	for i, name := range outcomeNames {
		if strings.EqualFold(s, name) {
			return Outcome(i), nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Model is anything the registry can version: it predicts an outcome per feature row.
type Model interface {
	// Kind names the model family, e.g. "linear".
	Kind() string

	// Predict returns one outcome per row.
	Predict(rows [][]float64) ([]Outcome, error)
}

// Validator is implemented by models that can check their own parameters.
type Validator interface {
	Validate() error
}

// Validate checks m when it implements Validator. Other models are accepted as is.
func Validate(m Model) error {
	if m == nil {
		return errors.New("model is required")
	}
	if v, ok := m.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// ErrFeatureMismatch is returned when a row does not have the number of features the model expects.
var ErrFeatureMismatch = errors.New("feature count mismatch")

func init() {
	gob.Register(&Linear{})
	gob.Register(&Ensemble{})
	gob.Register(&Baseline{})
}
