package predictor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the YAML description of a model, used to build models from files.
//
//	kind: ensemble
//	members:
//	  - weight: 0.6
//	    model: {kind: linear, features: [gf_rolling, venue_code], weights: [0.8, 0.2], thresholds: [-0.5, 0.5]}
//	  - weight: 0.4
//	    model: {kind: baseline, outcome: draw}
type Spec struct {
	Kind       string       `yaml:"kind"`
	Features   []string     `yaml:"features,omitempty"`
	Weights    []float64    `yaml:"weights,omitempty"`
	Bias       float64      `yaml:"bias,omitempty"`
	Thresholds []float64    `yaml:"thresholds,omitempty"`
	Outcome    string       `yaml:"outcome,omitempty"`
	Members    []MemberSpec `yaml:"members,omitempty"`
}

// MemberSpec is one weighted ensemble member.
type MemberSpec struct {
	Weight float64 `yaml:"weight"`
	Model  Spec    `yaml:"model"`
}

// Build converts the spec into a Model.
func (s Spec) Build() (Model, error) {
	switch s.Kind {
	case KindLinear:
		var thresholds [2]float64
		switch len(s.Thresholds) {
		case 0:
		case 2:
			thresholds = [2]float64{s.Thresholds[0], s.Thresholds[1]}
		default:
			return nil, fmt.Errorf("linear thresholds need exactly 2 values, got %d", len(s.Thresholds))
		}
		return NewLinear(s.Features, s.Weights, s.Bias, thresholds)
	case KindEnsemble:
		members := make([]Member, 0, len(s.Members))
		for i, ms := range s.Members {
			m, err := ms.Model.Build()
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			members = append(members, Member{Weight: ms.Weight, Model: m})
		}
		return NewEnsemble(members...)
	case KindBaseline:
		outcome := Draw
		if s.Outcome != "" {
			parsed, err := ParseOutcome(s.Outcome)
			if err != nil {
				return nil, err
			}
			outcome = parsed
		}
		return &Baseline{Outcome: outcome}, nil
	case "":
		return nil, fmt.Errorf("model kind is required")
	default:
		return nil, fmt.Errorf("unknown model kind %q", s.Kind)
	}
}

// ParseSpec decodes a YAML model spec and builds the model.
func ParseSpec(data []byte) (Model, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse model spec: %w", err)
	}
	return s.Build()
}

// LoadSpecFile reads and builds the model described by a YAML file.
func LoadSpecFile(path string) (Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a user-supplied spec file
	if err != nil {
		return nil, fmt.Errorf("read model spec: %w", err)
	}
	m, err := ParseSpec(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
