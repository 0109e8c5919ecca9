package predictor

import (
	"errors"
	"fmt"
	"math"

	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// Model kinds.
const (
	KindLinear   = "linear"
	KindEnsemble = "ensemble"
	KindBaseline = "baseline"
)

// Linear scores a row as Bias + Weights·row and maps the score onto an outcome:
// below Thresholds[0] is a loss, below Thresholds[1] a draw, otherwise a win.
type Linear struct {
	Features   []string
	Weights    []float64
	Bias       float64
	Thresholds [2]float64
}

// NewLinear validates and builds a Linear model.
func NewLinear(features []string, weights []float64, bias float64, thresholds [2]float64) (*Linear, error) {
	l := &Linear{Features: features, Weights: weights, Bias: bias, Thresholds: thresholds}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Linear) Validate() error {
	if len(l.Weights) == 0 {
		return errors.New("linear model needs at least one weight")
	}
	if len(l.Features) != 0 && len(l.Features) != len(l.Weights) {
		return fmt.Errorf("linear model has %d features but %d weights", len(l.Features), len(l.Weights))
	}
	if l.Thresholds[0] > l.Thresholds[1] {
		return fmt.Errorf("linear thresholds out of order: %v", l.Thresholds)
	}
	return nil
}

func (l *Linear) Kind() string {
	return KindLinear
}

// Score returns the raw linear score of one row.
func (l *Linear) Score(row []float64) (float64, error) {
	if len(row) != len(l.Weights) {
		return 0, fmt.Errorf("%w: want %d, got %d", ErrFeatureMismatch, len(l.Weights), len(row))
	}
	s := l.Bias
	for i, w := range l.Weights {
		s += w * row[i]
	}
	return s, nil
}

func (l *Linear) Predict(rows [][]float64) ([]Outcome, error) {
	out := make([]Outcome, len(rows))
	for i, row := range rows {
		s, err := l.Score(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		switch {
		case s < l.Thresholds[0]:
			out[i] = Loss
		case s < l.Thresholds[1]:
			out[i] = Draw
		default:
			out[i] = Win
		}
	}
	return out, nil
}

// FeatureImportances returns the absolute weights normalized to sum to one.
func (l *Linear) FeatureImportances() []float64 {
	var total float64
	for _, w := range l.Weights {
		total += math.Abs(w)
	}
	out := make([]float64, len(l.Weights))
	if total == 0 {
		return out
	}
	for i, w := range l.Weights {
		out[i] = math.Abs(w) / total
	}
	return out
}

func (l *Linear) FeatureNamesIn() []string {
	return l.Features
}

// Member is one weighted model inside an Ensemble.
type Member struct {
	Weight float64
	Model  Model
}

// Ensemble predicts by weighted vote over its members.
type Ensemble struct {
	Members []Member
}

// NewEnsemble validates and builds an Ensemble.
func NewEnsemble(members ...Member) (*Ensemble, error) {
	e := &Ensemble{Members: members}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the members, and each member's own parameters.
func (e *Ensemble) Validate() error {
	if len(e.Members) == 0 {
		return errors.New("ensemble needs at least one member")
	}
	for i, m := range e.Members {
		if m.Model == nil {
			return fmt.Errorf("ensemble member %d has no model", i)
		}
		if m.Weight < 0 || math.IsNaN(m.Weight) {
			return fmt.Errorf("ensemble member %d has invalid weight %v", i, m.Weight)
		}
		if err := Validate(m.Model); err != nil {
			return fmt.Errorf("ensemble member %d (%s): %w", i, m.Model.Kind(), err)
		}
	}
	return nil
}

func (e *Ensemble) Kind() string {
	return KindEnsemble
}

// Predict sums member weights per outcome for each row and returns the heaviest outcome.
// Ties go to the lower outcome.
func (e *Ensemble) Predict(rows [][]float64) ([]Outcome, error) {
	votes := make([][3]float64, len(rows))
	for i, m := range e.Members {
		preds, err := m.Model.Predict(rows)
		if err != nil {
			return nil, fmt.Errorf("member %d (%s): %w", i, m.Model.Kind(), err)
		}
		for r, o := range preds {
			if o < Loss || o > Win {
				return nil, fmt.Errorf("member %d (%s): invalid outcome %d", i, m.Model.Kind(), int(o))
			}
			votes[r][o] += m.Weight
		}
	}
	out := make([]Outcome, len(rows))
	for r, v := range votes {
		best := Loss
		for o := Draw; o <= Win; o++ {
			if v[o] > v[best] {
				best = o
			}
		}
		out[r] = best
	}
	return out, nil
}

// FeatureImportance is the weighted sum of each member's importance, per feature.
// Members without importance data contribute nothing.
func (e *Ensemble) FeatureImportance() []domain.FeatureScore {
	totals := map[string]float64{}
	var order []string
	for _, m := range e.Members {
		for _, s := range ResolveImportance(m.Model).Scores {
			if _, seen := totals[s.Feature]; !seen {
				order = append(order, s.Feature)
			}
			totals[s.Feature] += m.Weight * s.Importance
		}
	}
	out := make([]domain.FeatureScore, 0, len(order))
	for _, f := range order {
		out = append(out, domain.FeatureScore{Feature: f, Importance: totals[f]})
	}
	return domain.SortImportance(out)
}

// Baseline always predicts the same outcome. It carries no importance data.
type Baseline struct {
	Outcome Outcome
}

func (b *Baseline) Kind() string {
	return KindBaseline
}

func (b *Baseline) Validate() error {
	if b.Outcome < Loss || b.Outcome > Win {
		return fmt.Errorf("baseline outcome %d is not loss, draw or win", int(b.Outcome))
	}
	return nil
}

func (b *Baseline) Predict(rows [][]float64) ([]Outcome, error) {
	out := make([]Outcome, len(rows))
	for i := range out {
		out[i] = b.Outcome
	}
	return out, nil
}
