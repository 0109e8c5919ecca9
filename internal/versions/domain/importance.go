package domain

import (
	"cmp"
	"slices"
)

// FeatureScore is one row of a feature importance table.
type FeatureScore struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// SortImportance returns a copy of scores ordered by importance descending.
// Equal scores are ordered by feature name so the result is deterministic.
func SortImportance(scores []FeatureScore) []FeatureScore {
	if len(scores) == 0 {
		return nil
	}
	out := slices.Clone(scores)
	slices.SortStableFunc(out, func(a, b FeatureScore) int {
		if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
			return c
		}
		return cmp.Compare(a.Feature, b.Feature)
	})
	return out
}

// ZipImportance pairs parallel name and score arrays into a sorted table.
// Arrays of different length are zipped up to the shorter one.
func ZipImportance(names []string, scores []float64) []FeatureScore {
	n := min(len(names), len(scores))
	if n == 0 {
		return nil
	}
	out := make([]FeatureScore, n)
	for i := range n {
		out[i] = FeatureScore{Feature: names[i], Importance: scores[i]}
	}
	return SortImportance(out)
}
