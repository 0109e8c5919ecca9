package presentation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two versions line by line and returns a unified-style listing.
// Unchanged lines are prefixed with two spaces, removed lines with "- " and
// added lines with "+ ". ID and version name are not compared.
func Diff(a, b DetailDTO) string {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(comparableText(a), comparableText(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s\n", a.VersionName, b.VersionName)
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}

// Changed reports whether Diff would show any added or removed line.
func Changed(a, b DetailDTO) bool {
	return comparableText(a) != comparableText(b)
}

// comparableText flattens a detail into one "key: value" line per field.
func comparableText(d DetailDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "model_type: %s\n", d.ModelType)
	fmt.Fprintf(&b, "creation_date: %s\n", d.CreationDate)
	fmt.Fprintf(&b, "description: %s\n", d.Description)
	fmt.Fprintf(&b, "artifact_format: %s\n", d.ArtifactFormat)
	for _, k := range slices.Sorted(maps.Keys(d.Hyperparameters)) {
		fmt.Fprintf(&b, "hyperparameters.%s: %v\n", k, d.Hyperparameters[k])
	}
	for _, k := range slices.Sorted(maps.Keys(d.Metrics)) {
		fmt.Fprintf(&b, "metrics.%s: %s\n", k, formatFloat(d.Metrics[k]))
	}
	for i, s := range d.FeatureImportance {
		fmt.Fprintf(&b, "feature_importance[%d]: %s %s\n", i, s.Feature, formatFloat(s.Importance))
	}
	return b.String()
}
