package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// DescriptionWidth is the widest description shown in a table cell.
const DescriptionWidth = 40

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatJSON writes v as indented JSON
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatTable writes a listing as a bordered table.
func (f *Formatter) FormatTable(list VersionListDTO) error {
	if list.Total == 0 {
		_, err := fmt.Fprintln(f.writer, "No versions registered")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "VERSION", "TYPE", "CREATED", "DESCRIPTION", "METRICS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, v := range list.Versions {
		t.Row(
			strconv.FormatInt(v.ID, 10),
			v.VersionName,
			v.ModelType,
			v.CreationDate,
			runewidth.Truncate(v.Description, DescriptionWidth, "…"),
			formatMetrics(v.Metrics),
		)
	}
	_, err := fmt.Fprintln(f.writer, t.String())
	return err
}

// FormatMarkdown renders a detail view through glamour.
// style is a glamour standard style name; "" or "auto" detects the terminal.
func (f *Formatter) FormatMarkdown(d DetailDTO, style string, width int) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(DetailMarkdown(d))
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(f.writer, out)
	return err
}

// DetailMarkdown returns the markdown source of a detail view.
func DetailMarkdown(d DetailDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.VersionName)
	fmt.Fprintf(&b, "- **Type:** %s\n", d.ModelType)
	fmt.Fprintf(&b, "- **Created:** %s\n", d.CreationDate)
	fmt.Fprintf(&b, "- **Artifact:** `%s` (%s)\n", d.ArtifactKey, d.ArtifactFormat)
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}

	if len(d.Metrics) > 0 {
		b.WriteString("\n## Metrics\n\n| Metric | Value |\n| --- | --- |\n")
		for _, k := range slices.Sorted(maps.Keys(d.Metrics)) {
			fmt.Fprintf(&b, "| %s | %s |\n", k, formatFloat(d.Metrics[k]))
		}
	}

	if len(d.Hyperparameters) > 0 {
		b.WriteString("\n## Hyperparameters\n\n| Name | Value |\n| --- | --- |\n")
		for _, k := range slices.Sorted(maps.Keys(d.Hyperparameters)) {
			fmt.Fprintf(&b, "| %s | %v |\n", k, d.Hyperparameters[k])
		}
	}

	if len(d.FeatureImportance) > 0 {
		b.WriteString("\n## Feature importance\n\n| Feature | Importance |\n| --- | --- |\n")
		for _, s := range d.FeatureImportance {
			fmt.Fprintf(&b, "| %s | %s |\n", s.Feature, formatFloat(s.Importance))
		}
	}
	return b.String()
}

func formatMetrics(m map[string]float64) string {
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, k+"="+formatFloat(m[k]))
	}
	return strings.Join(parts, " ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
