package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modelreg/internal/presentation"
)

var (
	showOutput string
	showStyle  string
	showWidth  int
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the full record of one version",
	Long: `Show hyperparameters, feature importance and metrics of one version.

Markdown output is rendered for the terminal. Set --style to a glamour style
name or path (default: auto). Use -o json for machine-readable output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if showOutput != outputMarkdown && showOutput != outputJSON {
			return fmt.Errorf("--output must be %q or %q, got %q", outputMarkdown, outputJSON, showOutput)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(ctx) }()

		v, ok := a.reg.VersionDetails(ctx, args[0])
		if !ok {
			return fmt.Errorf("version %q not found", args[0])
		}

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		if showOutput == outputJSON {
			return formatter.FormatJSON(presentation.FromVersion(v))
		}
		return formatter.FormatMarkdown(presentation.FromVersion(v), showStyle, showWidth)
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Compare the metadata of two versions",
	Long: `Compare hyperparameters, metrics and feature importance of two versions.

Lines only in <a> are prefixed with "- ", lines only in <b> with "+ ".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(ctx) }()

		left, ok := a.reg.VersionDetails(ctx, args[0])
		if !ok {
			return fmt.Errorf("version %q not found", args[0])
		}
		right, ok := a.reg.VersionDetails(ctx, args[1])
		if !ok {
			return fmt.Errorf("version %q not found", args[1])
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(),
			presentation.Diff(presentation.FromVersion(left), presentation.FromVersion(right)))
		return err
	},
}

// terminalWidth reads COLUMNS, falling back to 80.
func terminalWidth() int {
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		return w
	}
	return 80
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", outputMarkdown, "output format: markdown or json")
	showCmd.Flags().StringVar(&showStyle, "style", "auto", "glamour style name or path")
	showCmd.Flags().IntVar(&showWidth, "width", terminalWidth(), "wrap width for markdown output")
	rootCmd.AddCommand(showCmd, diffCmd)
}
