package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modelreg/internal/presentation"
)

// Output formats.
const (
	outputTable    = "table"
	outputJSON     = "json"
	outputMarkdown = "markdown"
)

var (
	listType   string
	listOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List versions, newest first",
	Long: `List registered versions, newest first.

Examples:
  modelreg list
  modelreg list --type random_forest
  modelreg list -o json | jq '.versions[].version_name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if listOutput != outputTable && listOutput != outputJSON {
			return fmt.Errorf("--output must be %q or %q, got %q", outputTable, outputJSON, listOutput)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(ctx) }()

		list := presentation.FromSummaries(a.reg.ListVersions(ctx, listType))
		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		if listOutput == outputJSON {
			return formatter.FormatJSON(list)
		}
		return formatter.FormatTable(list)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest <type>",
	Short: "Print the newest version name of a model type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(ctx) }()

		name, ok := a.reg.LatestVersion(ctx, args[0])
		if !ok {
			return fmt.Errorf("no versions registered for model type %q", args[0])
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "only list versions of this model type")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", outputTable, "output format: table or json")
	rootCmd.AddCommand(listCmd, latestCmd)
}
