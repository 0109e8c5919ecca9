package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modelreg/internal/registry"
)

var (
	predictName     string
	predictType     string
	predictFeatures []string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Load a version and predict outcomes",
	Long: `Load a version and print one outcome (win, draw or loss) per feature row.

--name selects a version; --type alone selects the latest version of that type.
Each --features flag is one comma-separated row.

Examples:
  modelreg predict --type linear --features 0.8,1.2 --features 1.5,0.3
  modelreg predict --name linear_20250303_100000 --features 0.8,1.2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if predictName == "" && predictType == "" {
			return registry.ErrInsufficientArguments
		}
		rows, err := parseFeatureRows(predictFeatures)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(ctx) }()

		model, ok := a.reg.Load(ctx, registry.LoadRef{VersionName: predictName, ModelType: predictType})
		if !ok {
			return errors.New("model unavailable (run with --debug for details)")
		}
		outcomes, err := model.Predict(rows)
		if err != nil {
			return fmt.Errorf("predicting: %w", err)
		}
		for _, o := range outcomes {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), o)
		}
		return nil
	},
}

// parseFeatureRows parses comma-separated rows of numbers.
func parseFeatureRows(rows []string) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, errors.New("at least one --features row is required")
	}
	out := make([][]float64, 0, len(rows))
	for i, row := range rows {
		fields := strings.Split(row, ",")
		values := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("--features row %d: %q is not a number", i+1, f)
			}
			values = append(values, v)
		}
		out = append(out, values)
	}
	return out, nil
}

func init() {
	predictCmd.Flags().StringVarP(&predictName, "name", "n", "", "version name")
	predictCmd.Flags().StringVarP(&predictType, "type", "t", "", "model type; selects its latest version")
	predictCmd.Flags().StringArrayVarP(&predictFeatures, "features", "f", nil, "comma-separated feature row (repeatable)")
	rootCmd.AddCommand(predictCmd)
}
