package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/modelreg/internal/predictor"
	"github.com/zjrosen/modelreg/internal/registry"
)

var (
	registerType        string
	registerName        string
	registerDescription string
	registerParams      []string
	registerMetrics     []string
)

var registerCmd = &cobra.Command{
	Use:   "register <spec.yaml>",
	Short: "Register a model as a new version",
	Long: `Build the model described by a YAML spec file and register it as a new version.

Without --name the version is named {type}_{YYYYMMDD_HHMMSS} (UTC).
Hyperparameter values are parsed as YAML scalars, so numbers and booleans keep
their type. Metric values must be numbers.

Examples:
  modelreg register linear.yaml --type linear
  modelreg register rf.yaml --type random_forest --name rf_baseline \
      --description "weekly retrain" \
      --param n_estimators=200 --param criterion=gini \
      --metric accuracy=0.61 --metric f1=0.58`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	params, err := parseParams(registerParams)
	if err != nil {
		return err
	}
	metrics, err := parseMetrics(registerMetrics)
	if err != nil {
		return err
	}
	model, err := predictor.LoadSpecFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	name, err := a.reg.Register(ctx, model, registry.RegisterOptions{
		ModelType:       registerType,
		VersionName:     registerName,
		Description:     registerDescription,
		Hyperparameters: params,
		Metrics:         metrics,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
	return nil
}

// splitKeyValue splits "key=value", rejecting an empty key.
func splitKeyValue(kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", kv)
	}
	return key, value, nil
}

// parseParams parses key=value pairs, decoding each value as a YAML scalar.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		key, raw, err := splitKeyValue(kv)
		if err != nil {
			return nil, fmt.Errorf("--param: %w", err)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("--param %s: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func parseMetrics(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, kv := range pairs {
		key, raw, err := splitKeyValue(kv)
		if err != nil {
			return nil, fmt.Errorf("--metric: %w", err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("--metric %s: %q is not a number", key, raw)
		}
		out[key] = value
	}
	return out, nil
}

func init() {
	registerCmd.Flags().StringVarP(&registerType, "type", "t", "", "model type, e.g. random_forest (required)")
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "version name (default: {type}_{YYYYMMDD_HHMMSS})")
	registerCmd.Flags().StringVarP(&registerDescription, "description", "d", "", "free-text description")
	registerCmd.Flags().StringArrayVarP(&registerParams, "param", "p", nil, "hyperparameter key=value (repeatable)")
	registerCmd.Flags().StringArrayVarP(&registerMetrics, "metric", "m", nil, "evaluation metric key=number (repeatable)")
	_ = registerCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(registerCmd)
}
