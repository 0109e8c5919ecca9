package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modelreg/internal/config"
)

var (
	pruneKeep   int
	pruneMaxAge string
	pruneDryRun bool
	pruneSave   bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove versions outside the retention policy",
	Long: `Remove versions outside the retention policy.

The policy comes from the retention section of the config; --keep and
--max-age override it for this run. The latest version of each model type is
always kept. --save writes the effective policy back to the config file.

Artifacts that no version references, such as those left by an interrupted
registration, are removed as well. Without any retention limits only these
orphaned artifacts are removed.

Examples:
  modelreg prune --keep 5 --dry-run
  modelreg prune --max-age 720h
  modelreg prune --keep 10 --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		retention := cfg.Retention
		if cmd.Flags().Changed("keep") {
			retention.MaxVersionsPerType = pruneKeep
		}
		if cmd.Flags().Changed("max-age") {
			age, err := config.ParseMaxAge(pruneMaxAge)
			if err != nil {
				return fmt.Errorf("--max-age: %w", err)
			}
			retention.MaxAge = age
		}
		if err := config.ValidateRetention(retention); err != nil {
			return err
		}

		policy := retentionPolicy(retention)

		if pruneSave {
			path := configFilePath()
			if err := config.SaveRetention(path, retention); err != nil {
				return fmt.Errorf("saving retention policy: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved retention policy to %s\n", path)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(ctx) }()

		result, err := a.reg.Prune(ctx, policy, pruneDryRun)
		verb := "Removed"
		if pruneDryRun {
			verb = "Would remove"
		}
		out := cmd.OutOrStdout()
		for _, name := range result.Versions {
			_, _ = fmt.Fprintf(out, "%s %s\n", verb, name)
		}
		for _, key := range result.Orphans {
			_, _ = fmt.Fprintf(out, "%s orphaned artifact %s\n", verb, key)
		}
		if len(result.Versions) == 0 && len(result.Orphans) == 0 {
			_, _ = fmt.Fprintf(out, "Nothing to prune (%s)\n", policy)
		}
		return err
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "versions to keep per model type (0 = unlimited)")
	pruneCmd.Flags().StringVar(&pruneMaxAge, "max-age", "", "remove versions older than this, e.g. 720h or 30d (0 = forever)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list what would be removed without removing it")
	pruneCmd.Flags().BoolVar(&pruneSave, "save", false, "write the effective policy to the config file")
	rootCmd.AddCommand(pruneCmd)
}
