package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/modelreg/internal/config"
	"github.com/zjrosen/modelreg/internal/log"
)

// localConfigPath is checked before the user config directory.
const localConfigPath = ".modelreg/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "modelreg",
	Short: "A version registry for trained prediction models",
	Long: `modelreg stores trained match-outcome models as immutable versions.

Each version pairs a serialized artifact with a metadata row holding its
hyperparameters, feature importance and evaluation metrics. Versions can be
listed, compared, loaded for prediction and served over HTTP.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .modelreg/config.yaml, then ~/.config/modelreg/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs (path from MODELREG_LOG, default modelreg.log)")
	rootCmd.PersistentFlags().String("model-dir", "",
		"directory holding model artifacts")
	rootCmd.PersistentFlags().String("db", "",
		"path to the registry database (default: <model-dir>/registry.db)")

	_ = viper.BindPFlag("model_dir", rootCmd.PersistentFlags().Lookup("model-dir"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	setDefaults(config.Defaults())

	viper.SetEnvPrefix("MODELREG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .modelreg/config.yaml (current directory)
		// 2. ~/.config/modelreg/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "modelreg"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setDefaults registers every key so environment variables can override them.
func setDefaults(d config.Config) {
	viper.SetDefault("model_dir", d.ModelDir)
	viper.SetDefault("database.path", d.Database.Path)
	viper.SetDefault("database.busy_timeout", d.Database.BusyTimeout)
	viper.SetDefault("artifacts.backend", d.Artifacts.Backend)
	viper.SetDefault("artifacts.bucket", d.Artifacts.Bucket)
	viper.SetDefault("artifacts.prefix", d.Artifacts.Prefix)
	viper.SetDefault("retention.max_versions_per_type", d.Retention.MaxVersionsPerType)
	viper.SetDefault("retention.max_age", d.Retention.MaxAge)
	viper.SetDefault("retention.auto_prune", d.Retention.AutoPrune)
	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.ttl", d.Cache.TTL)
	viper.SetDefault("api.addr", d.API.Addr)
	viper.SetDefault("api.shutdown_timeout", d.API.ShutdownTimeout)
	viper.SetDefault("tracing.enabled", d.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", d.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", d.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	viper.SetDefault("log.level", d.Log.Level)
}

// setupLogging enables the file logger when --debug or MODELREG_DEBUG is set.
func setupLogging(cmd *cobra.Command, _ []string) error {
	if !debugFlag && os.Getenv("MODELREG_DEBUG") == "" {
		return nil
	}
	logPath := os.Getenv("MODELREG_LOG")
	if logPath == "" {
		logPath = "modelreg.log"
	}

	if err := config.ValidateLog(cfg.Log); err != nil {
		return err
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	log.SetMinLevel(log.ParseLevel(cfg.Log.Level))

	log.Info(log.CatConfig, "modelreg starting", "command", cmd.Name(), "logPath", logPath, "config", viper.ConfigFileUsed())
	return nil
}

// configFilePath is where settings are saved: the file in use, else the local default.
func configFilePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
