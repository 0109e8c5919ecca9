// Package config provides configuration types and defaults for modelreg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/modelreg/internal/log"
)

// Artifact storage backends.
const (
	BackendFile = "file"
	BackendGCS  = "gcs"
)

// Config holds all configuration options for modelreg.
type Config struct {
	ModelDir  string          `mapstructure:"model_dir"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Retention RetentionConfig `mapstructure:"retention"`
	Cache     CacheConfig     `mapstructure:"cache"`
	API       APIConfig       `mapstructure:"api"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
}

// LogConfig tunes the debug log enabled by --debug.
type LogConfig struct {
	// Level is the minimum level written: debug, info, warn or error.
	Level string `mapstructure:"level"`
}

// DatabaseConfig locates the metadata database.
type DatabaseConfig struct {
	// Path to the SQLite file. Default: <model_dir>/registry.db
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// ArtifactsConfig selects where serialized models are stored.
type ArtifactsConfig struct {
	Backend string `mapstructure:"backend"` // "file" (default) or "gcs"
	Bucket  string `mapstructure:"bucket"`  // required when backend=gcs
	Prefix  string `mapstructure:"prefix"`  // object name prefix for gcs
}

// RetentionConfig bounds how many versions are kept.
// Zero values disable the corresponding limit.
type RetentionConfig struct {
	MaxVersionsPerType int           `mapstructure:"max_versions_per_type" yaml:"max_versions_per_type"`
	MaxAge             time.Duration `mapstructure:"max_age" yaml:"max_age"`
	// AutoPrune applies the policy after every registration.
	AutoPrune bool `mapstructure:"auto_prune" yaml:"auto_prune"`
}

// CacheConfig holds read cache options.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// APIConfig holds HTTP server options.
type APIConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter specifies the trace export backend.
	// Valid values: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output path for the file exporter.
	// Default: ~/.config/modelreg/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector address for the otlp exporter.
	// Default: localhost:4317
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the fraction of traces sampled, 0.0 to 1.0.
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/modelreg/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "modelreg", "traces", "traces.jsonl")
}

// DatabasePath returns the configured database path, defaulting to a file in ModelDir.
func (c Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.ModelDir, "registry.db")
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if cfg.ModelDir == "" {
		return fmt.Errorf("model_dir is required")
	}
	if cfg.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative, got %s", cfg.Database.BusyTimeout)
	}
	if err := ValidateArtifacts(cfg.Artifacts); err != nil {
		return err
	}
	if err := ValidateRetention(cfg.Retention); err != nil {
		return err
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", cfg.Cache.TTL)
	}
	if err := ValidateLog(cfg.Log); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateLog rejects unknown level names. Empty means debug.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", l.Level)
	}
}

// ValidateArtifacts checks the artifact backend selection.
func ValidateArtifacts(a ArtifactsConfig) error {
	switch a.Backend {
	case "", BackendFile:
		return nil
	case BackendGCS:
		if a.Bucket == "" {
			return fmt.Errorf("artifacts.bucket is required when backend is %q", BackendGCS)
		}
		return nil
	default:
		return fmt.Errorf("artifacts.backend must be %q or %q, got %q", BackendFile, BackendGCS, a.Backend)
	}
}

// ValidateRetention rejects negative limits.
func ValidateRetention(r RetentionConfig) error {
	if r.MaxVersionsPerType < 0 {
		return fmt.Errorf("retention.max_versions_per_type must not be negative, got %d", r.MaxVersionsPerType)
	}
	if r.MaxAge < 0 {
		return fmt.Errorf("retention.max_age must not be negative, got %s", r.MaxAge)
	}
	return nil
}

// ParseMaxAge parses a retention age. It accepts Go durations ("720h") and
// whole days ("30d"). "0" disables the limit.
func ParseMaxAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("age must not be negative, got %s", s)
	}
	return d, nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		ModelDir: "../models",
		Database: DatabaseConfig{
			Path:        "", // Derived from model_dir
			BusyTimeout: 5 * time.Second,
		},
		Artifacts: ArtifactsConfig{
			Backend: BackendFile,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		API: APIConfig{
			Addr:            "localhost:8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# modelreg configuration

# Directory holding model artifacts and, by default, the registry database
model_dir: ../models

database:
  # path: ../models/registry.db   # Default: <model_dir>/registry.db
  busy_timeout: 5s

# Artifact storage
artifacts:
  backend: file        # "file" (default) stores artifacts in model_dir, "gcs" in a bucket
  # bucket: my-models  # Required when backend is gcs
  # prefix: registry/  # Object name prefix for gcs

# Retention policy used by 'modelreg prune' (0 disables a limit)
# The latest version of every model type is always kept.
retention:
  max_versions_per_type: 0
  max_age: 0s
  auto_prune: false    # Apply the policy after every registration

# Read caches for version details, latest versions and loaded models
cache:
  enabled: true
  ttl: 5m

# HTTP API ('modelreg serve')
api:
  addr: localhost:8000
  shutdown_timeout: 10s

# Debug log written with --debug (path from MODELREG_LOG)
log:
  level: debug         # Minimum level: debug, info, warn, error

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/modelreg/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
