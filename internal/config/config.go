package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"chcli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Series    SeriesConfig    `yaml:"series" envconfig:"SERIES"`
	Extract   ExtractConfig   `yaml:"extract" envconfig:"EXTRACT"`
	Shard     ShardConfig     `yaml:"shard" envconfig:"SHARD"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// SeriesConfig contains the observation period and counting parameters
type SeriesConfig struct {
	PeriodStart   string `yaml:"period_start" envconfig:"PERIOD_START" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd     string `yaml:"period_end" envconfig:"PERIOD_END" validate:"omitempty,datetime=2006-01-02"`
	EndInclusive  bool   `yaml:"end_inclusive" envconfig:"END_INCLUSIVE"`
	Granularity   string `yaml:"granularity" envconfig:"GRANULARITY" validate:"omitempty,oneof=month day year"`
	TruncateChars int    `yaml:"truncate_chars" envconfig:"TRUNCATE_CHARS" validate:"min=1"`
	BatchSize     int    `yaml:"batch_size" envconfig:"BATCH_SIZE" validate:"min=1"`
	StoreName     string `yaml:"store_name" envconfig:"STORE_NAME"`
}

// ExtractConfig contains snapshot extraction configuration
type ExtractConfig struct {
	Workers     int  `yaml:"workers" envconfig:"WORKERS" validate:"min=1"`
	KeepStaging bool `yaml:"keep_staging" envconfig:"KEEP_STAGING"`
}

// ShardConfig selects a deterministic slice of postcode groups so large
// periods can be split across runs
type ShardConfig struct {
	Salt  string `yaml:"salt" envconfig:"SALT"`
	Start int    `yaml:"start" envconfig:"START" validate:"min=0"`
	Stop  int    `yaml:"stop" envconfig:"STOP" validate:"min=0"`
}

// Enabled reports whether a shard range is configured
func (s ShardConfig) Enabled() bool {
	return s.Stop > 0
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig contains observability configuration
type TelemetryConfig struct {
	TracingEnabled bool `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
}

var validate = validator.New()

// Load loads configuration from defaults, an optional YAML file and CH_*
// environment variables, in that order of precedence (env wins)
func Load() (*Config, error) {
	cfg := Default()

	// Config file fills over the defaults if one exists
	configFile := getConfigFilePath()
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment overrides both; fields without env vars keep their value
	if err := envconfig.Process("CH", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile merges a YAML file into cfg; absent keys keep their values
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// ResolvePaths returns the path set for this configuration. The base
// directory defaults to the executable location and can be overridden
// for tests and alternate data roots.
func (c *Config) ResolvePaths() (*Paths, error) {
	if c.Paths.BaseDir != "" {
		abs, err := filepath.Abs(c.Paths.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve base dir: %w", err)
		}
		return PathsAt(abs), nil
	}
	return GetPaths()
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Series.Granularity != "" {
		if _, err := domain.ParseGranularity(c.Series.Granularity); err != nil {
			return err
		}
	}

	if c.Shard.Stop > 0 && c.Shard.Stop <= c.Shard.Start {
		return fmt.Errorf("shard stop %d must be greater than start %d", c.Shard.Stop, c.Shard.Start)
	}

	// Always use JSON format
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	// Always dual output (stdout + file)
	if c.Logging.Output != "both" && c.Logging.Output != "file" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// ValidateSeries checks the parts of the configuration the series stages
// require. Binaries that only extract snapshots skip this.
func (c *Config) ValidateSeries() error {
	if c.Series.PeriodStart == "" || c.Series.PeriodEnd == "" {
		return fmt.Errorf("series period_start and period_end are required")
	}
	start, end, err := c.Series.Window()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("series period_end %s must be after period_start %s",
			c.Series.PeriodEnd, c.Series.PeriodStart)
	}
	return nil
}

// Window parses the configured period bounds
func (c SeriesConfig) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(domain.IncDateLayout, c.PeriodStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period_start %q: %w", c.PeriodStart, err)
	}
	end, err := time.Parse(domain.IncDateLayout, c.PeriodEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period_end %q: %w", c.PeriodEnd, err)
	}
	return start.UTC(), end.UTC(), nil
}

// BucketMeta builds the period description the series stages and stores
// carry around
func (c SeriesConfig) BucketMeta() (domain.BucketMeta, error) {
	start, end, err := c.Window()
	if err != nil {
		return domain.BucketMeta{}, err
	}
	meta := domain.BucketMeta{
		PeriodStart:  start,
		PeriodEnd:    end,
		Granularity:  domain.Granularity(c.Granularity),
		EndInclusive: c.EndInclusive,
	}
	if err := meta.Validate(); err != nil {
		return domain.BucketMeta{}, err
	}
	return meta, nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Series: SeriesConfig{
			Granularity:   DefaultGranularity,
			TruncateChars: DefaultTruncateChars,
			BatchSize:     DefaultBatchSize,
			StoreName:     DefaultStoreName,
		},
		Extract: ExtractConfig{
			Workers: DefaultWorkers,
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      "both",
			FilePath:    DefaultLogFile,
			Development: false,
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: false,
			MetricsEnabled: true,
		},
	}
}
