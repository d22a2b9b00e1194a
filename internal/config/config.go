package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mixaudit/domain/analysis"
	"mixaudit/domain/feed"
	"mixaudit/internal/errors"
)

// Config is the analysis profile: everything a deployment tunes about
// ingestion, analysis and serving. Engine functions never read it;
// callers pass the knobs in explicitly.
type Config struct {
	Columns  feed.ColumnSchema `mapstructure:"columns" yaml:"columns"`
	Ingest   IngestConfig      `mapstructure:"ingest" yaml:"ingest"`
	Analysis AnalysisConfig    `mapstructure:"analysis" yaml:"analysis"`
	Slider   SliderConfig      `mapstructure:"slider" yaml:"slider"`
	Server   ServerConfig      `mapstructure:"server" yaml:"server"`
	Logs     LogConfig         `mapstructure:"logs" yaml:"logs"`
}

// IngestConfig shapes how raw workbooks become tables
type IngestConfig struct {
	SkipRows          int      `mapstructure:"skip_rows" yaml:"skip_rows"`
	RemoveFirstColumn bool     `mapstructure:"remove_first_column" yaml:"remove_first_column"`
	ColumnsToRemove   []string `mapstructure:"columns_to_remove" yaml:"columns_to_remove"`
	SheetName         string   `mapstructure:"sheet_name" yaml:"sheet_name"`
}

// AnalysisConfig carries the default analysis knobs
type AnalysisConfig struct {
	ToleranceThreshold float64 `mapstructure:"tolerance_threshold" yaml:"tolerance_threshold"`
	BucketStep         float64 `mapstructure:"bucket_step" yaml:"bucket_step"`
	ExclusionMode      string  `mapstructure:"exclusion_mode" yaml:"exclusion_mode"`
	RemoveOutliers     bool    `mapstructure:"remove_outliers" yaml:"remove_outliers"`
	MaxConcurrentRuns  int     `mapstructure:"max_concurrent_runs" yaml:"max_concurrent_runs"`
	Timezone           string  `mapstructure:"timezone" yaml:"timezone"`
}

// SliderConfig bounds the food-type weight sliders in the UI
type SliderConfig struct {
	Min     float64 `mapstructure:"min_value" yaml:"min_value"`
	Max     float64 `mapstructure:"max_value" yaml:"max_value"`
	Default float64 `mapstructure:"default_value" yaml:"default_value"`
	Step    float64 `mapstructure:"step" yaml:"step"`
}

// ServerConfig holds the web and API listen addresses
type ServerConfig struct {
	WebAddr string `mapstructure:"web_addr" yaml:"web_addr"`
	APIAddr string `mapstructure:"api_addr" yaml:"api_addr"`
	GinMode string `mapstructure:"gin_mode" yaml:"gin_mode"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// Mode maps the configured exclusion mode onto the typed constant,
// falling back to one-sided exclusion for unknown values.
func (a AnalysisConfig) Mode() analysis.ExclusionMode {
	mode := analysis.ExclusionMode(a.ExclusionMode)
	if !mode.Valid() {
		return analysis.ExcludeAbove
	}
	return mode
}

// Load loads configuration from file, env, and defaults.
// Precedence: explicit cfgFile > env (MIXAUDIT_ prefix) > mixaudit.yaml
// in the working directory > defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MIXAUDIT")
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("read config %s: %v", cfgFile, err))
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("mixaudit")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unmarshal config: %v", err))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects profiles the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Ingest.SkipRows < 0 {
		return errors.ConfigInvalid("ingest.skip_rows cannot be negative")
	}
	if c.Analysis.BucketStep < 0 {
		return errors.ConfigInvalid("analysis.bucket_step cannot be negative")
	}
	if c.Analysis.MaxConcurrentRuns < 1 {
		return errors.ConfigInvalid("analysis.max_concurrent_runs must be at least 1")
	}
	if c.Slider.Min > c.Slider.Max {
		return errors.ConfigInvalid("slider.min_value above slider.max_value")
	}
	for _, b := range c.Columns.Required() {
		if b.Header == "" {
			return errors.ConfigInvalid("columns." + b.Field + " is empty")
		}
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
// An empty path writes ./mixaudit.yaml.
func Save(c *Config, path string) error {
	if path == "" {
		path = "mixaudit.yaml"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Default returns the stock profile used when no file or env is present
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults always unmarshal cleanly
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	schema := feed.DefaultColumnSchema()
	v.SetDefault("columns.batch_code", schema.BatchCode)
	v.SetDefault("columns.food_type", schema.FoodType)
	v.SetDefault("columns.planned_kg", schema.PlannedKg)
	v.SetDefault("columns.realized_kg", schema.RealizedKg)
	v.SetDefault("columns.pct_difference", schema.PctDifference)
	v.SetDefault("columns.operator", schema.Operator)
	v.SetDefault("columns.diet_name", schema.DietName)
	v.SetDefault("columns.date", schema.Date)

	v.SetDefault("ingest.skip_rows", 2)
	v.SetDefault("ingest.remove_first_column", true)
	v.SetDefault("ingest.columns_to_remove", []string{})
	v.SetDefault("ingest.sheet_name", "")

	v.SetDefault("analysis.tolerance_threshold", 3.0)
	v.SetDefault("analysis.bucket_step", 2.0)
	v.SetDefault("analysis.exclusion_mode", string(analysis.ExcludeAbove))
	v.SetDefault("analysis.remove_outliers", false)
	v.SetDefault("analysis.max_concurrent_runs", 4)
	v.SetDefault("analysis.timezone", "America/Sao_Paulo")

	v.SetDefault("slider.min_value", 0.0)
	v.SetDefault("slider.max_value", 1.0)
	v.SetDefault("slider.default_value", 1.0)
	v.SetDefault("slider.step", 0.1)

	v.SetDefault("server.web_addr", ":8080")
	v.SetDefault("server.api_addr", ":8081")
	v.SetDefault("server.gin_mode", "release")

	v.SetDefault("logs.dir", "logs")
	v.SetDefault("logs.verbose", false)
}
