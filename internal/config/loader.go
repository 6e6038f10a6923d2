package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name of the config file (without extension).
	ConfigFileName = "planlift"
	// EnvPrefix prefixes environment variable overrides, e.g.
	// PLANLIFT_ORACLE_API_KEY.
	EnvPrefix = "PLANLIFT"
)

// Loader loads configuration from files and environment variables.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a config loader with defaults applied.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &Loader{v: v}
	l.setDefaults()
	l.addConfigPaths()
	return l
}

// Viper exposes the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load reads configuration from the search paths and environment, then
// validates it. A missing config file is not an error; defaults apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads configuration from an explicit file path.
func (l *Loader) LoadWithFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers defaults so environment overrides resolve even
// without a config file.
func (l *Loader) setDefaults() {
	def := DefaultConfig()

	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("verbose", def.Verbose)

	l.v.SetDefault("pipeline.use_oracle", def.Pipeline.UseOracle)
	l.v.SetDefault("pipeline.detector.gradient_threshold", def.Pipeline.Detector.GradientThreshold)
	l.v.SetDefault("pipeline.detector.binarize_first", def.Pipeline.Detector.BinarizeFirst)
	l.v.SetDefault("pipeline.detector.dilate_iterations", def.Pipeline.Detector.DilateIterations)
	l.v.SetDefault("pipeline.detector.erode_iterations", def.Pipeline.Detector.ErodeIterations)
	l.v.SetDefault("pipeline.detector.min_area_fraction", def.Pipeline.Detector.MinAreaFraction)
	l.v.SetDefault("pipeline.detector.max_area_fraction", def.Pipeline.Detector.MaxAreaFraction)
	l.v.SetDefault("pipeline.detector.max_image_size", def.Pipeline.Detector.MaxImageSize)
	l.v.SetDefault("pipeline.matcher.contain_margin", def.Pipeline.Matcher.ContainMargin)
	l.v.SetDefault("pipeline.matcher.near_match_max_distance", def.Pipeline.Matcher.NearMatchMaxDistance)
	l.v.SetDefault("pipeline.matcher.min_match_rate", def.Pipeline.Matcher.MinMatchRate)
	l.v.SetDefault("pipeline.adjacency.oracle_timeout_sec", def.Pipeline.Adjacency.OracleTimeoutSec)
	l.v.SetDefault("pipeline.adjacency.oracle_max_turns", def.Pipeline.Adjacency.OracleMaxTurns)
	l.v.SetDefault("pipeline.adjacency.real_max_distance", def.Pipeline.Adjacency.RealMaxDistance)
	l.v.SetDefault("pipeline.adjacency.real_min_overlap", def.Pipeline.Adjacency.RealMinOverlap)
	l.v.SetDefault("pipeline.adjacency.synthetic_max_distance", def.Pipeline.Adjacency.SyntheticMaxDist)
	l.v.SetDefault("pipeline.adjacency.synthetic_min_overlap", def.Pipeline.Adjacency.SyntheticMinOverlap)
	l.v.SetDefault("pipeline.layout.target_aspect_ratio", def.Pipeline.Layout.TargetAspectRatio)
	l.v.SetDefault("pipeline.layout.min_pixel_scale", def.Pipeline.Layout.MinPixelScale)
	l.v.SetDefault("pipeline.layout.max_pixel_scale", def.Pipeline.Layout.MaxPixelScale)

	l.v.SetDefault("oracle.base_url", def.Oracle.BaseURL)
	l.v.SetDefault("oracle.model", def.Oracle.Model)
	l.v.SetDefault("oracle.timeout_sec", def.Oracle.TimeoutSec)
	l.v.SetDefault("oracle.max_retries", def.Oracle.MaxRetries)

	l.v.SetDefault("output.format", def.Output.Format)
	l.v.SetDefault("output.file", def.Output.File)
	l.v.SetDefault("output.overlay_dir", def.Output.OverlayDir)

	l.v.SetDefault("server.host", def.Server.Host)
	l.v.SetDefault("server.port", def.Server.Port)
	l.v.SetDefault("server.cors_origin", def.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", def.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", def.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
}

// addConfigPaths registers the config file search order: working directory
// first, then user config, then system-wide.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("$HOME/.config/planlift")
	l.v.AddConfigPath("/etc/planlift")
}

// GenerateDefaultConfigFile writes the default configuration as YAML, as a
// starting point for site customization.
func GenerateDefaultConfigFile(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
