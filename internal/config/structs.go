// Package config loads planlift configuration from files, environment
// variables and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/planlift/planlift/internal/adjacency"
	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/layout"
	"github.com/planlift/planlift/internal/matcher"
	"github.com/planlift/planlift/internal/oracle"
	"github.com/planlift/planlift/internal/pipeline"
)

// Config is the complete configuration for the planlift application,
// covering the analyze, validate and serve commands.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Oracle   OracleConfig   `mapstructure:"oracle" yaml:"oracle" json:"oracle"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains analysis pipeline settings.
type PipelineConfig struct {
	Detector  DetectorConfig  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Matcher   MatcherConfig   `mapstructure:"matcher" yaml:"matcher" json:"matcher"`
	Adjacency AdjacencyConfig `mapstructure:"adjacency" yaml:"adjacency" json:"adjacency"`
	Layout    LayoutConfig    `mapstructure:"layout" yaml:"layout" json:"layout"`
	UseOracle bool            `mapstructure:"use_oracle" yaml:"use_oracle" json:"use_oracle"`
}

// DetectorConfig contains boundary detection settings.
type DetectorConfig struct {
	GradientThreshold float64 `mapstructure:"gradient_threshold" yaml:"gradient_threshold" json:"gradient_threshold"`
	BinarizeFirst     bool    `mapstructure:"binarize_first" yaml:"binarize_first" json:"binarize_first"`
	DilateIterations  int     `mapstructure:"dilate_iterations" yaml:"dilate_iterations" json:"dilate_iterations"`
	ErodeIterations   int     `mapstructure:"erode_iterations" yaml:"erode_iterations" json:"erode_iterations"`
	MinAreaFraction   float64 `mapstructure:"min_area_fraction" yaml:"min_area_fraction" json:"min_area_fraction"`
	MaxAreaFraction   float64 `mapstructure:"max_area_fraction" yaml:"max_area_fraction" json:"max_area_fraction"`
	MaxImageSize      int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
}

// MatcherConfig contains room-to-contour matching settings.
type MatcherConfig struct {
	ContainMargin        float64 `mapstructure:"contain_margin" yaml:"contain_margin" json:"contain_margin"`
	NearMatchMaxDistance float64 `mapstructure:"near_match_max_distance" yaml:"near_match_max_distance" json:"near_match_max_distance"`
	MinMatchRate         float64 `mapstructure:"min_match_rate" yaml:"min_match_rate" json:"min_match_rate"`
}

// AdjacencyConfig contains adjacency resolution settings.
type AdjacencyConfig struct {
	OracleTimeoutSec    int     `mapstructure:"oracle_timeout_sec" yaml:"oracle_timeout_sec" json:"oracle_timeout_sec"`
	OracleMaxTurns      int     `mapstructure:"oracle_max_turns" yaml:"oracle_max_turns" json:"oracle_max_turns"`
	RealMaxDistance     float64 `mapstructure:"real_max_distance" yaml:"real_max_distance" json:"real_max_distance"`
	RealMinOverlap      float64 `mapstructure:"real_min_overlap" yaml:"real_min_overlap" json:"real_min_overlap"`
	SyntheticMaxDist    float64 `mapstructure:"synthetic_max_distance" yaml:"synthetic_max_distance" json:"synthetic_max_distance"`
	SyntheticMinOverlap float64 `mapstructure:"synthetic_min_overlap" yaml:"synthetic_min_overlap" json:"synthetic_min_overlap"`
}

// LayoutConfig contains layout engine settings.
type LayoutConfig struct {
	TargetAspectRatio float64 `mapstructure:"target_aspect_ratio" yaml:"target_aspect_ratio" json:"target_aspect_ratio"`
	MinPixelScale     float64 `mapstructure:"min_pixel_scale" yaml:"min_pixel_scale" json:"min_pixel_scale"`
	MaxPixelScale     float64 `mapstructure:"max_pixel_scale" yaml:"max_pixel_scale" json:"max_pixel_scale"`
}

// OracleConfig contains reasoning oracle connection settings.
type OracleConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	// APIKey is never written to generated config files or JSON output;
	// set it via PLANLIFT_ORACLE_API_KEY or a hand-edited config file.
	APIKey     string `mapstructure:"api_key" yaml:"-" json:"-"`
	Model      string `mapstructure:"model" yaml:"model" json:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns the default application configuration derived from
// the component defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	mat := matcher.DefaultConfig()
	adj := adjacency.DefaultConfig()
	lay := layout.DefaultConfig()
	orc := oracle.DefaultConfig()
	return Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Detector: DetectorConfig{
				GradientThreshold: det.GradientThreshold,
				BinarizeFirst:     det.BinarizeFirst,
				DilateIterations:  det.DilateIterations,
				ErodeIterations:   det.ErodeIterations,
				MinAreaFraction:   det.MinAreaFraction,
				MaxAreaFraction:   det.MaxAreaFraction,
				MaxImageSize:      det.MaxImageSize,
			},
			Matcher: MatcherConfig{
				ContainMargin:        mat.ContainMargin,
				NearMatchMaxDistance: mat.NearMatchMaxDistance,
				MinMatchRate:         mat.MinMatchRate,
			},
			Adjacency: AdjacencyConfig{
				OracleTimeoutSec:    int(adj.Oracle.Timeout / time.Second),
				OracleMaxTurns:      adj.Oracle.MaxTurns,
				RealMaxDistance:     adj.Real.MaxEdgeDistance,
				RealMinOverlap:      adj.Real.MinOverlapPercent,
				SyntheticMaxDist:    adj.Synthetic.MaxEdgeDistance,
				SyntheticMinOverlap: adj.Synthetic.MinOverlapPercent,
			},
			Layout: LayoutConfig{
				TargetAspectRatio: lay.TargetAspectRatio,
				MinPixelScale:     lay.MinPixelScale,
				MaxPixelScale:     lay.MaxPixelScale,
			},
		},
		Oracle: OracleConfig{
			Model:      orc.Model,
			TimeoutSec: orc.TimeoutSec,
			MaxRetries: orc.MaxRetries,
		},
		Output: OutputConfig{Format: "json"},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	m := c.Pipeline.Matcher
	if m.MinMatchRate < 0 || m.MinMatchRate > 1 {
		return fmt.Errorf("matcher min_match_rate must be in [0,1], got %v", m.MinMatchRate)
	}
	d := c.Pipeline.Detector
	if d.MinAreaFraction < 0 || d.MaxAreaFraction > 1 || d.MinAreaFraction >= d.MaxAreaFraction {
		return fmt.Errorf("detector area fractions invalid: min %v max %v", d.MinAreaFraction, d.MaxAreaFraction)
	}
	if c.Pipeline.UseOracle && c.Oracle.BaseURL == "" {
		return fmt.Errorf("pipeline.use_oracle is set but oracle.base_url is empty")
	}
	return nil
}

// ToPipelineConfig converts the application configuration into the
// pipeline component configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()

	cfg.Detector.GradientThreshold = c.Pipeline.Detector.GradientThreshold
	cfg.Detector.BinarizeFirst = c.Pipeline.Detector.BinarizeFirst
	cfg.Detector.DilateIterations = c.Pipeline.Detector.DilateIterations
	cfg.Detector.ErodeIterations = c.Pipeline.Detector.ErodeIterations
	cfg.Detector.MinAreaFraction = c.Pipeline.Detector.MinAreaFraction
	cfg.Detector.MaxAreaFraction = c.Pipeline.Detector.MaxAreaFraction
	cfg.Detector.MaxImageSize = c.Pipeline.Detector.MaxImageSize

	cfg.Matcher.ContainMargin = c.Pipeline.Matcher.ContainMargin
	cfg.Matcher.NearMatchMaxDistance = c.Pipeline.Matcher.NearMatchMaxDistance
	cfg.Matcher.MinMatchRate = c.Pipeline.Matcher.MinMatchRate

	if c.Pipeline.Adjacency.OracleTimeoutSec > 0 {
		cfg.Adjacency.Oracle.Timeout = time.Duration(c.Pipeline.Adjacency.OracleTimeoutSec) * time.Second
	}
	if c.Pipeline.Adjacency.OracleMaxTurns > 0 {
		cfg.Adjacency.Oracle.MaxTurns = c.Pipeline.Adjacency.OracleMaxTurns
	}
	cfg.Adjacency.Real.MaxEdgeDistance = c.Pipeline.Adjacency.RealMaxDistance
	cfg.Adjacency.Real.MinOverlapPercent = c.Pipeline.Adjacency.RealMinOverlap
	cfg.Adjacency.Synthetic.MaxEdgeDistance = c.Pipeline.Adjacency.SyntheticMaxDist
	cfg.Adjacency.Synthetic.MinOverlapPercent = c.Pipeline.Adjacency.SyntheticMinOverlap

	cfg.Layout.TargetAspectRatio = c.Pipeline.Layout.TargetAspectRatio
	cfg.Layout.MinPixelScale = c.Pipeline.Layout.MinPixelScale
	cfg.Layout.MaxPixelScale = c.Pipeline.Layout.MaxPixelScale

	cfg.Oracle.BaseURL = c.Oracle.BaseURL
	cfg.Oracle.APIKey = c.Oracle.APIKey
	cfg.Oracle.Model = c.Oracle.Model
	cfg.Oracle.TimeoutSec = c.Oracle.TimeoutSec
	cfg.Oracle.MaxRetries = c.Oracle.MaxRetries
	cfg.UseOracle = c.Pipeline.UseOracle && c.Oracle.BaseURL != ""

	return cfg
}
