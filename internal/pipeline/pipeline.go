// Package pipeline wires the analysis stages together: boundary detection,
// room matching (with synthetic fallback), adjacency resolution (with
// geometric fallback) and layout (with its own strategy chain), followed by
// validation. Each stage failure selects a fallback rather than aborting;
// the only fatal condition is an empty room set.
package pipeline

import (
	"github.com/planlift/planlift/internal/adjacency"
	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/layout"
	"github.com/planlift/planlift/internal/matcher"
	"github.com/planlift/planlift/internal/oracle"
)

// ProgressFunc receives stage names as an analysis run advances. Used by
// the serve surface to stream progress over websockets.
type ProgressFunc func(stage string)

// Config holds configuration for the pipeline and its components.
type Config struct {
	Detector  detector.Config
	Matcher   matcher.Config
	Synthetic matcher.SyntheticConfig
	Adjacency adjacency.Config
	Layout    layout.Config
	Oracle    oracle.Config
	// UseOracle enables the reasoning oracle for adjacency. Requires a
	// configured oracle endpoint; otherwise the geometric fallback runs
	// directly.
	UseOracle bool
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Detector:  detector.DefaultConfig(),
		Matcher:   matcher.DefaultConfig(),
		Synthetic: matcher.DefaultSyntheticConfig(),
		Adjacency: adjacency.DefaultConfig(),
		Layout:    layout.DefaultConfig(),
		Oracle:    oracle.DefaultConfig(),
		UseOracle: false,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	progress ProgressFunc
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectorConfig overrides boundary detection settings.
func (b *Builder) WithDetectorConfig(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithMatcherConfig overrides room matching settings.
func (b *Builder) WithMatcherConfig(cfg matcher.Config) *Builder {
	b.cfg.Matcher = cfg
	return b
}

// WithAdjacencyConfig overrides adjacency resolution settings.
func (b *Builder) WithAdjacencyConfig(cfg adjacency.Config) *Builder {
	b.cfg.Adjacency = cfg
	return b
}

// WithLayoutConfig overrides layout engine settings.
func (b *Builder) WithLayoutConfig(cfg layout.Config) *Builder {
	b.cfg.Layout = cfg
	return b
}

// WithOracle enables the adjacency reasoning oracle against the given
// endpoint configuration.
func (b *Builder) WithOracle(cfg oracle.Config) *Builder {
	b.cfg.Oracle = cfg
	b.cfg.UseOracle = cfg.BaseURL != ""
	return b
}

// WithProgress sets the stage progress callback.
func (b *Builder) WithProgress(fn ProgressFunc) *Builder {
	b.progress = fn
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Pipeline runs floorplan analysis end to end.
type Pipeline struct {
	cfg      Config
	detector *detector.Detector
	matcher  *matcher.Matcher
	resolver *adjacency.Resolver
	engine   *layout.Engine
	progress ProgressFunc
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	var oracleResolver *adjacency.OracleResolver
	if b.cfg.UseOracle {
		client := oracle.NewClient(b.cfg.Oracle)
		oracleResolver = adjacency.NewOracleResolver(client, b.cfg.Adjacency.Oracle)
	}
	return &Pipeline{
		cfg:      b.cfg,
		detector: detector.New(b.cfg.Detector),
		matcher:  matcher.New(b.cfg.Matcher),
		resolver: adjacency.NewResolver(b.cfg.Adjacency, oracleResolver),
		engine:   layout.NewEngine(b.cfg.Layout),
		progress: b.progress,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// report invokes the progress callback if one is set.
func (p *Pipeline) report(stage string) {
	if p.progress != nil {
		p.progress(stage)
	}
}
