package adjacency

import (
	"context"
	"log/slog"

	"github.com/planlift/planlift/internal/floorplan"
)

// Config holds settings for the adjacency stage.
type Config struct {
	Oracle    OracleConfig
	Real      Thresholds
	Synthetic Thresholds
}

// DefaultConfig returns adjacency resolution defaults.
func DefaultConfig() Config {
	return Config{
		Oracle:    DefaultOracleConfig(),
		Real:      RealThresholds(),
		Synthetic: SyntheticThresholds(),
	}
}

// Resolver tries the reasoning oracle first and falls back to the
// deterministic geometric strategy. The fallback itself cannot fail; an
// empty relation list is valid layout input.
type Resolver struct {
	cfg    Config
	oracle *OracleResolver
}

// NewResolver creates a Resolver. A nil oracleResolver disables the oracle
// strategy entirely.
func NewResolver(cfg Config, oracleResolver *OracleResolver) *Resolver {
	return &Resolver{cfg: cfg, oracle: oracleResolver}
}

// Resolve returns adjacency relations for the room set. synthetic selects
// the looser geometric thresholds used for fabricated geometry.
// The returned method is "oracle" or "geometric".
func (r *Resolver) Resolve(ctx context.Context, rooms []floorplan.UnifiedRoom, synthetic bool) ([]floorplan.AdjacencyRelation, string) {
	if len(rooms) < 2 {
		return nil, "geometric"
	}
	if r.oracle != nil {
		rels, err := r.oracle.Resolve(ctx, rooms)
		if err == nil {
			return rels, "oracle"
		}
		slog.Warn("adjacency oracle failed, using geometric fallback", "error", err)
	}
	th := r.cfg.Real
	if synthetic {
		th = r.cfg.Synthetic
	}
	return ResolveGeometric(rooms, th), "geometric"
}
