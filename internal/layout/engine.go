// Package layout converts unified rooms plus optional adjacency relations
// into non-overlapping 3D positions. Three strategies are tried in fidelity
// order: image pixel positions, adjacency breadth-first placement and
// categorical grid placement. Each is a complete fallback for the one
// before; the grid is guaranteed applicable to any non-empty room set.
package layout

import (
	"log/slog"

	"github.com/planlift/planlift/internal/floorplan"
)

// WallThickness is the fixed spacing in meters inserted between any two
// placed rooms along their shared axis. It models real wall material and
// keeps coincident edges from registering as false overlaps.
const WallThickness = 0.1

// Strategy names reported in result metadata.
const (
	MethodPixel = "pixel"
	MethodBFS   = "adjacency-bfs"
	MethodGrid  = "grid"
)

// Config holds layout engine settings.
type Config struct {
	// MinPixelScale and MaxPixelScale bound a room's implied
	// pixels-per-meter ratio; rooms outside are measurement noise.
	MinPixelScale float64
	MaxPixelScale float64
	// MinPixelCoverage is the fraction of rooms that must contribute sane
	// pixel ratios before the pixel strategy applies.
	MinPixelCoverage float64
	// TargetAspectRatio shapes the categorical grid's overall footprint.
	TargetAspectRatio float64
	// OverflowGap separates disconnected rooms from the main BFS cluster.
	OverflowGap float64
}

// DefaultConfig returns layout defaults.
func DefaultConfig() Config {
	return Config{
		MinPixelScale:     5,
		MaxPixelScale:     500,
		MinPixelCoverage:  0.5,
		TargetAspectRatio: 1.5,
		OverflowGap:       2.0,
	}
}

// Options carries per-request layout inputs.
type Options struct {
	CeilingHeight float64
	EntryRoomID   string
	// Synthetic marks fabricated pixel geometry. The pixel strategy must
	// skip it: synthetic coordinates are self-consistent but not ground
	// truth, and trusting them would be circular.
	Synthetic bool
}

// Engine places rooms.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	d := DefaultConfig()
	if cfg.MinPixelScale <= 0 {
		cfg.MinPixelScale = d.MinPixelScale
	}
	if cfg.MaxPixelScale <= 0 {
		cfg.MaxPixelScale = d.MaxPixelScale
	}
	if cfg.MinPixelCoverage <= 0 {
		cfg.MinPixelCoverage = d.MinPixelCoverage
	}
	if cfg.TargetAspectRatio <= 0 {
		cfg.TargetAspectRatio = d.TargetAspectRatio
	}
	if cfg.OverflowGap <= 0 {
		cfg.OverflowGap = d.OverflowGap
	}
	return &Engine{cfg: cfg}
}

// Layout places all rooms and returns the placements plus the name of the
// strategy that produced them. The only error is an empty room set.
func (e *Engine) Layout(rooms []floorplan.UnifiedRoom, rels []floorplan.AdjacencyRelation, opts Options) ([]floorplan.PlacedRoom, string, error) {
	if len(rooms) == 0 {
		return nil, "", floorplan.ErrNoRooms
	}
	if opts.CeilingHeight <= 0 {
		opts.CeilingHeight = floorplan.DefaultCeilingHeight
	}

	if !opts.Synthetic {
		if placed, ok := e.layoutFromPixels(rooms, opts); ok {
			slog.Debug("layout placed from pixel positions", "rooms", len(placed))
			return placed, MethodPixel, nil
		}
	}
	if len(rels) > 0 {
		if placed, ok := e.layoutFromAdjacency(rooms, rels, opts); ok {
			slog.Debug("layout placed from adjacency graph", "rooms", len(placed))
			return placed, MethodBFS, nil
		}
	}
	placed := e.layoutOnGrid(rooms, opts)
	slog.Debug("layout placed on categorical grid", "rooms", len(placed))
	return placed, MethodGrid, nil
}

// placeRoom builds a PlacedRoom centered at (x, z) with floor-level y.
func placeRoom(r floorplan.UnifiedRoom, x, z, ceiling float64) floorplan.PlacedRoom {
	return floorplan.PlacedRoom{
		ID:                   r.ID,
		Name:                 r.Name,
		Position:             [3]float64{x, 0, z},
		Dimensions:           [3]float64{r.Width, ceiling, r.Depth},
		Color:                r.Color,
		OriginalMeasurements: r.OriginalMeasurements,
	}
}
