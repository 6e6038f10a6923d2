// Package adjacency determines which room pairs share a wall and in which
// cardinal direction. The primary strategy asks an external reasoning
// oracle constrained to the spatial tools; the deterministic geometric
// fallback built on the same tools is authoritative when the oracle times
// out, errors or returns a malformed shape.
package adjacency

import (
	"math"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
)

// Thresholds tune the geometric fallback. Real pixel geometry earns tight
// thresholds; synthetic layouts preserve rough position but not exact
// alignment and get looser ones.
type Thresholds struct {
	// MaxEdgeDistance is the largest |edge gap| in pixels still counted
	// as a shared wall.
	MaxEdgeDistance float64
	// MinOverlapPercent is the required alignment on the perpendicular
	// axis, as a percentage of the smaller room's extent.
	MinOverlapPercent float64
	// CloseFraction relaxes the overlap requirement to zero when the edge
	// distance is below CloseFraction*MaxEdgeDistance: very close rooms
	// are adjacent even with poor alignment.
	CloseFraction float64
}

// RealThresholds returns thresholds for geometry from real pixel detection.
func RealThresholds() Thresholds {
	return Thresholds{MaxEdgeDistance: 15, MinOverlapPercent: 50, CloseFraction: 0.2}
}

// SyntheticThresholds returns thresholds for fabricated geometry.
func SyntheticThresholds() Thresholds {
	return Thresholds{MaxEdgeDistance: 50, MinOverlapPercent: 30, CloseFraction: 0.2}
}

// ResolveGeometric computes adjacencies from room bounding boxes alone.
// Each unordered pair is reported at most once, with the first qualifying
// direction in the fixed north/south/east/west order. Pure arithmetic over
// finite input: it cannot fail, at worst it returns an empty list.
func ResolveGeometric(rooms []floorplan.UnifiedRoom, th Thresholds) []floorplan.AdjacencyRelation {
	var out []floorplan.AdjacencyRelation
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			if dir, ok := sharedWall(rooms[i].BBox, rooms[j].BBox, th); ok {
				out = append(out, floorplan.AdjacencyRelation{
					Room1ID: rooms[i].ID,
					Room2ID: rooms[j].ID,
					Edge:    dir,
				})
			}
		}
	}
	return out
}

// sharedWall finds the first direction in which a and b qualify as
// wall-sharing neighbors.
func sharedWall(a, b geometry.Box, th Thresholds) (geometry.Direction, bool) {
	for _, dir := range geometry.Directions {
		dist, err := geometry.EdgeDistance(a, b, dir)
		if err != nil {
			continue
		}
		ad := math.Abs(dist)
		if ad > th.MaxEdgeDistance {
			continue
		}
		overlap := geometry.OverlapPercentage(a, b, dir.PerpendicularAxis())
		if overlap >= th.MinOverlapPercent {
			return dir, true
		}
		// Very close rooms are adjacent even with poor alignment, which
		// matters for synthetic geometry. The perpendicular gap must still
		// be small or two distant rooms in the same band would qualify.
		if ad < th.CloseFraction*th.MaxEdgeDistance && closeOnPerpendicular(a, b, dir, th) {
			return dir, true
		}
	}
	return "", false
}

// closeOnPerpendicular guards the relaxed-overlap acceptance against
// corner-only contact: the perpendicular gap must also be small.
func closeOnPerpendicular(a, b geometry.Box, dir geometry.Direction, th Thresholds) bool {
	var gap float64
	if dir.PerpendicularAxis() == geometry.AxisX {
		gap = math.Max(a.MinX, b.MinX) - math.Min(a.MaxX, b.MaxX)
	} else {
		gap = math.Max(a.MinY, b.MinY) - math.Min(a.MaxY, b.MaxY)
	}
	return gap <= th.MaxEdgeDistance
}
