package geometry

import (
	"fmt"
	"math"
	"sort"
)

// Direction is a cardinal direction in image space, where north points
// toward smaller y values (up on screen).
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the four cardinal directions in a fixed evaluation order.
var Directions = []Direction{North, South, East, West}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Opposite returns the inverse direction (north<->south, east<->west).
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Axis identifies one of the two box axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// PerpendicularAxis returns the axis along which two rooms must overlap to
// share a wall in direction d: x for vertical neighbors, y for horizontal.
func (d Direction) PerpendicularAxis() Axis {
	if d == North || d == South {
		return AxisX
	}
	return AxisY
}

// EdgeDistance returns the signed gap between a's edge facing direction d
// and b's opposing edge. Positive means separated, negative overlapping,
// near zero a shared-wall candidate.
func EdgeDistance(a, b Box, d Direction) (float64, error) {
	switch d {
	case North:
		return a.MinY - b.MaxY, nil
	case South:
		return b.MinY - a.MaxY, nil
	case East:
		return b.MinX - a.MaxX, nil
	case West:
		return a.MinX - b.MaxX, nil
	}
	return 0, fmt.Errorf("unknown direction %q", d)
}

// OverlapPercentage returns the shared extent of a and b on the given axis
// as a percentage of the smaller room's extent on that axis.
func OverlapPercentage(a, b Box, axis Axis) float64 {
	var aMin, aMax, bMin, bMax float64
	if axis == AxisX {
		aMin, aMax, bMin, bMax = a.MinX, a.MaxX, b.MinX, b.MaxX
	} else {
		aMin, aMax, bMin, bMax = a.MinY, a.MaxY, b.MinY, b.MaxY
	}
	overlap := math.Min(aMax, bMax) - math.Max(aMin, bMin)
	if overlap <= 0 {
		return 0
	}
	smaller := math.Min(aMax-aMin, bMax-bMin)
	if smaller <= 0 {
		return 0
	}
	return overlap / smaller * 100
}

// Neighbor describes a box near a query box, tagged with the closest
// direction and the edge distance in that direction.
type Neighbor struct {
	Index     int
	Distance  float64
	Direction Direction
}

// NearbyBoxes returns all boxes (other than boxes[from]) whose minimum edge
// distance in any cardinal direction from boxes[from] is at most maxDistance,
// sorted ascending by that distance.
func NearbyBoxes(boxes []Box, from int, maxDistance float64) []Neighbor {
	var out []Neighbor
	for i, b := range boxes {
		if i == from {
			continue
		}
		best := math.Inf(1)
		bestDir := North
		for _, d := range Directions {
			dist, err := EdgeDistance(boxes[from], b, d)
			if err != nil {
				continue
			}
			if math.Abs(dist) < math.Abs(best) {
				best = dist
				bestDir = d
			}
		}
		if math.Abs(best) <= maxDistance {
			out = append(out, Neighbor{Index: i, Distance: best, Direction: bestDir})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].Distance) < math.Abs(out[j].Distance)
	})
	return out
}
