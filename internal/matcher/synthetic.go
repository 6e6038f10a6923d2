package matcher

import (
	"log/slog"
	"math"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
)

// SyntheticConfig holds settings for fabricated room geometry.
type SyntheticConfig struct {
	// CanvasWidth and CanvasHeight define the pixel space synthetic
	// geometry lives in when the source image dimensions are unknown.
	CanvasWidth  float64
	CanvasHeight float64
	// RoomAreaDivisor controls the target pixels per room:
	// canvasArea / (roomCount * RoomAreaDivisor).
	RoomAreaDivisor float64
	// SeparationGap is the fixed pixel gap inserted when two overlapping
	// synthetic rooms are pushed apart.
	SeparationGap float64
	// FlowSpacing is the horizontal spacing of the label-free flow layout.
	FlowSpacing float64
}

// DefaultSyntheticConfig returns synthetic generation defaults.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		CanvasWidth:     1000,
		CanvasHeight:    800,
		RoomAreaDivisor: 3,
		SeparationGap:   10,
		FlowSpacing:     40,
	}
}

// Synthesize fabricates self-consistent pixel geometry for a room set when
// real detection is unavailable or unreliable. Rooms with a label position
// are kept near it; rooms without one fall back to a flow layout, and a
// fully label-free set degrades to a uniform grid. The returned geometry
// carries no spatial truth beyond the label positions it was seeded with.
func Synthesize(rooms []floorplan.SemanticRoom, canvasW, canvasH float64, cfg SyntheticConfig) []floorplan.UnifiedRoom {
	if len(rooms) == 0 {
		return nil
	}
	if canvasW <= 0 || canvasH <= 0 {
		canvasW, canvasH = cfg.CanvasWidth, cfg.CanvasHeight
	}
	scale := metersToPixels(rooms, canvasW, canvasH, cfg.RoomAreaDivisor)

	labeled := 0
	for _, r := range rooms {
		if r.LabelPosition != nil {
			labeled++
		}
	}
	if labeled == 0 {
		slog.Debug("synthetic generation degrading to grid", "rooms", len(rooms))
		return gridFallback(rooms, scale, cfg)
	}

	out := make([]floorplan.UnifiedRoom, 0, len(rooms))
	centers := make([]geometry.Point, 0, len(rooms))
	widths := make([]float64, 0, len(rooms))

	// Labeled rooms first: label position as desired centroid.
	var flow []floorplan.SemanticRoom
	for _, r := range rooms {
		if r.LabelPosition == nil {
			flow = append(flow, r)
			continue
		}
		centers = append(centers, *r.LabelPosition)
		widths = append(widths, r.Width*scale)
		out = append(out, unifiedAt(r, *r.LabelPosition, scale))
	}

	// One pairwise pass pushing overlapping rooms apart symmetrically
	// along the line between their centers.
	for i := range centers {
		for j := i + 1; j < len(centers); j++ {
			minSep := (widths[i] + widths[j]) / 2
			d := centers[i].Distance(centers[j])
			if d >= minSep {
				continue
			}
			dx, dy := centers[j].X-centers[i].X, centers[j].Y-centers[i].Y
			if d < 1e-9 {
				// Coincident labels: push apart along x.
				dx, dy, d = 1, 0, 1
			}
			push := (minSep - centers[i].Distance(centers[j]) + cfg.SeparationGap) / 2
			ux, uy := dx/d, dy/d
			centers[i] = geometry.Point{X: centers[i].X - ux*push, Y: centers[i].Y - uy*push}
			centers[j] = geometry.Point{X: centers[j].X + ux*push, Y: centers[j].Y + uy*push}
			out[i] = unifiedAt(out[i].SemanticRoom, centers[i], scale)
			out[j] = unifiedAt(out[j].SemanticRoom, centers[j], scale)
		}
	}

	// Remaining rooms flow left to right with alternating vertical offset,
	// wrapping at the canvas edge. Degraded mode with no spatial truth.
	if len(flow) > 0 {
		x, y := cfg.FlowSpacing, canvasH*0.75
		for i, r := range flow {
			w := r.Width * scale
			h := r.Depth * scale
			if x+w > canvasW {
				x = cfg.FlowSpacing
				y += h + cfg.FlowSpacing
			}
			yOff := 0.0
			if i%2 == 1 {
				yOff = cfg.FlowSpacing / 2
			}
			c := geometry.Point{X: x + w/2, Y: y + yOff}
			out = append(out, unifiedAt(r, c, scale))
			x += w + cfg.FlowSpacing
		}
	}
	return out
}

// metersToPixels derives a global scale so the room set fills a sensible
// share of the canvas.
func metersToPixels(rooms []floorplan.SemanticRoom, canvasW, canvasH, divisor float64) float64 {
	if divisor <= 0 {
		divisor = DefaultSyntheticConfig().RoomAreaDivisor
	}
	var totalArea float64
	for _, r := range rooms {
		totalArea += r.Width * r.Depth
	}
	avgArea := totalArea / float64(len(rooms))
	if avgArea <= 0 {
		avgArea = floorplan.DefaultRoomWidth * floorplan.DefaultRoomDepth
	}
	targetPixelsPerRoom := canvasW * canvasH / (float64(len(rooms)) * divisor)
	return math.Sqrt(targetPixelsPerRoom / avgArea)
}

// unifiedAt builds a UnifiedRoom for a semantic room centered at c.
func unifiedAt(r floorplan.SemanticRoom, c geometry.Point, scale float64) floorplan.UnifiedRoom {
	w := r.Width * scale
	h := r.Depth * scale
	return floorplan.UnifiedRoom{
		SemanticRoom: r,
		BBox:         geometry.BoxFromCenter(c.X, c.Y, w, h),
		Centroid:     c,
		AreaPixels:   w * h,
	}
}

// gridFallback arranges all rooms on a uniform grid with ceil(sqrt(n))
// columns, each cell sized to the room's own aspect ratio. Terminal
// degraded mode used only when no label positions exist at all.
func gridFallback(rooms []floorplan.SemanticRoom, scale float64, cfg SyntheticConfig) []floorplan.UnifiedRoom {
	cols := int(math.Ceil(math.Sqrt(float64(len(rooms)))))
	out := make([]floorplan.UnifiedRoom, 0, len(rooms))

	// Cell pitch from the largest room so no two cells collide.
	var maxW, maxH float64
	for _, r := range rooms {
		if w := r.Width * scale; w > maxW {
			maxW = w
		}
		if h := r.Depth * scale; h > maxH {
			maxH = h
		}
	}
	pitchX := maxW + cfg.SeparationGap
	pitchY := maxH + cfg.SeparationGap

	for i, r := range rooms {
		col := i % cols
		row := i / cols
		c := geometry.Point{
			X: pitchX/2 + float64(col)*pitchX,
			Y: pitchY/2 + float64(row)*pitchY,
		}
		out = append(out, unifiedAt(r, c, scale))
	}
	return out
}
