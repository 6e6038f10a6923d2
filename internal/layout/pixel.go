package layout

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/planlift/planlift/internal/floorplan"
)

// layoutFromPixels maps real detected pixel centroids into world meters
// using a robust global pixels-per-meter scale. Highest fidelity strategy;
// abstains when fewer than half the rooms contribute sane scale ratios.
func (e *Engine) layoutFromPixels(rooms []floorplan.UnifiedRoom, opts Options) ([]floorplan.PlacedRoom, bool) {
	var ratios []float64
	contributing := 0
	for _, r := range rooms {
		sx, sy, ok := e.roomScale(r)
		if !ok {
			continue
		}
		contributing++
		ratios = append(ratios, sx, sy)
	}
	if contributing*2 < len(rooms) || len(ratios) == 0 {
		return nil, false
	}

	// Median, not mean: a single mismeasured room must not skew the
	// global scale.
	sort.Float64s(ratios)
	scale := stat.Quantile(0.5, stat.Empirical, ratios, nil)
	if scale <= 0 {
		return nil, false
	}

	// Image-space centroid of all room centroids becomes the world origin.
	var ox, oy float64
	for _, r := range rooms {
		ox += r.Centroid.X
		oy += r.Centroid.Y
	}
	ox /= float64(len(rooms))
	oy /= float64(len(rooms))

	placed := make([]floorplan.PlacedRoom, len(rooms))
	for i, r := range rooms {
		// Image y becomes world z.
		x := (r.Centroid.X - ox) / scale
		z := (r.Centroid.Y - oy) / scale
		placed[i] = placeRoom(r, x, z, opts.CeilingHeight)
	}
	return placed, true
}

// roomScale returns the pixels-per-meter ratios implied by one room's
// bounding box against its real-world dimensions, rejecting ratios outside
// the sane range as measurement noise.
func (e *Engine) roomScale(r floorplan.UnifiedRoom) (float64, float64, bool) {
	if r.Width <= 0 || r.Depth <= 0 {
		return 0, 0, false
	}
	sx := r.BBox.Width() / r.Width
	sy := r.BBox.Height() / r.Depth
	if sx < e.cfg.MinPixelScale || sx > e.cfg.MaxPixelScale ||
		sy < e.cfg.MinPixelScale || sy > e.cfg.MaxPixelScale {
		return 0, 0, false
	}
	return sx, sy, true
}
