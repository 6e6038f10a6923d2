package detector

import (
	"sort"

	"github.com/planlift/planlift/internal/geometry"
)

// Contour is a detected candidate room region: bounding box, centroid and
// area in pixels, plus an optional truncated boundary point list.
type Contour struct {
	Box      geometry.Box     `json:"box"`
	Centroid geometry.Point   `json:"centroid"`
	Area     float64          `json:"area"`
	Boundary []geometry.Point `json:"boundary,omitempty"`
}

// scaled returns the contour with all coordinates multiplied by s, used to
// restore original pixel space after downscaled detection.
func (c Contour) scaled(s float64) Contour {
	out := Contour{
		Box:      c.Box.Scale(s),
		Centroid: geometry.Point{X: c.Centroid.X * s, Y: c.Centroid.Y * s},
		Area:     c.Area * s * s,
	}
	if len(c.Boundary) > 0 {
		out.Boundary = make([]geometry.Point, len(c.Boundary))
		for i, p := range c.Boundary {
			out.Boundary[i] = geometry.Point{X: p.X * s, Y: p.Y * s}
		}
	}
	return out
}

// sortContoursByArea orders contours largest first. Ties break on centroid
// position so repeated runs over the same buffer stay deterministic.
func sortContoursByArea(cs []Contour) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Area != cs[j].Area {
			return cs[i].Area > cs[j].Area
		}
		if cs[i].Centroid.Y != cs[j].Centroid.Y {
			return cs[i].Centroid.Y < cs[j].Centroid.Y
		}
		return cs[i].Centroid.X < cs[j].Centroid.X
	})
}
