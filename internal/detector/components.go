package detector

import "github.com/planlift/planlift/internal/geometry"

// component accumulates statistics for one connected component.
type component struct {
	count int
	sumX  float64
	sumY  float64
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// connectedComponents labels 4-connected foreground components in the mask.
// It returns per-component stats and the label buffer (0 = background,
// labels are 1-based component indices).
func connectedComponents(mask []bool, w, h int) ([]component, []int32) {
	labels := make([]int32, w*h)
	var comps []component
	// Explicit work-list flood fill; recursion would blow the stack on
	// large scans.
	stack := make([]int, 0, 1024)
	next := int32(1)

	for y := range h {
		for x := range w {
			seed := y*w + x
			if !mask[seed] || labels[seed] != 0 {
				continue
			}
			comps = append(comps, fillComponent(mask, labels, stack, w, h, x, y, next))
			next++
		}
	}
	return comps, labels
}

// fillComponent flood-fills one component from a seed pixel.
func fillComponent(mask []bool, labels []int32, stack []int, w, h, startX, startY int, label int32) component {
	st := component{minX: startX, minY: startY, maxX: startX, maxY: startY}
	seed := startY*w + startX
	labels[seed] = label
	stack = append(stack[:0], seed)

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w

		st.count++
		st.sumX += float64(x)
		st.sumY += float64(y)
		if x < st.minX {
			st.minX = x
		}
		if y < st.minY {
			st.minY = y
		}
		if x > st.maxX {
			st.maxX = x
		}
		if y > st.maxY {
			st.maxY = y
		}

		if x > 0 && mask[i-1] && labels[i-1] == 0 {
			labels[i-1] = label
			stack = append(stack, i-1)
		}
		if x < w-1 && mask[i+1] && labels[i+1] == 0 {
			labels[i+1] = label
			stack = append(stack, i+1)
		}
		if y > 0 && mask[i-w] && labels[i-w] == 0 {
			labels[i-w] = label
			stack = append(stack, i-w)
		}
		if y < h-1 && mask[i+w] && labels[i+w] == 0 {
			labels[i+w] = label
			stack = append(stack, i+w)
		}
	}
	return st
}

// toContour converts component stats into a Contour.
func (c component) toContour(boundary []geometry.Point) Contour {
	centroid := geometry.Point{}
	if c.count > 0 {
		centroid = geometry.Point{X: c.sumX / float64(c.count), Y: c.sumY / float64(c.count)}
	}
	return Contour{
		Box: geometry.NewBox(float64(c.minX), float64(c.minY),
			float64(c.maxX+1), float64(c.maxY+1)),
		Centroid: centroid,
		Area:     float64(c.count),
		Boundary: boundary,
	}
}

// traceBoundary collects the component's border pixels (those with at least
// one non-member 4-neighbor) in scan order and subsamples them to at most
// maxPoints.
func traceBoundary(labels []int32, w, h int, label int32, c component, maxPoints int) []geometry.Point {
	var border []geometry.Point
	for y := c.minY; y <= c.maxY; y++ {
		for x := c.minX; x <= c.maxX; x++ {
			i := y*w + x
			if labels[i] != label {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 ||
				labels[i-1] != label || labels[i+1] != label ||
				labels[i-w] != label || labels[i+w] != label {
				border = append(border, geometry.Point{X: float64(x), Y: float64(y)})
			}
		}
	}
	if maxPoints <= 0 || len(border) <= maxPoints {
		return border
	}
	step := float64(len(border)) / float64(maxPoints)
	out := make([]geometry.Point, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		out = append(out, border[int(float64(i)*step)])
	}
	return out
}
