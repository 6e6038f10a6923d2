package matcher

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_Empty(t *testing.T) {
	assert.Nil(t, Synthesize(nil, 1000, 800, DefaultSyntheticConfig()))
}

func TestSynthesize_KeepsLabeledRoomsNearLabels(t *testing.T) {
	rooms := []floorplan.SemanticRoom{
		labeledRoom("a", 200, 200),
		labeledRoom("b", 700, 600),
	}
	out := Synthesize(rooms, 1000, 800, DefaultSyntheticConfig())
	require.Len(t, out, 2)

	// Far apart labels need no push; centroids stay at the labels.
	assert.InDelta(t, 200, out[0].Centroid.X, 1e-9)
	assert.InDelta(t, 200, out[0].Centroid.Y, 1e-9)
	assert.InDelta(t, 700, out[1].Centroid.X, 1e-9)
	assert.InDelta(t, 600, out[1].Centroid.Y, 1e-9)
}

func TestSynthesize_PushesOverlappingApart(t *testing.T) {
	rooms := []floorplan.SemanticRoom{
		labeledRoom("a", 400, 400),
		labeledRoom("b", 410, 400),
	}
	cfg := DefaultSyntheticConfig()
	out := Synthesize(rooms, 1000, 800, cfg)
	require.Len(t, out, 2)

	minSep := (out[0].BBox.Width() + out[1].BBox.Width()) / 2
	dist := out[0].Centroid.Distance(out[1].Centroid)
	assert.GreaterOrEqual(t, dist, minSep, "rooms must not overlap after push-apart")
}

func TestSynthesize_CoincidentLabels(t *testing.T) {
	rooms := []floorplan.SemanticRoom{
		labeledRoom("a", 500, 400),
		labeledRoom("b", 500, 400),
	}
	out := Synthesize(rooms, 1000, 800, DefaultSyntheticConfig())
	require.Len(t, out, 2)
	assert.NotEqual(t, out[0].Centroid, out[1].Centroid)
	// Coincident labels separate along x.
	assert.InDelta(t, out[0].Centroid.Y, out[1].Centroid.Y, 1e-9)
}

func TestSynthesize_FlowForUnlabeled(t *testing.T) {
	rooms := []floorplan.SemanticRoom{
		labeledRoom("a", 200, 200),
		{ID: "b", Name: "b", Width: 3, Depth: 3},
		{ID: "c", Name: "c", Width: 3, Depth: 3},
	}
	out := Synthesize(rooms, 1000, 800, DefaultSyntheticConfig())
	require.Len(t, out, 3)

	// Flow rooms land in the lower canvas band, left to right.
	assert.Greater(t, out[1].Centroid.Y, 400.0)
	assert.Greater(t, out[2].Centroid.X, out[1].Centroid.X)
}

func TestSynthesize_GridFallbackNoOverlap(t *testing.T) {
	var rooms []floorplan.SemanticRoom
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, n := range names {
		rooms = append(rooms, floorplan.SemanticRoom{ID: n, Name: n, Width: 3, Depth: 4})
	}
	out := Synthesize(rooms, 1000, 800, DefaultSyntheticConfig())
	require.Len(t, out, len(rooms))
	assertNoBoxOverlap(t, out)
}

func assertNoBoxOverlap(t *testing.T, rooms []floorplan.UnifiedRoom) {
	t.Helper()
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			a, b := rooms[i].BBox, rooms[j].BBox
			overlapX := math.Min(a.MaxX, b.MaxX) - math.Max(a.MinX, b.MinX)
			overlapY := math.Min(a.MaxY, b.MaxY) - math.Max(a.MinY, b.MinY)
			assert.False(t, overlapX > 1e-9 && overlapY > 1e-9,
				"rooms %s and %s overlap", rooms[i].ID, rooms[j].ID)
		}
	}
}

func TestSynthesize_PairSeparationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	properties.Property("two labeled rooms never end up closer than their combined half-widths",
		prop.ForAll(
			func(x1, y1, x2, y2, w1, w2 float64) bool {
				rooms := []floorplan.SemanticRoom{
					{ID: "a", Name: "a", Width: w1, Depth: 3,
						LabelPosition: &geometry.Point{X: x1, Y: y1}},
					{ID: "b", Name: "b", Width: w2, Depth: 3,
						LabelPosition: &geometry.Point{X: x2, Y: y2}},
				}
				out := Synthesize(rooms, 1000, 800, DefaultSyntheticConfig())
				if len(out) != 2 {
					return false
				}
				minSep := (out[0].BBox.Width() + out[1].BBox.Width()) / 2
				return out[0].Centroid.Distance(out[1].Centroid) >= minSep-1e-6
			},
			gen.Float64Range(0, 1000),
			gen.Float64Range(0, 800),
			gen.Float64Range(0, 1000),
			gen.Float64Range(0, 800),
			gen.Float64Range(1, 8),
			gen.Float64Range(1, 8),
		))
	properties.TestingRun(t)
}
