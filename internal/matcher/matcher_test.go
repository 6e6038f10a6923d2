package matcher

import (
	"testing"

	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contourAt(x1, y1, x2, y2 float64) detector.Contour {
	box := geometry.NewBox(x1, y1, x2, y2)
	return detector.Contour{Box: box, Centroid: box.Center(), Area: box.Area()}
}

func labeledRoom(id string, x, y float64) floorplan.SemanticRoom {
	return floorplan.SemanticRoom{
		ID: id, Name: id, Width: 3, Depth: 3,
		LabelPosition: &geometry.Point{X: x, Y: y},
	}
}

func TestMatch_Containment(t *testing.T) {
	m := New(DefaultConfig())
	contours := []detector.Contour{
		contourAt(0, 0, 100, 100),
		contourAt(120, 0, 220, 100),
	}
	rooms := []floorplan.SemanticRoom{
		labeledRoom("a", 50, 50),
		labeledRoom("b", 170, 50),
	}
	res := m.Match(rooms, contours, 0)
	require.Len(t, res.Matches, 2)
	assert.Empty(t, res.Unmatched)
	assert.Equal(t, MatchExact, res.Matches[0].Type)
	assert.Equal(t, MatchExact, res.Matches[1].Type)
	assert.InDelta(t, 1.0, res.MatchRate(), 1e-9)
}

func TestMatch_ContainmentWithinMargin(t *testing.T) {
	// Label 15px outside the box still matches under the 20px margin.
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(0, 0, 100, 100)}
	rooms := []floorplan.SemanticRoom{labeledRoom("a", 115, 50)}

	res := m.Match(rooms, contours, 0)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, MatchExact, res.Matches[0].Type)
}

func TestMatch_NearFallback(t *testing.T) {
	// Label outside margin but within the near-match distance cap.
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(0, 0, 100, 100)}
	rooms := []floorplan.SemanticRoom{labeledRoom("a", 200, 50)}

	res := m.Match(rooms, contours, 0)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, MatchNear, res.Matches[0].Type)
	assert.InDelta(t, 150, res.Matches[0].Distance, 1e-9)
}

func TestMatch_NearBeyondCapUnmatched(t *testing.T) {
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(0, 0, 100, 100)}
	rooms := []floorplan.SemanticRoom{labeledRoom("a", 500, 50)}

	res := m.Match(rooms, contours, 0)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []string{"a"}, res.Unmatched)
}

func TestMatch_ContourUsedOnce(t *testing.T) {
	// Two rooms, one contour: the closer room wins, the other must not
	// reuse the same contour.
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(0, 0, 100, 100)}
	rooms := []floorplan.SemanticRoom{
		labeledRoom("near", 50, 50),
		labeledRoom("far", 60, 50),
	}
	res := m.Match(rooms, contours, 0)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "near", res.Matches[0].Room.ID)
	assert.Equal(t, []string{"far"}, res.Unmatched)
}

func TestMatch_NoLabelPositionUnmatched(t *testing.T) {
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(0, 0, 100, 100)}
	rooms := []floorplan.SemanticRoom{{ID: "a", Name: "a", Width: 3, Depth: 3}}

	res := m.Match(rooms, contours, 0)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []string{"a"}, res.Unmatched)
}

func TestMatch_PrefilterDropsTinyContours(t *testing.T) {
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(40, 40, 60, 60)} // 400 px, under min
	rooms := []floorplan.SemanticRoom{labeledRoom("a", 50, 50)}

	res := m.Match(rooms, contours, 0)
	assert.Empty(t, res.Matches)
}

func TestMatch_PrefilterDropsOutline(t *testing.T) {
	// One giant contour (the floorplan outline) over several normal rooms.
	m := New(DefaultConfig())
	contours := []detector.Contour{
		contourAt(0, 0, 1000, 1000), // 1e6 px
		contourAt(0, 0, 100, 100),
		contourAt(120, 0, 220, 100),
		contourAt(240, 0, 340, 100),
	}
	rooms := []floorplan.SemanticRoom{labeledRoom("a", 500, 500)}

	// Image area 1e6: outline exceeds the 25% image-fraction cap.
	res := m.Match(rooms, contours, 1_000_000)
	assert.Empty(t, res.Matches, "label at outline center must not bind to the outline")
}

func TestMatch_PrefilterDropsBadAspect(t *testing.T) {
	m := New(DefaultConfig())
	contours := []detector.Contour{contourAt(0, 0, 2000, 100)} // aspect 20
	rooms := []floorplan.SemanticRoom{labeledRoom("a", 1000, 50)}

	res := m.Match(rooms, contours, 0)
	assert.Empty(t, res.Matches)
}

func TestMatchRate_EmptyInput(t *testing.T) {
	assert.Zero(t, Result{}.MatchRate())
}
