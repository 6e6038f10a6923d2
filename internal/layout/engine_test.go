package layout

import (
	"testing"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unified(id string, w, d float64, box geometry.Box) floorplan.UnifiedRoom {
	return floorplan.UnifiedRoom{
		SemanticRoom: floorplan.SemanticRoom{ID: id, Name: id, Width: w, Depth: d},
		BBox:         box,
		Centroid:     box.Center(),
		AreaPixels:   box.Area(),
	}
}

func findPlaced(t *testing.T, placed []floorplan.PlacedRoom, id string) floorplan.PlacedRoom {
	t.Helper()
	for _, p := range placed {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("room %s not placed", id)
	return floorplan.PlacedRoom{}
}

func TestLayout_EmptyRooms(t *testing.T) {
	e := NewEngine(DefaultConfig())
	_, _, err := e.Layout(nil, nil, Options{})
	require.ErrorIs(t, err, floorplan.ErrNoRooms)
}

func TestLayout_PixelStrategyExactScale(t *testing.T) {
	// Two 300px boxes for 3m rooms: scale is exactly 100 px/m.
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("a", 3, 3, geometry.NewBox(0, 0, 300, 300)),
		unified("b", 3, 3, geometry.NewBox(310, 0, 610, 300)),
	}
	placed, method, err := e.Layout(rooms, nil, Options{CeilingHeight: 2.4})
	require.NoError(t, err)
	assert.Equal(t, MethodPixel, method)
	require.Len(t, placed, 2)

	a := findPlaced(t, placed, "a")
	b := findPlaced(t, placed, "b")

	// Centroids are 310px apart on x: 3.1m at scale 100.
	assert.InDelta(t, 3.1, b.Position[0]-a.Position[0], 1e-9)
	assert.InDelta(t, 0, b.Position[2]-a.Position[2], 1e-9)
	// Placement is centered on the room set.
	assert.InDelta(t, -1.55, a.Position[0], 1e-9)
	assert.InDelta(t, 1.55, b.Position[0], 1e-9)
}

func TestLayout_PixelStrategyMapsImageYToWorldZ(t *testing.T) {
	e := NewEngine(DefaultConfig())
	// b is below a in the image (larger y), so it must land at larger z.
	rooms := []floorplan.UnifiedRoom{
		unified("a", 3, 3, geometry.NewBox(0, 0, 300, 300)),
		unified("b", 3, 3, geometry.NewBox(0, 310, 300, 610)),
	}
	placed, method, err := e.Layout(rooms, nil, Options{CeilingHeight: 2.4})
	require.NoError(t, err)
	assert.Equal(t, MethodPixel, method)

	a := findPlaced(t, placed, "a")
	b := findPlaced(t, placed, "b")
	assert.Greater(t, b.Position[2], a.Position[2])
	assert.InDelta(t, a.Position[0], b.Position[0], 1e-9)
}

func TestLayout_PixelStrategyAbstainsOnNoise(t *testing.T) {
	// Degenerate boxes imply absurd pixel scales; the engine must fall
	// through rather than trust them.
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("a", 3, 3, geometry.NewBox(0, 0, 3, 3)),     // scale 1, under min
		unified("b", 3, 3, geometry.NewBox(10, 0, 3000, 3)), // absurd aspect
	}
	placed, method, err := e.Layout(rooms, nil, Options{CeilingHeight: 2.4})
	require.NoError(t, err)
	assert.Equal(t, MethodGrid, method)
	require.Len(t, placed, 2)
}

func TestLayout_SyntheticSkipsPixelStrategy(t *testing.T) {
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("a", 3, 3, geometry.NewBox(0, 0, 300, 300)),
		unified("b", 3, 3, geometry.NewBox(310, 0, 610, 300)),
	}
	_, method, err := e.Layout(rooms, nil, Options{CeilingHeight: 2.4, Synthetic: true})
	require.NoError(t, err)
	assert.Equal(t, MethodGrid, method, "synthetic pixel coordinates must not drive placement")
}

func TestLayout_AdjacencyBFSEastPlacement(t *testing.T) {
	// Entry 2.4m wide, kitchen 2.8m wide, kitchen east of entry:
	// kitchen center x = 1.2 + 0.1 + 1.4 = 2.6.
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("entry", 2.4, 2.0, geometry.Box{}),
		unified("kitchen", 2.8, 3.0, geometry.Box{}),
	}
	rels := []floorplan.AdjacencyRelation{
		{Room1ID: "entry", Room2ID: "kitchen", Edge: geometry.East},
	}
	placed, method, err := e.Layout(rooms, rels, Options{CeilingHeight: 2.4, EntryRoomID: "entry", Synthetic: true})
	require.NoError(t, err)
	assert.Equal(t, MethodBFS, method)

	entry := findPlaced(t, placed, "entry")
	kitchen := findPlaced(t, placed, "kitchen")
	assert.Equal(t, [3]float64{0, 0, 0}, entry.Position)
	assert.InDelta(t, 2.6, kitchen.Position[0], 1e-9)
	assert.InDelta(t, 0, kitchen.Position[1], 1e-9)
	assert.InDelta(t, 0, kitchen.Position[2], 1e-9)
}

func TestLayout_AdjacencyBFSNorthIsNegativeZ(t *testing.T) {
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("entry", 3, 3, geometry.Box{}),
		unified("bedroom", 3, 3, geometry.Box{}),
	}
	rels := []floorplan.AdjacencyRelation{
		{Room1ID: "entry", Room2ID: "bedroom", Edge: geometry.North},
	}
	placed, _, err := e.Layout(rooms, rels, Options{CeilingHeight: 2.4, EntryRoomID: "entry", Synthetic: true})
	require.NoError(t, err)

	bedroom := findPlaced(t, placed, "bedroom")
	assert.InDelta(t, -3.1, bedroom.Position[2], 1e-9)
}

func TestLayout_AdjacencyBFSReverseEdgeFromEntry(t *testing.T) {
	// The relation names the entry as room2; traversal from the entry must
	// use the opposite direction.
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("entry", 3, 3, geometry.Box{}),
		unified("kitchen", 3, 3, geometry.Box{}),
	}
	rels := []floorplan.AdjacencyRelation{
		{Room1ID: "kitchen", Room2ID: "entry", Edge: geometry.East},
	}
	placed, _, err := e.Layout(rooms, rels, Options{CeilingHeight: 2.4, EntryRoomID: "entry", Synthetic: true})
	require.NoError(t, err)

	kitchen := findPlaced(t, placed, "kitchen")
	// Entry is east of kitchen, so kitchen is west of entry.
	assert.InDelta(t, -3.1, kitchen.Position[0], 1e-9)
}

func TestLayout_AdjacencyBFSDisconnectedOverflow(t *testing.T) {
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("entry", 3, 3, geometry.Box{}),
		unified("kitchen", 3, 3, geometry.Box{}),
		unified("island", 3, 3, geometry.Box{}),
	}
	rels := []floorplan.AdjacencyRelation{
		{Room1ID: "entry", Room2ID: "kitchen", Edge: geometry.East},
	}
	placed, _, err := e.Layout(rooms, rels, Options{CeilingHeight: 2.4, EntryRoomID: "entry", Synthetic: true})
	require.NoError(t, err)
	require.Len(t, placed, 3)

	island := findPlaced(t, placed, "island")
	kitchen := findPlaced(t, placed, "kitchen")
	assert.Greater(t, island.Position[0], kitchen.Position[0]+kitchen.Dimensions[0]/2,
		"disconnected room must land beyond the cluster")

	report := Validate(placed)
	assert.True(t, report.IsValid)
}

func TestLayout_AdjacencyBFSCollisionNudge(t *testing.T) {
	// Two different rooms both east of the entry: the second must be
	// nudged past the first instead of stacking on it.
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("entry", 3, 3, geometry.Box{}),
		unified("kitchen", 3, 3, geometry.Box{}),
		unified("dining", 3, 3, geometry.Box{}),
	}
	rels := []floorplan.AdjacencyRelation{
		{Room1ID: "entry", Room2ID: "kitchen", Edge: geometry.East},
		{Room1ID: "entry", Room2ID: "dining", Edge: geometry.East},
	}
	placed, _, err := e.Layout(rooms, rels, Options{CeilingHeight: 2.4, EntryRoomID: "entry", Synthetic: true})
	require.NoError(t, err)

	report := Validate(placed)
	assert.True(t, report.IsValid, "nudged placement must not overlap: %+v", report.Overlaps)
}

func TestLayout_GridStrategyNoOverlaps(t *testing.T) {
	e := NewEngine(DefaultConfig())
	names := []string{"entry", "living room", "kitchen", "bedroom 1", "bedroom 2", "bathroom", "hallway"}
	var rooms []floorplan.UnifiedRoom
	for _, n := range names {
		rooms = append(rooms, unified(n, 3.5, 4, geometry.Box{}))
	}
	placed, method, err := e.Layout(rooms, nil, Options{CeilingHeight: 2.4, Synthetic: true})
	require.NoError(t, err)
	assert.Equal(t, MethodGrid, method)
	require.Len(t, placed, len(names))

	report := Validate(placed)
	assert.True(t, report.IsValid, "grid layout must never overlap: %+v", report.Overlaps)
}

func TestLayout_GridOrdersEntryFirst(t *testing.T) {
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{
		unified("bedroom", 3, 3, geometry.Box{}),
		unified("entry hall", 3, 3, geometry.Box{}),
	}
	placed, _, err := e.Layout(rooms, nil, Options{CeilingHeight: 2.4, Synthetic: true})
	require.NoError(t, err)
	// Entry category leads the grid order.
	assert.Equal(t, "entry hall", placed[0].ID)
}

func TestLayout_CeilingHeightDefaultApplied(t *testing.T) {
	e := NewEngine(DefaultConfig())
	rooms := []floorplan.UnifiedRoom{unified("a", 3, 3, geometry.Box{})}
	placed, _, err := e.Layout(rooms, nil, Options{Synthetic: true})
	require.NoError(t, err)
	assert.InDelta(t, floorplan.DefaultCeilingHeight, placed[0].Dimensions[1], 1e-9)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		want roomCategory
	}{
		{"Entry Hall", catEntry},
		{"Living Room", catReception},
		{"Kitchen/Diner", catKitchen},
		{"Master Bedroom", catBedroom},
		{"En-suite Bathroom", catBathroom},
		{"Upstairs Landing", catHallway},
		{"Garage", catOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.name))
		})
	}
}

func TestRoomScaleBounds(t *testing.T) {
	e := NewEngine(DefaultConfig())

	sx, sy, ok := e.roomScale(unified("a", 3, 3, geometry.NewBox(0, 0, 300, 300)))
	require.True(t, ok)
	assert.InDelta(t, 100, sx, 1e-9)
	assert.InDelta(t, 100, sy, 1e-9)

	_, _, ok = e.roomScale(unified("b", 3, 3, geometry.NewBox(0, 0, 3, 3)))
	assert.False(t, ok, "scale 1 px/m is below the sane minimum")

	_, _, ok = e.roomScale(unified("c", 0, 3, geometry.NewBox(0, 0, 300, 300)))
	assert.False(t, ok, "zero metric width cannot imply a scale")
}
