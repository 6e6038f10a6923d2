package layout

import (
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
)

// graphEdge is one directed edge of the undirected adjacency graph.
type graphEdge struct {
	to  string
	dir geometry.Direction
}

// layoutFromAdjacency places rooms by breadth-first traversal of the
// adjacency graph, offsetting each neighbor from its base room by half
// extents plus wall thickness along the shared-wall axis. Rooms unreachable
// from the entry are appended in an overflow row clear of the main cluster
// so the layout stays valid with an incomplete graph.
func (e *Engine) layoutFromAdjacency(rooms []floorplan.UnifiedRoom, rels []floorplan.AdjacencyRelation, opts Options) ([]floorplan.PlacedRoom, bool) {
	byID := make(map[string]floorplan.UnifiedRoom, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}

	// Store both directions; the reverse edge inverts the direction.
	graph := make(map[string][]graphEdge, len(rooms))
	for _, rel := range rels {
		if _, ok := byID[rel.Room1ID]; !ok {
			continue
		}
		if _, ok := byID[rel.Room2ID]; !ok {
			continue
		}
		graph[rel.Room1ID] = append(graph[rel.Room1ID], graphEdge{to: rel.Room2ID, dir: rel.Edge})
		graph[rel.Room2ID] = append(graph[rel.Room2ID], graphEdge{to: rel.Room1ID, dir: rel.Edge.Opposite()})
	}
	if len(graph) == 0 {
		return nil, false
	}

	origin := opts.EntryRoomID
	if _, ok := byID[origin]; !ok || origin == "" {
		origin = rooms[0].ID
	}

	positions := make(map[string][2]float64, len(rooms)) // x, z
	positions[origin] = [2]float64{0, 0}
	queue := []string{origin}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		base := byID[cur]
		basePos := positions[cur]

		for _, edge := range graph[cur] {
			if _, done := positions[edge.to]; done {
				continue
			}
			next := byID[edge.to]
			x, z := offsetAlong(basePos, base, next, edge.dir)
			x, z = e.nudgeClear(x, z, next, edge.dir, byID, positions)
			positions[edge.to] = [2]float64{x, z}
			queue = append(queue, edge.to)
		}
	}

	placed := make([]floorplan.PlacedRoom, 0, len(rooms))
	var cluster []floorplan.PlacedRoom
	var overflow []floorplan.UnifiedRoom
	for _, r := range rooms {
		if pos, ok := positions[r.ID]; ok {
			cluster = append(cluster, placeRoom(r, pos[0], pos[1], opts.CeilingHeight))
		} else {
			overflow = append(overflow, r)
		}
	}
	placed = append(placed, cluster...)
	placed = append(placed, e.overflowRow(cluster, overflow, opts)...)
	return placed, true
}

// offsetAlong computes next's center given base's center and the direction
// of the shared wall. The perpendicular coordinate stays equal to the
// base's, keeping shared-wall rooms face-aligned. North is negative z.
func offsetAlong(basePos [2]float64, base, next floorplan.UnifiedRoom, dir geometry.Direction) (float64, float64) {
	x, z := basePos[0], basePos[1]
	switch dir {
	case geometry.North:
		z -= base.Depth/2 + WallThickness + next.Depth/2
	case geometry.South:
		z += base.Depth/2 + WallThickness + next.Depth/2
	case geometry.East:
		x += base.Width/2 + WallThickness + next.Width/2
	case geometry.West:
		x -= base.Width/2 + WallThickness + next.Width/2
	}
	return x, z
}

// nudgeClear pushes a candidate position further along its offset axis
// while it collides with an already placed room. Bounded so a pathological
// graph cannot loop forever; residual overlaps are the validator's job.
func (e *Engine) nudgeClear(x, z float64, room floorplan.UnifiedRoom, dir geometry.Direction,
	byID map[string]floorplan.UnifiedRoom, positions map[string][2]float64,
) (float64, float64) {
	step := room.Width + WallThickness
	if dir == geometry.North || dir == geometry.South {
		step = room.Depth + WallThickness
	}
	for range 8 {
		if !collides(x, z, room, byID, positions) {
			break
		}
		switch dir {
		case geometry.North:
			z -= step
		case geometry.South:
			z += step
		case geometry.East:
			x += step
		case geometry.West:
			x -= step
		}
	}
	return x, z
}

// collides reports whether a room footprint at (x, z) overlaps any
// positioned room.
func collides(x, z float64, room floorplan.UnifiedRoom,
	byID map[string]floorplan.UnifiedRoom, positions map[string][2]float64,
) bool {
	box := geometry.BoxFromCenter(x, z, room.Width, room.Depth)
	for id, pos := range positions {
		other := byID[id]
		obox := geometry.BoxFromCenter(pos[0], pos[1], other.Width, other.Depth)
		if box.MinX < obox.MaxX && box.MaxX > obox.MinX &&
			box.MinY < obox.MaxY && box.MaxY > obox.MinY {
			return true
		}
	}
	return false
}

// overflowRow places disconnected rooms left to right beyond the cluster's
// east edge.
func (e *Engine) overflowRow(cluster []floorplan.PlacedRoom, overflow []floorplan.UnifiedRoom, opts Options) []floorplan.PlacedRoom {
	if len(overflow) == 0 {
		return nil
	}
	maxX := 0.0
	for _, p := range cluster {
		if edge := p.Position[0] + p.Dimensions[0]/2; edge > maxX {
			maxX = edge
		}
	}
	x := maxX + e.cfg.OverflowGap
	out := make([]floorplan.PlacedRoom, 0, len(overflow))
	for _, r := range overflow {
		out = append(out, placeRoom(r, x+r.Width/2, 0, opts.CeilingHeight))
		x += r.Width + WallThickness
	}
	return out
}
