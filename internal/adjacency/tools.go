package adjacency

import (
	"encoding/json"
	"fmt"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
	"github.com/planlift/planlift/internal/oracle"
)

// spatialTools describes the three spatial primitives exposed to the
// oracle. They are the complete vocabulary it may use.
func spatialTools() []oracle.Tool {
	return []oracle.Tool{
		{
			Type: "function",
			Function: oracle.ToolFunction{
				Name:        "edge_distance",
				Description: "Signed pixel gap between room1's edge in the given direction and room2's facing edge. Positive means separated, negative overlapping, near zero a shared-wall candidate.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"room1": {"type": "string"},
						"room2": {"type": "string"},
						"direction": {"type": "string", "enum": ["north", "south", "east", "west"]}
					},
					"required": ["room1", "room2", "direction"]
				}`),
			},
		},
		{
			Type: "function",
			Function: oracle.ToolFunction{
				Name:        "overlap_percentage",
				Description: "Shared extent of two rooms on the given axis as a percentage of the smaller room's extent. Use the axis perpendicular to the candidate wall direction.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"room1": {"type": "string"},
						"room2": {"type": "string"},
						"axis": {"type": "string", "enum": ["x", "y"]}
					},
					"required": ["room1", "room2", "axis"]
				}`),
			},
		},
		{
			Type: "function",
			Function: oracle.ToolFunction{
				Name:        "nearby_rooms",
				Description: "All rooms whose minimum edge distance from the given room in any cardinal direction is at most max_distance pixels, sorted ascending, each tagged with its closest direction.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"room": {"type": "string"},
						"max_distance": {"type": "number"}
					},
					"required": ["room", "max_distance"]
				}`),
			},
		},
	}
}

// toolExecutor runs spatial tool calls against a fixed room set.
type toolExecutor struct {
	rooms []floorplan.UnifiedRoom
	index map[string]int
}

func newToolExecutor(rooms []floorplan.UnifiedRoom) *toolExecutor {
	index := make(map[string]int, len(rooms))
	for i, r := range rooms {
		index[r.ID] = i
	}
	return &toolExecutor{rooms: rooms, index: index}
}

// execute runs one tool call and returns its JSON result. Errors are
// reported back to the oracle as content, never raised: a bad argument is
// the oracle's problem to correct on the next turn.
func (e *toolExecutor) execute(tc oracle.ToolCall) string {
	result, err := e.dispatch(tc)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}

func (e *toolExecutor) dispatch(tc oracle.ToolCall) (any, error) {
	switch tc.Function.Name {
	case "edge_distance":
		var args struct {
			Room1     string `json:"room1"`
			Room2     string `json:"room2"`
			Direction string `json:"direction"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("bad edge_distance arguments: %w", err)
		}
		a, b, err := e.pair(args.Room1, args.Room2)
		if err != nil {
			return nil, err
		}
		dist, err := geometry.EdgeDistance(a.BBox, b.BBox, geometry.Direction(args.Direction))
		if err != nil {
			return nil, err
		}
		return map[string]float64{"distance": dist}, nil

	case "overlap_percentage":
		var args struct {
			Room1 string `json:"room1"`
			Room2 string `json:"room2"`
			Axis  string `json:"axis"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("bad overlap_percentage arguments: %w", err)
		}
		a, b, err := e.pair(args.Room1, args.Room2)
		if err != nil {
			return nil, err
		}
		axis := geometry.AxisX
		switch args.Axis {
		case "x":
		case "y":
			axis = geometry.AxisY
		default:
			return nil, fmt.Errorf("unknown axis %q", args.Axis)
		}
		return map[string]float64{"overlapPercent": geometry.OverlapPercentage(a.BBox, b.BBox, axis)}, nil

	case "nearby_rooms":
		var args struct {
			Room        string  `json:"room"`
			MaxDistance float64 `json:"max_distance"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("bad nearby_rooms arguments: %w", err)
		}
		from, ok := e.index[args.Room]
		if !ok {
			return nil, fmt.Errorf("unknown room %q", args.Room)
		}
		boxes := make([]geometry.Box, len(e.rooms))
		for i, r := range e.rooms {
			boxes[i] = r.BBox
		}
		neighbors := geometry.NearbyBoxes(boxes, from, args.MaxDistance)
		type nearby struct {
			ID        string  `json:"id"`
			Distance  float64 `json:"distance"`
			Direction string  `json:"direction"`
		}
		out := make([]nearby, len(neighbors))
		for i, n := range neighbors {
			out[i] = nearby{
				ID:        e.rooms[n.Index].ID,
				Distance:  n.Distance,
				Direction: string(n.Direction),
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown tool %q", tc.Function.Name)
}

// pair looks up two rooms by id.
func (e *toolExecutor) pair(id1, id2 string) (floorplan.UnifiedRoom, floorplan.UnifiedRoom, error) {
	i, ok := e.index[id1]
	if !ok {
		return floorplan.UnifiedRoom{}, floorplan.UnifiedRoom{}, fmt.Errorf("unknown room %q", id1)
	}
	j, ok := e.index[id2]
	if !ok {
		return floorplan.UnifiedRoom{}, floorplan.UnifiedRoom{}, fmt.Errorf("unknown room %q", id2)
	}
	return e.rooms[i], e.rooms[j], nil
}
