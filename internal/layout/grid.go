package layout

import (
	"math"
	"strings"

	"github.com/planlift/planlift/internal/floorplan"
)

// roomCategory orders rooms into a conventional dwelling layout: entry and
// reception near the front, bedrooms clustered, bathrooms next to bedrooms.
type roomCategory int

const (
	catEntry roomCategory = iota
	catReception
	catKitchen
	catBedroom
	catBathroom
	catHallway
	catOther
)

var categoryKeywords = []struct {
	cat      roomCategory
	keywords []string
}{
	{catEntry, []string{"entry", "entrance", "foyer", "porch", "mudroom", "vestibule"}},
	{catReception, []string{"living", "lounge", "reception", "sitting", "family", "dining"}},
	{catKitchen, []string{"kitchen", "pantry", "utility", "laundry"}},
	{catBedroom, []string{"bed", "master", "guest", "nursery", "study", "office"}},
	{catBathroom, []string{"bath", "toilet", "wc", "ensuite", "shower", "cloakroom"}},
	{catHallway, []string{"hall", "corridor", "landing", "stair", "passage"}},
}

// categorize maps a room name to its layout category by keyword.
func categorize(name string) roomCategory {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.cat
			}
		}
	}
	return catOther
}

// layoutOnGrid is the terminal fallback: no geometry or adjacency needed,
// applicable to any non-empty room set. Rooms are grouped by category and
// flowed row by row inside a target width derived from the total area.
func (e *Engine) layoutOnGrid(rooms []floorplan.UnifiedRoom, opts Options) []floorplan.PlacedRoom {
	var totalArea float64
	for _, r := range rooms {
		totalArea += r.Width * r.Depth
	}
	targetWidth := math.Sqrt(totalArea * e.cfg.TargetAspectRatio)

	// Stable order: categories front to back, input order within one.
	// A room name matching several keywords must still be placed once,
	// so membership is tracked by id.
	ordered := make([]floorplan.UnifiedRoom, 0, len(rooms))
	seen := make(map[string]bool, len(rooms))
	for cat := catEntry; cat <= catOther; cat++ {
		for _, r := range rooms {
			if seen[r.ID] || categorize(r.Name) != cat {
				continue
			}
			seen[r.ID] = true
			ordered = append(ordered, r)
		}
	}

	placed := make([]floorplan.PlacedRoom, 0, len(ordered))
	x, z := 0.0, 0.0
	rowDepth := 0.0
	for _, r := range ordered {
		if x > 0 && x+r.Width > targetWidth {
			x = 0
			z += rowDepth + WallThickness
			rowDepth = 0
		}
		placed = append(placed, placeRoom(r, x+r.Width/2, z+r.Depth/2, opts.CeilingHeight))
		x += r.Width + WallThickness
		if r.Depth > rowDepth {
			rowDepth = r.Depth
		}
	}
	return placed
}
