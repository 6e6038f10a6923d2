package layout

import (
	"math"

	"github.com/planlift/planlift/internal/floorplan"
)

// Validation tolerances in meters.
const (
	// overlapTolerance ignores numerical-noise intersections.
	overlapTolerance = 0.05
	// gapReportLimit caps how large a gap is still worth flagging:
	// beyond it rooms are simply not adjacent.
	gapReportLimit = 0.5
)

// Overlap reports two rooms whose footprints intersect.
type Overlap struct {
	Room1ID string  `json:"room1"`
	Room2ID string  `json:"room2"`
	Depth   float64 `json:"depth"` // meters of penetration on the shallower axis
}

// Gap reports two almost-touching rooms with a sliver of space between
// them, wider than a wall but under the report limit. A warning, not an
// error: such rooms were probably meant to be adjacent.
type Gap struct {
	Room1ID  string  `json:"room1"`
	Room2ID  string  `json:"room2"`
	Distance float64 `json:"distance"`
}

// Report is the validation outcome. IsValid is true iff no overlaps were
// found; gaps never invalidate a layout.
type Report struct {
	IsValid  bool      `json:"isValid"`
	Overlaps []Overlap `json:"overlaps"`
	Gaps     []Gap     `json:"gaps"`
}

// Validate checks a finished layout for room pair overlaps and suspicious
// gaps. It is a pure function of its input: repeated runs over the same
// placement yield identical reports.
func Validate(rooms []floorplan.PlacedRoom) Report {
	report := Report{IsValid: true}
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			a := rooms[i].Footprint()
			b := rooms[j].Footprint()

			overlapX := math.Min(a.MaxX, b.MaxX) - math.Max(a.MinX, b.MinX)
			overlapZ := math.Min(a.MaxY, b.MaxY) - math.Max(a.MinY, b.MinY)

			if overlapX > 0 && overlapZ > 0 {
				depth := math.Min(overlapX, overlapZ)
				if depth > overlapTolerance {
					report.Overlaps = append(report.Overlaps, Overlap{
						Room1ID: rooms[i].ID, Room2ID: rooms[j].ID, Depth: depth,
					})
					report.IsValid = false
				}
				continue
			}

			// Separated: true 2D minimum distance between the boxes.
			gapX := -overlapX
			gapZ := -overlapZ
			var dist float64
			switch {
			case overlapX <= 0 && overlapZ <= 0:
				dist = math.Hypot(gapX, gapZ)
			case overlapX <= 0:
				dist = gapX
			default:
				dist = gapZ
			}
			if dist > WallThickness+overlapTolerance && dist < gapReportLimit {
				report.Gaps = append(report.Gaps, Gap{
					Room1ID: rooms[i].ID, Room2ID: rooms[j].ID, Distance: dist,
				})
			}
		}
	}
	return report
}
