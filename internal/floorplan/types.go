// Package floorplan defines the data model shared across the analysis
// pipeline: semantic rooms from the vision oracle, rooms unified with
// detected geometry, adjacency relations and the final placed layout.
package floorplan

import (
	"github.com/planlift/planlift/internal/geometry"
)

// Measurements preserves the display strings reported by the vision oracle
// before unit conversion.
type Measurements struct {
	Width string `json:"width,omitempty"`
	Depth string `json:"depth,omitempty"`
}

// SemanticRoom is a room record supplied by the external vision oracle.
// It carries semantics (name, real-world dimensions) but no confirmed
// geometry. LabelPosition, when present, is the pixel position of the room
// label in the source image.
type SemanticRoom struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Width                float64         `json:"width"`
	Depth                float64         `json:"depth"`
	Color                string          `json:"color,omitempty"`
	LabelPosition        *geometry.Point `json:"labelPosition,omitempty"`
	OriginalMeasurements *Measurements   `json:"originalMeasurements,omitempty"`
}

// UnifiedRoom is a SemanticRoom merged with matched or synthetic pixel
// geometry.
type UnifiedRoom struct {
	SemanticRoom

	BBox       geometry.Box   `json:"bbox"`
	Centroid   geometry.Point `json:"centroid"`
	AreaPixels float64        `json:"areaPixels"`
}

// AdjacencyRelation states that Room2 lies in cardinal direction Edge from
// Room1 and the two share a wall. The reverse relation uses the opposite
// edge; each physical wall is reported once.
type AdjacencyRelation struct {
	Room1ID string             `json:"room1"`
	Room2ID string             `json:"room2"`
	Edge    geometry.Direction `json:"edge"`
}

// PlacedRoom is the final output unit. Position is the room's center in
// meters with y=0 at floor level; Dimensions is [width, height, depth].
type PlacedRoom struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Position             [3]float64    `json:"position"`
	Dimensions           [3]float64    `json:"dimensions"`
	Color                string        `json:"color,omitempty"`
	OriginalMeasurements *Measurements `json:"originalMeasurements,omitempty"`
}

// Footprint returns the room's axis-aligned floor footprint in world
// meters, x horizontal and the box y axis carrying world z.
func (p PlacedRoom) Footprint() geometry.Box {
	return geometry.BoxFromCenter(p.Position[0], p.Position[2], p.Dimensions[0], p.Dimensions[2])
}

// AnalysisMetadata records which strategies fired during a pipeline run
// and how long each stage took.
type AnalysisMetadata struct {
	Method                string           `json:"method"`
	ContoursDetected      int              `json:"contoursDetected"`
	RoomsMatched          int              `json:"roomsMatched"`
	AdjacenciesFound      int              `json:"adjacenciesFound"`
	UsedSyntheticContours bool             `json:"usedSyntheticContours"`
	Pipeline              []string         `json:"pipeline"`
	StageMs               map[string]int64 `json:"stageMs,omitempty"`
	ProcessingMs          int64            `json:"processingMs"`
}

// FloorplanResult is the aggregate pipeline output.
type FloorplanResult struct {
	ID            string            `json:"id"`
	Address       string            `json:"address,omitempty"`
	TotalAreaSqFt float64           `json:"totalAreaSqFt,omitempty"`
	TotalAreaSqM  float64           `json:"totalAreaSqM,omitempty"`
	CeilingHeight float64           `json:"ceilingHeight"`
	Rooms         []PlacedRoom      `json:"rooms"`
	Metadata      *AnalysisMetadata `json:"metadata,omitempty"`
}
