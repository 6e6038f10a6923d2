package floorplan

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Defaults applied to tolerated-missing fields in the oracle payload.
const (
	DefaultRoomWidth     = 3.0
	DefaultRoomDepth     = 3.0
	DefaultCeilingHeight = 2.4
)

// ErrNoRooms signals that a request contained nothing to lay out. It is the
// only fatal condition in the pipeline.
var ErrNoRooms = errors.New("no rooms to lay out")

// SchemaError describes a structurally invalid oracle payload.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid floorplan payload: field %q: %s", e.Field, e.Reason)
}

// AnalysisRequest is the top-level record consumed from the semantic
// extraction oracle.
type AnalysisRequest struct {
	ID            string         `json:"id"`
	Address       string         `json:"address,omitempty"`
	TotalAreaSqFt float64        `json:"totalAreaSqFt,omitempty"`
	TotalAreaSqM  float64        `json:"totalAreaSqM,omitempty"`
	CeilingHeight float64        `json:"ceilingHeight,omitempty"`
	EntryRoomID   string         `json:"entryRoomId,omitempty"`
	Rooms         []SemanticRoom `json:"rooms"`
}

// ParseRequest decodes and validates an oracle payload. Missing
// labelPosition, width and depth are tolerated and defaulted; duplicate
// room IDs are rejected with a SchemaError. A missing top-level id is
// replaced with a fresh UUID.
func ParseRequest(data []byte) (*AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode floorplan payload: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks invariants and fills defaults in place.
func (r *AnalysisRequest) Validate() error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CeilingHeight <= 0 {
		r.CeilingHeight = DefaultCeilingHeight
	}
	seen := make(map[string]struct{}, len(r.Rooms))
	for i := range r.Rooms {
		room := &r.Rooms[i]
		if room.ID == "" {
			return &SchemaError{Field: fmt.Sprintf("rooms[%d].id", i), Reason: "must not be empty"}
		}
		if _, dup := seen[room.ID]; dup {
			return &SchemaError{Field: fmt.Sprintf("rooms[%d].id", i), Reason: fmt.Sprintf("duplicate id %q", room.ID)}
		}
		seen[room.ID] = struct{}{}
		if room.Width <= 0 {
			room.Width = DefaultRoomWidth
		}
		if room.Depth <= 0 {
			room.Depth = DefaultRoomDepth
		}
	}
	if r.EntryRoomID != "" {
		if _, ok := seen[r.EntryRoomID]; !ok {
			// An entry room that does not exist is dropped, not fatal: the
			// layout engine falls back to the first room.
			r.EntryRoomID = ""
		}
	}
	return nil
}

// TotalRoomArea returns the sum of width*depth over all rooms in square
// meters.
func (r *AnalysisRequest) TotalRoomArea() float64 {
	var sum float64
	for _, room := range r.Rooms {
		sum += room.Width * room.Depth
	}
	return sum
}
