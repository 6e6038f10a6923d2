package adjacency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
	"github.com/planlift/planlift/internal/oracle"
)

// resolveState tracks progress of the oracle tool-calling conversation.
type resolveState int

const (
	stateAwaitingOracle resolveState = iota
	stateExecutingTools
	stateDone
	stateFailed
)

// Oracle failure modes. All select the geometric fallback in the driver.
var (
	ErrOracleTimeout   = errors.New("adjacency oracle timed out")
	ErrOracleMalformed = errors.New("adjacency oracle returned malformed output")
)

// OracleConfig tunes the oracle resolution loop.
type OracleConfig struct {
	// Timeout bounds the whole multi-turn interaction. Complex floorplans
	// have been observed to need tens of seconds.
	Timeout time.Duration
	// MaxTurns caps reasoning turns before giving up.
	MaxTurns int
	// HistoryWindow bounds the trailing conversation kept per turn.
	HistoryWindow int
	// QueryRadius is the pixel radius suggested for neighbor queries.
	QueryRadius float64
}

// DefaultOracleConfig returns oracle resolution defaults.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		Timeout:       60 * time.Second,
		MaxTurns:      16,
		HistoryWindow: 12,
		QueryRadius:   80,
	}
}

const systemPrompt = `You determine which rooms in a floorplan share a wall.
Use the provided tools: query nearby_rooms per room within the suggested radius,
verify each candidate pair with edge_distance in the relevant direction, and
confirm alignment with overlap_percentage. Report each physical wall exactly
once. When finished, reply with only a JSON array of objects
{"room1":"id","room2":"id","edge":"north|south|east|west"} where edge is the
direction from room1 to room2.`

// OracleResolver drives the reasoning oracle through the spatial tools.
type OracleResolver struct {
	client *oracle.Client
	cfg    OracleConfig
}

// NewOracleResolver creates an oracle-backed resolver.
func NewOracleResolver(client *oracle.Client, cfg OracleConfig) *OracleResolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOracleConfig().Timeout
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultOracleConfig().MaxTurns
	}
	return &OracleResolver{client: client, cfg: cfg}
}

// roomSummary is the compact room description handed to the oracle.
type roomSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Centroid geometry.Point `json:"centroid"`
	BBox     geometry.Box   `json:"bbox"`
	WidthM   float64        `json:"widthMeters"`
	DepthM   float64        `json:"depthMeters"`
}

// Resolve runs the multi-turn tool-calling conversation under a hard
// wall-clock timeout. Timeout, transport failure, turn exhaustion and
// malformed terminal output are all errors; the caller falls back to
// geometry.
func (r *OracleResolver) Resolve(ctx context.Context, rooms []floorplan.UnifiedRoom) ([]floorplan.AdjacencyRelation, error) {
	if r.client == nil || !r.client.Configured() {
		return nil, errors.New("adjacency oracle not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	summaries := make([]roomSummary, len(rooms))
	for i, room := range rooms {
		summaries[i] = roomSummary{
			ID: room.ID, Name: room.Name,
			Centroid: room.Centroid, BBox: room.BBox,
			WidthM: room.Width, DepthM: room.Depth,
		}
	}
	payload, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("encode room summary: %w", err)
	}

	exec := newToolExecutor(rooms)
	messages := []oracle.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Rooms (pixel coordinates):\n%s\nSuggested neighbor query radius: %.0f px.",
			payload, r.cfg.QueryRadius)},
	}

	state := stateAwaitingOracle
	var rels []floorplan.AdjacencyRelation
	var lastErr error
	turns := 0

	for state != stateDone && state != stateFailed {
		if turns >= r.cfg.MaxTurns {
			state = stateFailed
			lastErr = fmt.Errorf("oracle exhausted %d turns without a terminal answer", r.cfg.MaxTurns)
			break
		}
		turns++
		messages = oracle.TrimHistory(messages, r.cfg.HistoryWindow)
		msg, err := r.client.Chat(ctx, messages, spatialTools())
		if err != nil {
			state = stateFailed
			if errors.Is(err, context.DeadlineExceeded) {
				lastErr = ErrOracleTimeout
			} else {
				lastErr = fmt.Errorf("oracle turn %d: %w", turns, err)
			}
			break
		}
		messages = append(messages, *msg)

		if len(msg.ToolCalls) > 0 {
			state = stateExecutingTools
			for _, tc := range msg.ToolCalls {
				messages = append(messages, oracle.Message{
					Role:       "tool",
					ToolCallID: tc.ID,
					Content:    exec.execute(tc),
				})
			}
			state = stateAwaitingOracle
			continue
		}

		rels, err = parseRelations(msg.Content, rooms)
		if err != nil {
			state = stateFailed
			lastErr = fmt.Errorf("%w: %v", ErrOracleMalformed, err)
			break
		}
		state = stateDone
	}

	if state != stateDone {
		return nil, lastErr
	}
	slog.Debug("oracle adjacency resolved", "turns", turns, "relations", len(rels))
	return rels, nil
}

// parseRelations decodes the oracle's terminal JSON array and sanitizes it:
// unknown rooms, self-pairs and invalid edges are rejected; duplicate
// unordered pairs keep the first relation. The sanitized protocol keeps the
// geometric semantics authoritative even when the oracle misbehaves.
func parseRelations(content string, rooms []floorplan.UnifiedRoom) ([]floorplan.AdjacencyRelation, error) {
	var raw []struct {
		Room1 string `json:"room1"`
		Room2 string `json:"room2"`
		Edge  string `json:"edge"`
	}
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &raw); err != nil {
		return nil, fmt.Errorf("decode relations: %w", err)
	}

	known := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		known[room.ID] = true
	}
	seen := make(map[string]bool, len(raw))
	out := make([]floorplan.AdjacencyRelation, 0, len(raw))
	for _, rel := range raw {
		dir := geometry.Direction(rel.Edge)
		if !known[rel.Room1] || !known[rel.Room2] || rel.Room1 == rel.Room2 || !dir.Valid() {
			return nil, fmt.Errorf("invalid relation %q-%q edge %q", rel.Room1, rel.Room2, rel.Edge)
		}
		key := pairKey(rel.Room1, rel.Room2)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, floorplan.AdjacencyRelation{Room1ID: rel.Room1, Room2ID: rel.Room2, Edge: dir})
	}
	return out, nil
}

// pairKey builds an order-independent key for a room pair.
func pairKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

// extractJSONArray tolerates oracles that wrap the terminal array in prose
// or a markdown fence by slicing from the first '[' to the last ']'.
func extractJSONArray(s string) string {
	start, end := -1, -1
	for i, r := range s {
		if r == '[' {
			start = i
			break
		}
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ']' {
			end = i
			break
		}
	}
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
