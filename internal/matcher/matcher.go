// Package matcher assigns externally supplied semantic rooms to detected
// contours, producing unified rooms. When detection is absent or
// insufficient, the synthetic generator fabricates self-consistent
// geometry instead.
package matcher

import (
	"log/slog"
	"math"

	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
)

// MatchType records how a room was bound to its contour.
type MatchType string

const (
	// MatchExact means the label position fell inside the contour's box.
	MatchExact MatchType = "exact"
	// MatchNear means the room was bound to the nearest contour centroid
	// without containment.
	MatchNear MatchType = "near"
)

// Config holds matching thresholds.
type Config struct {
	// ContainMargin expands a contour's box outward when testing label
	// containment, tolerating labels drawn right at a wall.
	ContainMargin float64
	// NearMatchMaxDistance caps centroid distance for non-containing
	// matches. Containment matches have no distance cap.
	NearMatchMaxDistance float64
	// MinContourArea drops tiny contours (text, noise) before matching.
	MinContourArea float64
	// MaxAreaImageFraction drops contours covering too much of the image,
	// typically the outer floorplan outline.
	MaxAreaImageFraction float64
	// MaxAreaMeanMultiple drops contours larger than this multiple of the
	// mean contour area.
	MaxAreaMeanMultiple float64
	// MinAspectRatio and MaxAspectRatio bound eligible contour shapes.
	MinAspectRatio float64
	MaxAspectRatio float64
	// MinMatchRate is the fraction of rooms that must match before the
	// caller should trust partial results over synthetic geometry.
	MinMatchRate float64
}

// DefaultConfig returns matching defaults.
func DefaultConfig() Config {
	return Config{
		ContainMargin:        20,
		NearMatchMaxDistance: 200,
		MinContourArea:       1000,
		MaxAreaImageFraction: 0.25,
		MaxAreaMeanMultiple:  10,
		MinAspectRatio:       0.2,
		MaxAspectRatio:       5,
		MinMatchRate:         0.5,
	}
}

// Match is one accepted room/contour assignment.
type Match struct {
	Room floorplan.UnifiedRoom
	Type MatchType
	// Distance is the label-to-centroid distance in pixels.
	Distance float64
}

// Result is the outcome of a matching run.
type Result struct {
	Matches   []Match
	Unmatched []string // room IDs that found no contour
}

// Rooms returns the unified rooms of all accepted matches.
func (r Result) Rooms() []floorplan.UnifiedRoom {
	out := make([]floorplan.UnifiedRoom, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Room
	}
	return out
}

// MatchRate returns matched rooms over total rooms, 0 for empty input.
func (r Result) MatchRate() float64 {
	total := len(r.Matches) + len(r.Unmatched)
	if total == 0 {
		return 0
	}
	return float64(len(r.Matches)) / float64(total)
}

// Matcher binds semantic rooms to detected contours 1:1.
type Matcher struct {
	cfg Config
}

// New creates a Matcher with the given configuration.
func New(cfg Config) *Matcher {
	if cfg.NearMatchMaxDistance <= 0 {
		cfg.NearMatchMaxDistance = DefaultConfig().NearMatchMaxDistance
	}
	return &Matcher{cfg: cfg}
}

// Match assigns each room with a label position to at most one contour.
// Each contour is used at most once; rooms without a label position count
// as unmatched. imageArea is the total source image pixel count and may be
// zero when unknown (the image-fraction prefilter is then skipped).
func (m *Matcher) Match(rooms []floorplan.SemanticRoom, contours []detector.Contour, imageArea float64) Result {
	eligible := m.prefilter(contours, imageArea)
	used := make(map[int]bool, len(eligible))

	var res Result
	for _, room := range rooms {
		if room.LabelPosition == nil {
			res.Unmatched = append(res.Unmatched, room.ID)
			continue
		}
		idx, mt, dist := m.findMatch(*room.LabelPosition, eligible, used)
		if idx < 0 {
			res.Unmatched = append(res.Unmatched, room.ID)
			continue
		}
		used[idx] = true
		c := eligible[idx]
		res.Matches = append(res.Matches, Match{
			Room: floorplan.UnifiedRoom{
				SemanticRoom: room,
				BBox:         c.Box,
				Centroid:     c.Centroid,
				AreaPixels:   c.Area,
			},
			Type:     mt,
			Distance: dist,
		})
	}
	slog.Debug("room matching finished",
		"rooms", len(rooms), "contours", len(contours),
		"eligible", len(eligible), "matched", len(res.Matches))
	return res
}

// prefilter drops contours that are too small, too large or badly shaped
// before any room is considered.
func (m *Matcher) prefilter(contours []detector.Contour, imageArea float64) []detector.Contour {
	if len(contours) == 0 {
		return nil
	}
	var mean float64
	for _, c := range contours {
		mean += c.Area
	}
	mean /= float64(len(contours))

	maxArea := mean * m.cfg.MaxAreaMeanMultiple
	if imageArea > 0 {
		if limit := imageArea * m.cfg.MaxAreaImageFraction; limit < maxArea {
			maxArea = limit
		}
	}

	out := make([]detector.Contour, 0, len(contours))
	for _, c := range contours {
		if c.Area < m.cfg.MinContourArea || c.Area > maxArea {
			continue
		}
		aspect := c.Box.AspectRatio()
		if aspect < m.cfg.MinAspectRatio || aspect > m.cfg.MaxAspectRatio {
			continue
		}
		out = append(out, c)
	}
	return out
}

// findMatch runs the two-phase search: containment first (strong signal,
// no distance cap), then nearest centroid under the near-match cap.
// Returns -1 when no eligible contour qualifies.
func (m *Matcher) findMatch(label geometry.Point, eligible []detector.Contour, used map[int]bool) (int, MatchType, float64) {
	// Phase 1: contours whose box contains the label, closest centroid wins.
	best := -1
	bestDist := math.Inf(1)
	for i, c := range eligible {
		if used[i] || !c.Box.Contains(label, m.cfg.ContainMargin) {
			continue
		}
		if d := label.Distance(c.Centroid); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return best, MatchExact, bestDist
	}

	// Phase 2: nearest centroid regardless of containment. Weaker
	// evidence, so the distance cap applies.
	for i, c := range eligible {
		if used[i] {
			continue
		}
		if d := label.Distance(c.Centroid); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 && bestDist < m.cfg.NearMatchMaxDistance {
		return best, MatchNear, bestDist
	}
	return -1, "", 0
}
