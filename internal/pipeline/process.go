package pipeline

import (
	"context"
	"image"
	"log/slog"
	"math"

	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/geometry"
	"github.com/planlift/planlift/internal/layout"
	"github.com/planlift/planlift/internal/matcher"
	"github.com/planlift/planlift/internal/timing"
)

// Progress stage names.
const (
	StageDetect    = "detect"
	StageMatch     = "match"
	StageAdjacency = "adjacency"
	StageLayout    = "layout"
	StageValidate  = "validate"
)

// areaWarnTolerance is the relative deviation between the reported total
// area and the room-sum area above which a warning is logged.
const areaWarnTolerance = 0.25

// Analyze runs the full pipeline for one floorplan. img may be nil when no
// raster is available; detection is then skipped and geometry is synthetic.
// The request must already be validated (see floorplan.ParseRequest).
func (p *Pipeline) Analyze(ctx context.Context, img image.Image, req *floorplan.AnalysisRequest) (*floorplan.FloorplanResult, error) {
	if req == nil || len(req.Rooms) == 0 {
		return nil, floorplan.ErrNoRooms
	}

	var steps []string
	canvasW, canvasH, imageArea := canvasDims(img, p.cfg.Synthetic)
	clock := timing.NewStages()

	p.report(StageDetect)
	var detected []detector.Contour
	clock.Time(StageDetect, func() { detected = p.detector.Detect(img) })
	steps = append(steps, StageDetect)
	slog.Debug("detection stage complete", "contours", len(detected))

	p.report(StageMatch)
	matchRes := p.matcher.Match(req.Rooms, detected, imageArea)
	usedSynthetic := false
	var unified []floorplan.UnifiedRoom
	switch {
	case len(detected) == 0 || matchRes.MatchRate() < p.cfg.Matcher.MinMatchRate:
		// A partially matched real layout is worse than a uniformly
		// synthetic one: mixing breaks the pixel-scale calibration.
		unified = matcher.Synthesize(req.Rooms, canvasW, canvasH, p.cfg.Synthetic)
		usedSynthetic = true
		steps = append(steps, "synthesize")
		slog.Info("using synthetic geometry",
			"matchRate", matchRes.MatchRate(), "contours", len(detected))
	default:
		unified = matchRes.Rooms()
		unified = append(unified, p.fillUnmatched(matchRes, req.Rooms, canvasH)...)
		steps = append(steps, StageMatch)
	}

	p.report(StageAdjacency)
	var rels []floorplan.AdjacencyRelation
	var adjMethod string
	clock.Time(StageAdjacency, func() {
		rels, adjMethod = p.resolver.Resolve(ctx, unified, usedSynthetic)
	})
	steps = append(steps, StageAdjacency+":"+adjMethod)

	p.report(StageLayout)
	placed, layoutMethod, err := p.engine.Layout(unified, rels, layout.Options{
		CeilingHeight: req.CeilingHeight,
		EntryRoomID:   req.EntryRoomID,
		Synthetic:     usedSynthetic,
	})
	if err != nil {
		return nil, err
	}
	steps = append(steps, StageLayout+":"+layoutMethod)

	p.report(StageValidate)
	report := layout.Validate(placed)
	steps = append(steps, StageValidate)
	if !report.IsValid {
		slog.Warn("layout has overlapping rooms", "overlaps", len(report.Overlaps), "method", layoutMethod)
	}
	for _, g := range report.Gaps {
		slog.Debug("suspicious gap between rooms", "room1", g.Room1ID, "room2", g.Room2ID, "distance", g.Distance)
	}

	result := &floorplan.FloorplanResult{
		ID:            req.ID,
		Address:       req.Address,
		TotalAreaSqFt: req.TotalAreaSqFt,
		TotalAreaSqM:  req.TotalAreaSqM,
		CeilingHeight: req.CeilingHeight,
		Rooms:         placed,
		Metadata: &floorplan.AnalysisMetadata{
			Method:                layoutMethod,
			ContoursDetected:      len(detected),
			RoomsMatched:          len(matchRes.Matches),
			AdjacenciesFound:      len(rels),
			UsedSyntheticContours: usedSynthetic,
			Pipeline:              steps,
			StageMs:               clock.Milliseconds(),
			ProcessingMs:          clock.TotalMilliseconds(),
		},
	}
	warnAreaMismatch(result, req)
	return result, nil
}

// canvasDims derives the pixel canvas for synthetic geometry and the image
// area used by the matcher prefilter.
func canvasDims(img image.Image, syn matcher.SyntheticConfig) (float64, float64, float64) {
	if img == nil {
		return syn.CanvasWidth, syn.CanvasHeight, 0
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	return w, h, w * h
}

// fillUnmatched fabricates geometry for the minority of rooms that found
// no contour in an otherwise well-matched set. The matched rooms' implied
// pixel scale keeps the fabricated boxes commensurable; rooms without a
// label position go to a flow row below the matched cluster.
func (p *Pipeline) fillUnmatched(res matcher.Result, rooms []floorplan.SemanticRoom, canvasH float64) []floorplan.UnifiedRoom {
	if len(res.Unmatched) == 0 {
		return nil
	}
	unmatched := make(map[string]bool, len(res.Unmatched))
	for _, id := range res.Unmatched {
		unmatched[id] = true
	}

	// Pixel scale from the matched rooms: sqrt of pixel area over metric area.
	var pxArea, mArea, maxY float64
	for _, m := range res.Matches {
		pxArea += m.Room.AreaPixels
		mArea += m.Room.Width * m.Room.Depth
		if m.Room.BBox.MaxY > maxY {
			maxY = m.Room.BBox.MaxY
		}
	}
	scale := 50.0
	if mArea > 0 && pxArea > 0 {
		scale = math.Sqrt(pxArea / mArea)
	}

	var out []floorplan.UnifiedRoom
	flowX := 0.0
	rowY := math.Min(maxY+60, canvasH)
	for _, r := range rooms {
		if !unmatched[r.ID] {
			continue
		}
		w, h := r.Width*scale, r.Depth*scale
		var c geometry.Point
		if r.LabelPosition != nil {
			c = *r.LabelPosition
		} else {
			c = geometry.Point{X: flowX + w/2, Y: rowY + h/2}
			flowX += w + 20
		}
		out = append(out, floorplan.UnifiedRoom{
			SemanticRoom: r,
			BBox:         geometry.BoxFromCenter(c.X, c.Y, w, h),
			Centroid:     c,
			AreaPixels:   w * h,
		})
	}
	return out
}

// warnAreaMismatch logs when the reported total area disagrees with the
// sum of room areas beyond tolerance. Validation only warns here, it never
// rejects.
func warnAreaMismatch(result *floorplan.FloorplanResult, req *floorplan.AnalysisRequest) {
	if result.TotalAreaSqM <= 0 {
		return
	}
	sum := req.TotalRoomArea()
	if sum <= 0 {
		return
	}
	ratio := math.Abs(result.TotalAreaSqM-sum) / result.TotalAreaSqM
	if ratio > areaWarnTolerance {
		slog.Warn("total area disagrees with room sum",
			"reported", result.TotalAreaSqM, "roomSum", sum, "deviation", ratio)
	}
}
