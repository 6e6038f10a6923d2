// Package detector finds candidate room regions in a floorplan raster
// image. The stages are grayscale conversion, gradient-based wall emphasis,
// morphological gap closing, inversion and connected-component labeling of
// the enclosed interiors.
package detector

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Config holds boundary detection settings.
type Config struct {
	// GradientThreshold is the Sobel magnitude above which a pixel is
	// considered wall, in 0..255 grayscale units.
	GradientThreshold float64
	// BinarizeFirst thresholds the grayscale image before edge detection.
	// Cheaper but loses faint interior walls; off by default.
	BinarizeFirst bool
	// BinarizeThreshold is the grayscale cutoff used when BinarizeFirst is set.
	BinarizeThreshold float64
	// DilateIterations closes small gaps in wall lines (4-neighborhood).
	DilateIterations int
	// ErodeIterations optionally thins walls back after dilation.
	ErodeIterations int
	// MinAreaFraction and MaxAreaFraction bound a component's pixel count
	// relative to the whole image. Components outside are noise or the
	// outer floorplan outline.
	MinAreaFraction float64
	MaxAreaFraction float64
	// MinAspectRatio and MaxAspectRatio bound a component's bounding-box
	// width/height ratio, ruling out thin line artifacts.
	MinAspectRatio float64
	MaxAspectRatio float64
	// MaxImageSize downscales larger inputs before detection; contour
	// coordinates are scaled back to the original pixel space. Zero
	// disables downscaling.
	MaxImageSize int
	// MaxBoundaryPoints truncates each contour's boundary point list.
	MaxBoundaryPoints int
}

// DefaultConfig returns detection defaults tuned for floorplan scans.
func DefaultConfig() Config {
	return Config{
		GradientThreshold: 60,
		BinarizeFirst:     false,
		BinarizeThreshold: 128,
		DilateIterations:  2,
		ErodeIterations:   0,
		MinAreaFraction:   0.01,
		MaxAreaFraction:   0.45,
		MinAspectRatio:    0.2,
		MaxAspectRatio:    8.0,
		MaxImageSize:      2000,
		MaxBoundaryPoints: 64,
	}
}

// Detector runs unsupervised room-boundary detection.
type Detector struct {
	cfg Config
}

// New creates a Detector with the given configuration.
func New(cfg Config) *Detector {
	if cfg.GradientThreshold <= 0 {
		cfg.GradientThreshold = DefaultConfig().GradientThreshold
	}
	if cfg.MaxBoundaryPoints <= 0 {
		cfg.MaxBoundaryPoints = DefaultConfig().MaxBoundaryPoints
	}
	return &Detector{cfg: cfg}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect returns candidate room contours ordered by area descending.
// It never fails: a nil image, degenerate dimensions or zero surviving
// components all yield an empty list, which callers treat as "no geometry
// available".
func (d *Detector) Detect(img image.Image) []Contour {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 4 || h < 4 {
		return nil
	}

	// Downscale large scans; remember the factor to restore coordinates.
	scale := 1.0
	if d.cfg.MaxImageSize > 0 && (w > d.cfg.MaxImageSize || h > d.cfg.MaxImageSize) {
		longest := w
		if h > longest {
			longest = h
		}
		scale = float64(longest) / float64(d.cfg.MaxImageSize)
		if w >= h {
			img = imaging.Resize(img, d.cfg.MaxImageSize, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, d.cfg.MaxImageSize, imaging.Lanczos)
		}
		bounds = img.Bounds()
		w, h = bounds.Dx(), bounds.Dy()
	}

	gray := grayscale(img)
	if d.cfg.BinarizeFirst {
		binarizeInPlace(gray, d.cfg.BinarizeThreshold)
	}
	walls := wallMask(gray, w, h, d.cfg.GradientThreshold)
	if d.cfg.DilateIterations > 0 {
		walls = dilate(walls, w, h, d.cfg.DilateIterations)
	}
	if d.cfg.ErodeIterations > 0 {
		walls = erode(walls, w, h, d.cfg.ErodeIterations)
	}

	// Invert: enclosed interiors become the foreground to label.
	interior := make([]bool, len(walls))
	for i, wall := range walls {
		interior[i] = !wall
	}

	comps, labels := connectedComponents(interior, w, h)
	contours := d.contoursFromComponents(comps, labels, w, h)
	if scale != 1.0 {
		for i := range contours {
			contours[i] = contours[i].scaled(scale)
		}
	}
	slog.Debug("boundary detection finished",
		"components", len(comps), "contours", len(contours), "downscale", scale)
	return contours
}

// contoursFromComponents filters labeled components and converts the
// survivors to contours sorted by area descending.
func (d *Detector) contoursFromComponents(comps []component, labels []int32, w, h int) []Contour {
	total := float64(w * h)
	out := make([]Contour, 0, len(comps))
	for i, c := range comps {
		if c.count == 0 {
			continue
		}
		frac := float64(c.count) / total
		if frac < d.cfg.MinAreaFraction || frac > d.cfg.MaxAreaFraction {
			continue
		}
		bw := float64(c.maxX - c.minX + 1)
		bh := float64(c.maxY - c.minY + 1)
		if bh <= 0 {
			continue
		}
		aspect := bw / bh
		if aspect < d.cfg.MinAspectRatio || aspect > d.cfg.MaxAspectRatio {
			continue
		}
		boundary := traceBoundary(labels, w, h, int32(i+1), c, d.cfg.MaxBoundaryPoints)
		out = append(out, c.toContour(boundary))
	}
	sortContoursByArea(out)
	return out
}
