package detector

import (
	"image"
	"image/color"
	"image/draw"
)

// VisualizeOptions controls how contours are drawn onto images.
type VisualizeOptions struct {
	Color     color.Color
	Thickness int
}

// VisualizeContours draws contour bounding boxes onto a copy of img.
// Useful for reviewing detection quality before matching.
func VisualizeContours(img image.Image, contours []Contour, opt VisualizeOptions) *image.RGBA {
	if opt.Color == nil {
		opt.Color = color.RGBA{R: 255, A: 255}
	}
	if opt.Thickness <= 0 {
		opt.Thickness = 2
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	for _, c := range contours {
		drawRect(dst, c.Box.ToRect(b), opt.Color, opt.Thickness)
	}
	return dst
}

// drawRect draws an axis-aligned rectangle outline into dst.
func drawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}
