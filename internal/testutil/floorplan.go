// Package testutil renders synthetic floorplan rasters for tests: white
// background, dark rectangular wall outlines and optional room labels.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultWallThickness is the wall stroke width in pixels.
const DefaultWallThickness = 4

// TestRoom describes one rectangular room to draw.
type TestRoom struct {
	Bounds image.Rectangle
	Label  string
}

// Plan configures a rendered floorplan.
type Plan struct {
	Width         int
	Height        int
	WallThickness int
	Rooms         []TestRoom
}

// Render draws the plan: white canvas, each room as a dark outlined
// rectangle, labels near the room center.
func Render(p Plan) *image.RGBA {
	if p.WallThickness <= 0 {
		p.WallThickness = DefaultWallThickness
	}
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetRGBA(x, y, white)
		}
	}

	wall := color.RGBA{30, 30, 30, 255}
	for _, r := range p.Rooms {
		drawRectOutline(img, r.Bounds, p.WallThickness, wall)
	}
	for _, r := range p.Rooms {
		if r.Label != "" {
			drawLabel(img, r.Label, r.Bounds)
		}
	}
	return img
}

// SimplePlan renders rooms in a horizontal strip, each roomW x roomH
// pixels, sharing walls with their neighbors. Labels are "room1",
// "room2", ... in order.
func SimplePlan(n, roomW, roomH int) *image.RGBA {
	const margin = 20
	p := Plan{
		Width:  margin*2 + n*roomW,
		Height: margin*2 + roomH,
	}
	for i := 0; i < n; i++ {
		x0 := margin + i*roomW
		p.Rooms = append(p.Rooms, TestRoom{
			Bounds: image.Rect(x0, margin, x0+roomW, margin+roomH),
			Label:  "room" + string(rune('1'+i)),
		})
	}
	return Render(p)
}

// drawRectOutline strokes the rectangle border with the given thickness,
// drawn inward.
func drawRectOutline(img *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y+t, c)
			img.SetRGBA(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X+t, y, c)
			img.SetRGBA(r.Max.X-1-t, y, c)
		}
	}
}

// drawLabel renders text centered in the rectangle with the basic 7x13
// face. Near-white gray keeps the label's Sobel response under the default
// gradient threshold even at glyph corners, so labels never register as
// walls.
func drawLabel(img *image.RGBA, text string, r image.Rectangle) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	cx := (r.Min.X + r.Max.X) / 2
	cy := (r.Min.Y + r.Max.Y) / 2
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{248, 248, 248, 255}),
		Face: face,
		Dot:  fixed.P(cx-width/2, cy+face.Metrics().Ascent.Ceil()/2),
	}
	d.DrawString(text)
}

// LabelCenter returns the pixel center of a room rectangle, where the
// matcher expects a room's label position.
func LabelCenter(r image.Rectangle) (float64, float64) {
	return float64(r.Min.X+r.Max.X) / 2, float64(r.Min.Y+r.Max.Y) / 2
}

// SavePNG writes the image to path, for debugging failed tests.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, img)
}
