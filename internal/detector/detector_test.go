package detector

import (
	"image"
	"testing"

	"github.com/planlift/planlift/internal/geometry"
	"github.com/planlift/planlift/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_NilImage(t *testing.T) {
	d := New(DefaultConfig())
	assert.Nil(t, d.Detect(nil))
}

func TestDetect_TinyImage(t *testing.T) {
	d := New(DefaultConfig())
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Nil(t, d.Detect(img))
}

func TestDetect_BlankImage(t *testing.T) {
	d := New(DefaultConfig())
	img := testutil.Render(testutil.Plan{Width: 300, Height: 300})
	contours := d.Detect(img)
	// Only the border frame exists; no enclosed interior of valid shape
	// and size should survive as more than the single background region.
	for _, c := range contours {
		assert.Greater(t, c.Area, 0.0)
	}
}

func TestDetect_TwoRooms(t *testing.T) {
	plan := testutil.Plan{
		Width:  440,
		Height: 190,
		Rooms: []testutil.TestRoom{
			{Bounds: image.Rect(20, 20, 220, 170), Label: "living"},
			{Bounds: image.Rect(220, 20, 420, 170), Label: "kitchen"},
		},
	}
	d := New(DefaultConfig())
	contours := d.Detect(testutil.Render(plan))
	require.NotEmpty(t, contours)

	// Each drawn room must produce a contour whose centroid falls inside
	// the room rectangle.
	for _, room := range plan.Rooms {
		cx, cy := testutil.LabelCenter(room.Bounds)
		found := false
		for _, c := range contours {
			box := geometry.NewBox(float64(room.Bounds.Min.X), float64(room.Bounds.Min.Y),
				float64(room.Bounds.Max.X), float64(room.Bounds.Max.Y))
			if box.Contains(c.Centroid, 0) && c.Centroid.Distance(geometry.Point{X: cx, Y: cy}) < 40 {
				found = true
				break
			}
		}
		assert.True(t, found, "no contour found for room at %v", room.Bounds)
	}
}

func TestDetect_SortedByAreaDescending(t *testing.T) {
	plan := testutil.Plan{
		Width:  500,
		Height: 400,
		Rooms: []testutil.TestRoom{
			{Bounds: image.Rect(20, 20, 320, 280)},
			{Bounds: image.Rect(320, 20, 480, 200)},
		},
	}
	d := New(DefaultConfig())
	contours := d.Detect(testutil.Render(plan))
	require.NotEmpty(t, contours)
	for i := 1; i < len(contours); i++ {
		assert.GreaterOrEqual(t, contours[i-1].Area, contours[i].Area)
	}
}

func TestDetect_DownscaleRestoresCoordinates(t *testing.T) {
	plan := testutil.Plan{
		Width:  800,
		Height: 600,
		Rooms: []testutil.TestRoom{
			{Bounds: image.Rect(50, 50, 550, 350)},
		},
	}
	img := testutil.Render(plan)

	cfg := DefaultConfig()
	cfg.MaxImageSize = 400
	small := New(cfg).Detect(img)
	require.NotEmpty(t, small)

	// The largest contour must land at original-resolution coordinates.
	c := small[0]
	assert.Greater(t, c.Box.Width(), 400.0)
	assert.Greater(t, c.Box.Height(), 250.0)
	assert.InDelta(t, 300, c.Centroid.X, 30)
	assert.InDelta(t, 200, c.Centroid.Y, 30)
}

func TestConnectedComponents_Simple(t *testing.T) {
	// 5x3 mask with two separate components.
	mask := []bool{
		true, true, false, false, true,
		true, false, false, false, true,
		false, false, false, false, true,
	}
	comps, labels := connectedComponents(mask, 5, 3)
	require.Len(t, comps, 2)
	assert.Equal(t, 3, comps[0].count)
	assert.Equal(t, 3, comps[1].count)
	assert.Equal(t, int32(1), labels[0])
	assert.Equal(t, int32(2), labels[4])
}

func TestConnectedComponents_LargeRegionNoStackOverflow(t *testing.T) {
	w, h := 600, 600
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	comps, _ := connectedComponents(mask, w, h)
	require.Len(t, comps, 1)
	assert.Equal(t, w*h, comps[0].count)
}

func TestDilateErode(t *testing.T) {
	// Single pixel dilates to a cross, then erodes back to nothing but the
	// center when the cross is re-eroded.
	w, h := 5, 5
	mask := make([]bool, w*h)
	mask[2*w+2] = true

	grown := dilate(mask, w, h, 1)
	count := 0
	for _, v := range grown {
		if v {
			count++
		}
	}
	assert.Equal(t, 5, count)

	shrunk := erode(grown, w, h, 1)
	count = 0
	for i, v := range shrunk {
		if v {
			count++
			assert.Equal(t, 2*w+2, i)
		}
	}
	assert.Equal(t, 1, count)
}

func TestDilate_ClosesGap(t *testing.T) {
	// Horizontal line with a one-pixel gap closes after one dilation.
	w, h := 7, 3
	mask := make([]bool, w*h)
	for x := 0; x < w; x++ {
		if x != 3 {
			mask[1*w+x] = true
		}
	}
	grown := dilate(mask, w, h, 1)
	assert.True(t, grown[1*w+3])
}

func TestWallMask_BorderAlwaysWall(t *testing.T) {
	gray := make([]float32, 10*10)
	for i := range gray {
		gray[i] = 255
	}
	mask := wallMask(gray, 10, 10, 60)
	for x := 0; x < 10; x++ {
		assert.True(t, mask[x])
		assert.True(t, mask[9*10+x])
	}
	for y := 0; y < 10; y++ {
		assert.True(t, mask[y*10])
		assert.True(t, mask[y*10+9])
	}
}

func TestBinarizeInPlace(t *testing.T) {
	gray := []float32{0, 100, 127, 128, 200, 255}
	binarizeInPlace(gray, 128)
	assert.Equal(t, []float32{0, 0, 0, 255, 255, 255}, gray)
}

func TestContourScaled(t *testing.T) {
	c := Contour{
		Box:      geometry.NewBox(10, 10, 20, 20),
		Centroid: geometry.Point{X: 15, Y: 15},
		Area:     100,
		Boundary: []geometry.Point{{X: 10, Y: 10}},
	}
	s := c.scaled(2)
	assert.Equal(t, geometry.NewBox(20, 20, 40, 40), s.Box)
	assert.Equal(t, geometry.Point{X: 30, Y: 30}, s.Centroid)
	assert.InDelta(t, 400, s.Area, 1e-9)
	assert.Equal(t, geometry.Point{X: 20, Y: 20}, s.Boundary[0])
}

func TestVisualizeContours(t *testing.T) {
	img := testutil.Render(testutil.Plan{Width: 100, Height: 100})
	contours := []Contour{{Box: geometry.NewBox(10, 10, 50, 50)}}
	overlay := VisualizeContours(img, contours, VisualizeOptions{})
	require.NotNil(t, overlay)
	// Red outline drawn on the box edge.
	r, _, _, _ := overlay.At(30, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
