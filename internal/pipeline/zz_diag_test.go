package pipeline

import (
	"fmt"
	"image"
	"testing"

	"github.com/planlift/planlift/internal/detector"
	"github.com/planlift/planlift/internal/testutil"
)

func TestZZDiagDetect(t *testing.T) {
	left := image.Rect(20, 20, 320, 320)
	right := image.Rect(320, 20, 620, 320)
	img := testutil.Render(testutil.Plan{
		Width:  700,
		Height: 400,
		Rooms: []testutil.TestRoom{
			{Bounds: left, Label: "entry"},
			{Bounds: right, Label: "kitchen"},
		},
	})
	d := detector.New(detector.DefaultConfig())
	cs := d.Detect(img)
	fmt.Println("contours:", len(cs))
	for _, c := range cs {
		fmt.Printf("  area=%v bbox=%+v\n", c.Area, c.Box)
	}
}
