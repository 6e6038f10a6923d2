package detector

import "image"

// grayscale converts an image to a float32 luminance buffer in 0..255
// using the standard BT.601 weights.
func grayscale(img image.Image) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]float32, w*h)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := range h {
			row := rgba.Pix[y*rgba.Stride:]
			for x := range w {
				o := x * 4
				r := float32(row[o])
				g := float32(row[o+1])
				b := float32(row[o+2])
				out[y*w+x] = 0.299*r + 0.587*g + 0.114*b
			}
		}
		return out
	}

	for y := range h {
		for x := range w {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels.
			out[y*w+x] = 0.299*float32(r>>8) + 0.587*float32(g>>8) + 0.114*float32(b>>8)
		}
	}
	return out
}

// binarizeInPlace snaps the luminance buffer to 0/255 around threshold.
func binarizeInPlace(gray []float32, threshold float64) {
	t := float32(threshold)
	for i, v := range gray {
		if v < t {
			gray[i] = 0
		} else {
			gray[i] = 255
		}
	}
}
