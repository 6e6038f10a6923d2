package detector

import "math"

// Sobel kernels for horizontal and vertical gradients.
var (
	sobelX = [9]float32{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	sobelY = [9]float32{-1, -2, -1, 0, 0, 0, 1, 2, 1}
)

// wallMask applies a 3x3 Sobel operator to the luminance buffer and
// thresholds the gradient magnitude. Floorplan walls are mid-gray lines
// rather than pure black, so edge detection on grayscale followed by
// thresholding keeps faint interior partitions that a pre-binarized pass
// would lose.
func wallMask(gray []float32, w, h int, threshold float64) []bool {
	mask := make([]bool, w*h)
	t := threshold
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float32
			k := 0
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * w
				for kx := -1; kx <= 1; kx++ {
					v := gray[row+x+kx]
					gx += sobelX[k] * v
					gy += sobelY[k] * v
					k++
				}
			}
			mag := math.Hypot(float64(gx), float64(gy))
			if mag >= t {
				mask[y*w+x] = true
			}
		}
	}
	// Border pixels never see a full kernel; mark them as wall so the
	// outer background does not merge with rooms touching the edge.
	for x := range w {
		mask[x] = true
		mask[(h-1)*w+x] = true
	}
	for y := range h {
		mask[y*w] = true
		mask[y*w+w-1] = true
	}
	return mask
}
