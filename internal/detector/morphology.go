package detector

// dilate grows the true region of a binary mask using a 4-neighborhood
// cross kernel, applied iterations times. Dilation closes small gaps in
// wall lines so neighboring rooms do not leak into one component.
func dilate(mask []bool, w, h, iterations int) []bool {
	cur := mask
	for range iterations {
		next := make([]bool, len(cur))
		for y := range h {
			for x := range w {
				i := y*w + x
				if cur[i] {
					next[i] = true
					continue
				}
				if (x > 0 && cur[i-1]) || (x < w-1 && cur[i+1]) ||
					(y > 0 && cur[i-w]) || (y < h-1 && cur[i+w]) {
					next[i] = true
				}
			}
		}
		cur = next
	}
	return cur
}

// erode shrinks the true region of a binary mask using a 4-neighborhood
// cross kernel, applied iterations times. Used after dilation to avoid
// over-thickened walls eating into small rooms.
func erode(mask []bool, w, h, iterations int) []bool {
	cur := mask
	for range iterations {
		next := make([]bool, len(cur))
		for y := range h {
			for x := range w {
				i := y*w + x
				if !cur[i] {
					continue
				}
				if x > 0 && !cur[i-1] {
					continue
				}
				if x < w-1 && !cur[i+1] {
					continue
				}
				if y > 0 && !cur[i-w] {
					continue
				}
				if y < h-1 && !cur[i+w] {
					continue
				}
				next[i] = true
			}
		}
		cur = next
	}
	return cur
}
