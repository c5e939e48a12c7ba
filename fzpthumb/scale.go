package fzpthumb

import "math"

// scaledDimensions fits a w by h image into a size square, preserving
// aspect ratio. The longer edge lands exactly on size, growing the image
// when the preview is smaller than the request. The shorter edge is
// rounded up so it can never collapse to zero.
func scaledDimensions(w, h, size int) (int, int) {
	if w >= h {
		scale := float64(size) / float64(w)
		return size, int(math.Ceil(float64(h) * scale))
	}
	scale := float64(size) / float64(h)
	return int(math.Ceil(float64(w) * scale)), size
}
