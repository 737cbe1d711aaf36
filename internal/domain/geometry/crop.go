// Package geometry derives pixel-exact crop rectangles from fractional
// crop parameters.
package geometry

import "fmt"

// Rect is a crop rectangle in pixels: w:h at offset x,y.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Compute converts fractional crop parameters and source dimensions
// into a pixel crop rectangle that forces a 16:9 output on the
// uncropped (top) axis.
//
// Each fraction denotes the TOTAL proportion of the frame removed from
// that edge, divided by two: removed pixels per edge are
// floor(dim*frac/2). This halving is the established convention of the
// config format (the fraction is conceptually split across passes) and
// is load-bearing for reproducing prior renders; do not "fix" it.
//
// The crop height is derived from the remaining width to hit 16:9:
// idealHeight = floor(remainingWidth * 9 / 16). The top removal is
// whatever is left over after the bottom crop, clamped at zero. When
// the clamp triggers the output is taller than 16:9; that is accepted
// behavior, not an error.
//
// Fractions are expected in [0,1); the caller validates, not this
// function.
func Compute(width, height int, left, right, bottom float64) Rect {
	cropLeft := int(float64(width) * left / 2)
	cropRight := int(float64(width) * right / 2)
	cropBottom := int(float64(height) * bottom / 2)

	remainingWidth := width - cropLeft - cropRight
	idealHeight := remainingWidth * 9 / 16

	cropTop := height - cropBottom - idealHeight
	if cropTop < 0 {
		cropTop = 0
	}

	return Rect{
		X: cropLeft,
		Y: cropTop,
		W: remainingWidth,
		H: height - cropTop - cropBottom,
	}
}

// Filter renders the rectangle as an ffmpeg crop filter expression.
func (r Rect) Filter() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", r.W, r.H, r.X, r.Y)
}
