package flow

import (
	"math"
)

// Grid is a Width×Height raster of float64 values stored row-major in Pix.
// The value at (x, y) lives at Pix[y*Width+x].
type Grid struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGrid allocates a zeroed w×h grid.
func NewGrid(w, h int) *Grid {
	return &Grid{Width: w, Height: h, Pix: make([]float64, w*h)}
}

// At returns the value at (x, y). Coordinates must be in range.
func (g *Grid) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y).
func (g *Grid) Set(x, y int, v float64) {
	g.Pix[y*g.Width+x] = v
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, Pix: make([]float64, len(g.Pix))}
	copy(out.Pix, g.Pix)
	return out
}

// SameSize reports whether g and o have identical dimensions.
func (g *Grid) SameSize(o *Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// IsFinite reports whether every value in g is neither NaN nor ±Inf.
func (g *Grid) IsFinite() bool {
	for _, v := range g.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// reflectAt reads g at (x, y) with reflect-101 border handling on both axes.
func (g *Grid) reflectAt(x, y int) float64 {
	return g.Pix[Reflect101(y, g.Height)*g.Width+Reflect101(x, g.Width)]
}

// Reflect101 maps an out-of-range index i onto [0, n) by mirroring about the
// first and last element without repeating them: for n=5, -1→1, -2→2, 5→3.
// Indices far outside the range are folded repeatedly. For n=1 every index
// maps to 0.
func Reflect101(i, n int) int {
	if n <= 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*(n-1) - i
		}
	}
	return i
}
