package flow

import (
	"math"
)

// Frame is an immutable single-channel intensity image. Values are expected
// to be normalised to [0,1] by the loader; Frame itself does not rescale.
type Frame struct {
	g *Grid
}

// NewFrame builds a w×h frame from row-major pixel values. pix is copied so
// later changes by the caller do not affect the frame.
func NewFrame(w, h int, pix []float64) (*Frame, error) {
	if w <= 0 || h <= 0 {
		return nil, invalidParam("frame size %dx%d must be positive", w, h)
	}
	if len(pix) != w*h {
		return nil, invalidParam("frame %dx%d needs %d pixels, got %d", w, h, w*h, len(pix))
	}
	for i, v := range pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalidParam("pixel %d is not finite", i)
		}
	}
	g := NewGrid(w, h)
	copy(g.Pix, pix)
	return &Frame{g: g}, nil
}

// FrameFromGrid builds a frame from a copy of g.
func FrameFromGrid(g *Grid) (*Frame, error) {
	return NewFrame(g.Width, g.Height, g.Pix)
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.g.Width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.g.Height }

// At returns the intensity at (x, y).
func (f *Frame) At(x, y int) float64 { return f.g.At(x, y) }

// Grid returns a copy of the frame's pixels.
func (f *Frame) Grid() *Grid { return f.g.Clone() }

// SameSize reports whether f and o have identical dimensions.
func (f *Frame) SameSize(o *Frame) bool { return f.g.SameSize(o.g) }
