package flow

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Field is a dense flow field: U is the horizontal and V the vertical
// displacement (positive V points down the image rows). Estimators report raw
// Sobel units of 1/SobelGain pixel; Scaled(SobelGain) converts to pixels.
type Field struct {
	U *Grid
	V *Grid
}

// Vector is one down-sampled flow sample at pixel (X, Y).
type Vector struct {
	X, Y int
	U, V float64
}

// NewField allocates a zero flow field.
func NewField(w, h int) *Field {
	return &Field{U: NewGrid(w, h), V: NewGrid(w, h)}
}

// Width returns the field width in pixels.
func (f *Field) Width() int { return f.U.Width }

// Height returns the field height in pixels.
func (f *Field) Height() int { return f.U.Height }

// At returns the displacement at (x, y).
func (f *Field) At(x, y int) (u, v float64) {
	i := y*f.U.Width + x
	return f.U.Pix[i], f.V.Pix[i]
}

// Magnitude returns √(u²+v²) per pixel.
func (f *Field) Magnitude() *Grid {
	m := NewGrid(f.Width(), f.Height())
	for i := range m.Pix {
		m.Pix[i] = math.Hypot(f.U.Pix[i], f.V.Pix[i])
	}
	return m
}

// MaxMagnitude returns the largest vector length in the field, or 0 for an
// empty field.
func (f *Field) MaxMagnitude() float64 {
	m := f.Magnitude()
	if len(m.Pix) == 0 {
		return 0
	}
	return floats.Max(m.Pix)
}

// Angle returns atan2(v, u) per pixel, in (−π, π].
func (f *Field) Angle() *Grid {
	a := NewGrid(f.Width(), f.Height())
	for i := range a.Pix {
		a.Pix[i] = math.Atan2(f.V.Pix[i], f.U.Pix[i])
	}
	return a
}

// IsFinite reports whether no component is NaN or ±Inf.
func (f *Field) IsFinite() bool {
	return f.U.IsFinite() && f.V.IsFinite()
}

// Scaled returns a copy of f with both components multiplied by k.
func (f *Field) Scaled(k float64) *Field {
	out := &Field{U: f.U.Clone(), V: f.V.Clone()}
	floats.Scale(k, out.U.Pix)
	floats.Scale(k, out.V.Pix)
	return out
}

// Sample returns one vector every step pixels in both directions, starting at
// (0, 0), row by row. A step below 1 is treated as 1.
func (f *Field) Sample(step int) []Vector {
	if step < 1 {
		step = 1
	}
	w, h := f.Width(), f.Height()
	out := make([]Vector, 0, ((w+step-1)/step)*((h+step-1)/step))
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			u, v := f.At(x, y)
			out = append(out, Vector{X: x, Y: y, U: u, V: v})
		}
	}
	return out
}
