package flow

import (
	"gonum.org/v1/gonum/floats"
)

// SobelGain is how much the unnormalised Sobel kernels overstate a unit
// intensity slope: 2 from the central difference times 4 from the [1 2 1]
// smoothing. It is the same for both estimators, so their fields are in units
// of 1/SobelGain pixel. Field.Scaled(SobelGain) converts to pixels.
const SobelGain = 8.0

// Gradients holds the derivatives shared by both estimators.
//   - Ix, Iy: unnormalised 3×3 Sobel response of the first frame.
//   - It: next − prev, pixel-wise.
type Gradients struct {
	Ix *Grid
	Iy *Grid
	It *Grid
}

// Width returns the width shared by all three derivative grids.
func (g *Gradients) Width() int { return g.Ix.Width }

// Height returns the height shared by all three derivative grids.
func (g *Gradients) Height() int { return g.Ix.Height }

// ComputeGradients derives Ix and Iy from prev with the Sobel kernels
//
//	Ix: [-1 0 1; -2 0 2; -1 0 1]    Iy: [-1 -2 -1; 0 0 0; 1 2 1]
//
// (reflect-101 borders) and It = next − prev.
func ComputeGradients(prev, next *Frame) (*Gradients, error) {
	if !prev.SameSize(next) {
		return nil, dimensionMismatch(prev.Width(), prev.Height(), next.Width(), next.Height())
	}
	return computeGradients(prev, next, 1), nil
}

func computeGradients(prev, next *Frame, workers int) *Gradients {
	src := prev.g
	w, h := src.Width, src.Height
	ix := NewGrid(w, h)
	iy := NewGrid(w, h)

	forRows(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				tl := src.reflectAt(x-1, y-1)
				tc := src.reflectAt(x, y-1)
				tr := src.reflectAt(x+1, y-1)
				ml := src.reflectAt(x-1, y)
				mr := src.reflectAt(x+1, y)
				bl := src.reflectAt(x-1, y+1)
				bc := src.reflectAt(x, y+1)
				br := src.reflectAt(x+1, y+1)

				i := y*w + x
				ix.Pix[i] = (tr + 2*mr + br) - (tl + 2*ml + bl)
				iy.Pix[i] = (bl + 2*bc + br) - (tl + 2*tc + tr)
			}
		}
	})

	it := NewGrid(w, h)
	floats.SubTo(it.Pix, next.g.Pix, src.Pix)

	return &Gradients{Ix: ix, Iy: iy, It: it}
}
