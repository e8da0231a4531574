package flow

import (
	"gonum.org/v1/gonum/floats"
)

// StructureTensor holds the windowed sums of derivative products used by
// Lucas-Kanade. Each grid entry is a sum over a WindowSize×WindowSize
// neighbourhood.
type StructureTensor struct {
	WindowSize int

	Ixx *Grid // Σ Ix²
	Iyy *Grid // Σ Iy²
	Ixy *Grid // Σ Ix·Iy
	Ixt *Grid // Σ Ix·It
	Iyt *Grid // Σ Iy·It
}

// NewStructureTensor accumulates the five derivative products of g over a
// win×win window.
func NewStructureTensor(g *Gradients, win int) (*StructureTensor, error) {
	if err := validateWindow(win); err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return newStructureTensor(g, win, 1), nil
}

func newStructureTensor(g *Gradients, win, workers int) *StructureTensor {
	product := func(a, b *Grid) *Grid {
		p := NewGrid(a.Width, a.Height)
		floats.MulTo(p.Pix, a.Pix, b.Pix)
		return boxSum(p, win, workers)
	}
	return &StructureTensor{
		WindowSize: win,
		Ixx:        product(g.Ix, g.Ix),
		Iyy:        product(g.Iy, g.Iy),
		Ixy:        product(g.Ix, g.Iy),
		Ixt:        product(g.Ix, g.It),
		Iyt:        product(g.Iy, g.It),
	}
}

func (g *Gradients) validate() error {
	if g == nil || g.Ix == nil || g.Iy == nil || g.It == nil {
		return invalidParam("gradients are incomplete")
	}
	if !g.Ix.SameSize(g.Iy) {
		return dimensionMismatch(g.Ix.Width, g.Ix.Height, g.Iy.Width, g.Iy.Height)
	}
	if !g.Ix.SameSize(g.It) {
		return dimensionMismatch(g.Ix.Width, g.Ix.Height, g.It.Width, g.It.Height)
	}
	return nil
}
