package flow

import (
	"math"
)

// Lucas-Kanade defaults.
const (
	DefaultWindowSize = 7
	DefaultEpsilon    = 1e-6
)

// LucasKanadeParams configures the local least-squares estimator.
type LucasKanadeParams struct {
	// WindowSize is the odd side length of the summation window.
	WindowSize int `json:"window_size"`
	// Epsilon is added to the structure-tensor determinant before division.
	Epsilon float64 `json:"epsilon"`
}

// DefaultLucasKanadeParams returns WindowSize 7 and Epsilon 1e-6.
func DefaultLucasKanadeParams() LucasKanadeParams {
	return LucasKanadeParams{WindowSize: DefaultWindowSize, Epsilon: DefaultEpsilon}
}

// Validate checks the window size and ε.
func (p LucasKanadeParams) Validate() error {
	if err := validateWindow(p.WindowSize); err != nil {
		return err
	}
	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 0) {
		return invalidParam("epsilon %g must be positive and finite", p.Epsilon)
	}
	return nil
}

// LucasKanadeResult is the flow plus the per-pixel smaller eigenvalue of the
// structure tensor. MinEigen near zero marks pixels where the flow is poorly
// constrained (flat regions and pure edges).
type LucasKanadeResult struct {
	Field    *Field
	MinEigen *Grid
}

// LucasKanade solves, for every pixel, the 2×2 normal equations built from
// the windowed structure tensor:
//
//	det = Ixx·Iyy − Ixy² + ε
//	u   = −(Iyy·Ixt − Ixy·Iyt) / det
//	v   = −(Ixx·Iyt − Ixy·Ixt) / det
//
// Where the window has almost no gradient energy det collapses to ε and the
// result can be large; that is not reported as an error.
func LucasKanade(g *Gradients, p LucasKanadeParams) (*Field, error) {
	res, err := LucasKanadeDetailed(g, p)
	if err != nil {
		return nil, err
	}
	return res.Field, nil
}

// LucasKanadeDetailed is LucasKanade that also returns the MinEigen
// reliability grid.
func LucasKanadeDetailed(g *Gradients, p LucasKanadeParams) (*LucasKanadeResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return lucasKanade(g, p, 1), nil
}

func lucasKanade(g *Gradients, p LucasKanadeParams, workers int) *LucasKanadeResult {
	st := newStructureTensor(g, p.WindowSize, workers)
	w, h := g.Width(), g.Height()
	field := NewField(w, h)
	minEigen := NewGrid(w, h)

	forRows(h, workers, func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			a := st.Ixx.Pix[i]
			b := st.Ixy.Pix[i]
			c := st.Iyy.Pix[i]
			xt := st.Ixt.Pix[i]
			yt := st.Iyt.Pix[i]

			det := a*c - b*b + p.Epsilon
			field.U.Pix[i] = -(c*xt - b*yt) / det
			field.V.Pix[i] = -(a*yt - b*xt) / det

			half := (a - c) / 2
			minEigen.Pix[i] = (a+c)/2 - math.Sqrt(half*half+b*b)
		}
	})

	return &LucasKanadeResult{Field: field, MinEigen: minEigen}
}
