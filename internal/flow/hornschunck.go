package flow

import (
	"math"
)

// Horn-Schunck defaults.
const (
	DefaultAlpha      = 1.0
	DefaultIterations = 200
)

// HornSchunckParams configures the global variational estimator.
type HornSchunckParams struct {
	// Alpha weights the smoothness term; the energy uses α².
	Alpha float64 `json:"alpha"`
	// Iterations is the fixed number of Jacobi sweeps.
	Iterations int `json:"iterations"`
	// Epsilon replaces a denominator that is exactly zero.
	Epsilon float64 `json:"epsilon"`
	// Tolerance stops the iteration early once the largest absolute change
	// of u or v in a sweep drops below it. Zero keeps the fixed count.
	Tolerance float64 `json:"tolerance,omitempty"`
	// Observer, if set, is called after every sweep with the 1-based sweep
	// number and the largest absolute change of that sweep.
	Observer func(iter int, maxDelta float64) `json:"-"`
}

// DefaultHornSchunckParams returns α=1, 200 iterations, ε=1e-6 and no
// early exit.
func DefaultHornSchunckParams() HornSchunckParams {
	return HornSchunckParams{
		Alpha:      DefaultAlpha,
		Iterations: DefaultIterations,
		Epsilon:    DefaultEpsilon,
	}
}

// Validate checks α, the iteration count, ε and the tolerance.
func (p HornSchunckParams) Validate() error {
	if p.Alpha < 0 || math.IsNaN(p.Alpha) || math.IsInf(p.Alpha, 0) {
		return invalidParam("alpha %g must be non-negative and finite", p.Alpha)
	}
	if p.Iterations < 0 {
		return invalidParam("iterations %d must be non-negative", p.Iterations)
	}
	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 0) {
		return invalidParam("epsilon %g must be positive and finite", p.Epsilon)
	}
	if p.Tolerance < 0 || math.IsNaN(p.Tolerance) {
		return invalidParam("tolerance %g must be non-negative", p.Tolerance)
	}
	return nil
}

// HornSchunck relaxes a globally smooth flow field. Starting from u = v = 0,
// each sweep computes
//
//	ū, v̄  = ¼ · (sum of the four axis neighbours)      (reflect-101)
//	term  = (Ix·ū + Iy·v̄ + It) / (α² + Ix² + Iy²)
//	u, v  = ū − Ix·term, v̄ − Iy·term
//
// Averages always come from the previous sweep's fully written field, so the
// result does not depend on traversal order.
func HornSchunck(g *Gradients, p HornSchunckParams) (*Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return hornSchunck(g, p, 1), nil
}

func hornSchunck(g *Gradients, p HornSchunckParams, workers int) *Field {
	w, h := g.Width(), g.Height()
	n := w * h

	// denom depends only on the gradients, so it is fixed across sweeps.
	alpha2 := p.Alpha * p.Alpha
	denom := make([]float64, n)
	for i := range denom {
		ix, iy := g.Ix.Pix[i], g.Iy.Pix[i]
		d := alpha2 + ix*ix + iy*iy
		if d == 0 {
			d = p.Epsilon
		}
		denom[i] = d
	}

	field := NewField(w, h)
	uAvg := NewGrid(w, h)
	vAvg := NewGrid(w, h)
	rowDelta := make([]float64, h)

	for iter := 1; iter <= p.Iterations; iter++ {
		neighbourAverage(field.U, uAvg, workers)
		neighbourAverage(field.V, vAvg, workers)

		forRows(h, workers, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				var maxDelta float64
				for i := y * w; i < (y+1)*w; i++ {
					ix, iy := g.Ix.Pix[i], g.Iy.Pix[i]
					ua, va := uAvg.Pix[i], vAvg.Pix[i]
					term := (ix*ua + iy*va + g.It.Pix[i]) / denom[i]
					u := ua - ix*term
					v := va - iy*term

					maxDelta = math.Max(maxDelta, math.Abs(u-field.U.Pix[i]))
					maxDelta = math.Max(maxDelta, math.Abs(v-field.V.Pix[i]))
					field.U.Pix[i] = u
					field.V.Pix[i] = v
				}
				rowDelta[y] = maxDelta
			}
		})

		var sweepDelta float64
		for _, d := range rowDelta {
			sweepDelta = math.Max(sweepDelta, d)
		}
		if p.Observer != nil {
			p.Observer(iter, sweepDelta)
		}
		if p.Tolerance > 0 && sweepDelta < p.Tolerance {
			break
		}
	}
	return field
}

// neighbourAverage writes into dst the 4-neighbour mean of src: weight ¼ on
// the left, right, upper and lower neighbours, zero on the centre and the
// diagonals.
func neighbourAverage(src, dst *Grid, workers int) {
	w, h := src.Width, src.Height
	forRows(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				s := src.reflectAt(x-1, y) + src.reflectAt(x+1, y) +
					src.reflectAt(x, y-1) + src.reflectAt(x, y+1)
				dst.Pix[y*w+x] = s / 4
			}
		}
	})
}
