// Package synth builds deterministic synthetic frames for tests and
// benchmarks: smooth textured patterns rendered at an exact sub-pixel
// offset, constant frames and additive noise.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/banshee-data/opticflow/internal/flow"
)

// wave is one sinusoidal component of a Pattern.
type wave struct {
	kx, ky float64 // angular frequency along x and y
	phase  float64
	amp    float64
}

// Pattern is a smooth, well-textured intensity function built from a few
// oriented sinusoids. Rendering it at an offset gives a translated copy with
// no resampling error, so the ground-truth flow is exact.
type Pattern struct {
	waves []wave
}

// NewPattern returns a pattern whose shortest wavelength is minWavelength
// pixels (values below 8 are raised to 8). The same seed always yields the
// same pattern.
func NewPattern(seed uint64, minWavelength float64) *Pattern {
	if minWavelength < 8 {
		minWavelength = 8
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	// Two axis-aligned waves keep the structure tensor well conditioned
	// everywhere; the oblique ones break up the regularity.
	p := &Pattern{}
	angles := []float64{0, math.Pi / 2, math.Pi / 4 + rng.Float64()*0.3, 3*math.Pi/4 + rng.Float64()*0.3}
	for i, a := range angles {
		lambda := minWavelength * (1 + rng.Float64())
		k := 2 * math.Pi / lambda
		amp := 0.18
		if i >= 2 {
			amp = 0.07
		}
		p.waves = append(p.waves, wave{
			kx:    k * math.Cos(a),
			ky:    k * math.Sin(a),
			phase: rng.Float64() * 2 * math.Pi,
			amp:   amp,
		})
	}
	return p
}

// Value returns the intensity at continuous coordinates (x, y), in [0,1].
func (p *Pattern) Value(x, y float64) float64 {
	v := 0.5
	for _, w := range p.waves {
		v += w.amp * math.Sin(w.kx*x+w.ky*y+w.phase)
	}
	return math.Min(1, math.Max(0, v))
}

// Render samples the pattern translated by (dx, dy): the returned frame
// satisfies F(x, y) = Value(x−dx, y−dy), so content moves by (+dx, +dy).
func (p *Pattern) Render(w, h int, dx, dy float64) *flow.Frame {
	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = p.Value(float64(x)-dx, float64(y)-dy)
		}
	}
	return mustFrame(w, h, pix)
}

// Pair renders the pattern at the origin and at (dx, dy).
func (p *Pattern) Pair(w, h int, dx, dy float64) (prev, next *flow.Frame) {
	return p.Render(w, h, 0, 0), p.Render(w, h, dx, dy)
}

// Constant returns a w×h frame filled with value.
func Constant(w, h int, value float64) *flow.Frame {
	pix := make([]float64, w*h)
	for i := range pix {
		pix[i] = value
	}
	return mustFrame(w, h, pix)
}

// AddNoise returns a copy of f with zero-mean Gaussian noise of standard
// deviation sigma added, clamped to [0,1].
func AddNoise(f *flow.Frame, sigma float64, seed uint64) *flow.Frame {
	rng := rand.New(rand.NewPCG(seed, ^seed))
	g := f.Grid()
	for i, v := range g.Pix {
		g.Pix[i] = math.Min(1, math.Max(0, v+rng.NormFloat64()*sigma))
	}
	return mustFrame(g.Width, g.Height, g.Pix)
}

// Shift translates f by integer (dx, dy), filling uncovered pixels with
// reflect-101 samples so the result has no hard seams.
func Shift(f *flow.Frame, dx, dy int) *flow.Frame {
	w, h := f.Width(), f.Height()
	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		sy := flow.Reflect101(y-dy, h)
		for x := 0; x < w; x++ {
			pix[y*w+x] = f.At(flow.Reflect101(x-dx, w), sy)
		}
	}
	return mustFrame(w, h, pix)
}

func mustFrame(w, h int, pix []float64) *flow.Frame {
	f, err := flow.NewFrame(w, h, pix)
	if err != nil {
		panic(err)
	}
	return f
}
