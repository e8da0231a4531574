package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHornSchunck_ZeroIterations(t *testing.T) {
	t.Parallel()

	g := syntheticGradients(4, 4, 1, 1)
	p := DefaultHornSchunckParams()
	p.Iterations = 0
	f, err := HornSchunck(g, p)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 16), f.U.Pix)
	assert.Equal(t, make([]float64, 16), f.V.Pix)
}

func TestHornSchunck_FirstSweep(t *testing.T) {
	t.Parallel()

	g := syntheticGradients(3, 3, 0.5, 0.25)
	p := HornSchunckParams{Alpha: 2, Iterations: 1, Epsilon: DefaultEpsilon}
	f, err := HornSchunck(g, p)
	require.NoError(t, err)

	// From a zero field the averages are zero, so u = −Ix·It/(α²+Ix²+Iy²).
	for i := range f.U.Pix {
		ix, iy, it := g.Ix.Pix[i], g.Iy.Pix[i], g.It.Pix[i]
		d := 4 + ix*ix + iy*iy
		assert.InDelta(t, -ix*it/d, f.U.Pix[i], 1e-12)
		assert.InDelta(t, -iy*it/d, f.V.Pix[i], 1e-12)
	}
}

func TestNeighbourAverage_Reflect101(t *testing.T) {
	t.Parallel()

	src := &Grid{Width: 3, Height: 2, Pix: []float64{
		1, 2, 3,
		4, 5, 6,
	}}
	dst := NewGrid(3, 2)
	neighbourAverage(src, dst, 1)

	// (0,0): left→x=1 (2), right 2, up→y=1 (4), down 4.
	assert.InDelta(t, 3.0, dst.At(0, 0), 1e-12)
	// (1,1): left 4, right 6, up 2, down→y=0 (2).
	assert.InDelta(t, 3.5, dst.At(1, 1), 1e-12)
}

func TestHornSchunck_ZeroAlphaFlatIsFinite(t *testing.T) {
	t.Parallel()

	g := &Gradients{Ix: NewGrid(6, 4), Iy: NewGrid(6, 4), It: NewGrid(6, 4)}
	for i := range g.It.Pix {
		g.It.Pix[i] = 0.3
	}
	p := HornSchunckParams{Alpha: 0, Iterations: 50, Epsilon: DefaultEpsilon}
	f, err := HornSchunck(g, p)
	require.NoError(t, err)
	assert.True(t, f.IsFinite())
}

func TestHornSchunck_MirrorSymmetry(t *testing.T) {
	t.Parallel()

	// An order-dependent (in-place) sweep would break the left/right mirror
	// symmetry; the Jacobi sweep must preserve it.
	const w, h = 11, 7
	img := func(x, y int) float64 {
		return 0.5 + 0.2*math.Sin(0.6*float64(x)+0.3*float64(y)*float64(y)) + 0.01*float64(x*y%5)
	}
	shifted := func(x, y int) float64 { return img(x-1, y) }
	mirror := func(fn func(x, y int) float64) func(x, y int) float64 {
		return func(x, y int) float64 { return fn(w-1-x, y) }
	}

	prev := mustFrame(t, w, h, img)
	next := mustFrame(t, w, h, shifted)
	mPrev := mustFrame(t, w, h, mirror(img))
	mNext := mustFrame(t, w, h, mirror(shifted))

	p := DefaultParams()
	p.HornSchunck.Iterations = 40
	f, err := Estimate(prev, next, MethodHornSchunck, p)
	require.NoError(t, err)
	mf, err := Estimate(mPrev, mNext, MethodHornSchunck, p)
	require.NoError(t, err)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u, v := f.At(x, y)
			mu, mv := mf.At(w-1-x, y)
			assert.InDelta(t, -u, mu, 1e-9, "u(%d,%d)", x, y)
			assert.InDelta(t, v, mv, 1e-9, "v(%d,%d)", x, y)
		}
	}
}

func TestHornSchunck_ObserverAndTolerance(t *testing.T) {
	t.Parallel()

	g := syntheticGradients(8, 8, 0.2, 0.1)

	t.Run("fixed count", func(t *testing.T) {
		t.Parallel()
		var deltas []float64
		p := DefaultHornSchunckParams()
		p.Iterations = 12
		p.Observer = func(iter int, d float64) {
			assert.Equal(t, len(deltas)+1, iter)
			deltas = append(deltas, d)
		}
		_, err := HornSchunck(g, p)
		require.NoError(t, err)
		require.Len(t, deltas, 12)
		for _, d := range deltas {
			assert.GreaterOrEqual(t, d, 0.0)
		}
	})

	t.Run("early exit", func(t *testing.T) {
		t.Parallel()
		calls := 0
		p := DefaultHornSchunckParams()
		p.Tolerance = 1e9
		p.Observer = func(int, float64) { calls++ }
		_, err := HornSchunck(g, p)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("observer does not change result", func(t *testing.T) {
		t.Parallel()
		p := DefaultHornSchunckParams()
		p.Iterations = 20
		plain, err := HornSchunck(g, p)
		require.NoError(t, err)
		p.Observer = func(int, float64) {}
		observed, err := HornSchunck(g, p)
		require.NoError(t, err)
		assert.Equal(t, plain.U.Pix, observed.U.Pix)
		assert.Equal(t, plain.V.Pix, observed.V.Pix)
	})
}

func TestHornSchunckParams_Validate(t *testing.T) {
	t.Parallel()

	base := DefaultHornSchunckParams()
	tests := []struct {
		name   string
		mutate func(*HornSchunckParams)
		ok     bool
	}{
		{"defaults", func(*HornSchunckParams) {}, true},
		{"zero alpha", func(p *HornSchunckParams) { p.Alpha = 0 }, true},
		{"zero iterations", func(p *HornSchunckParams) { p.Iterations = 0 }, true},
		{"negative alpha", func(p *HornSchunckParams) { p.Alpha = -1 }, false},
		{"negative iterations", func(p *HornSchunckParams) { p.Iterations = -1 }, false},
		{"zero epsilon", func(p *HornSchunckParams) { p.Epsilon = 0 }, false},
		{"negative tolerance", func(p *HornSchunckParams) { p.Tolerance = -0.1 }, false},
		{"infinite alpha", func(p *HornSchunckParams) { p.Alpha = math.Inf(1) }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := base
			tc.mutate(&p)
			err := p.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidParameter)
			}
		})
	}
}
