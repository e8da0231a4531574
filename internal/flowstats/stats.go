// Package flowstats summarises and compares flow fields: magnitude
// statistics, local smoothness and endpoint error against a known motion.
package flowstats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/opticflow/internal/flow"
)

// Summary describes one flow field.
type Summary struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	MeanU         float64 `json:"mean_u"`
	MeanV         float64 `json:"mean_v"`
	MeanMagnitude float64 `json:"mean_magnitude"`
	StdMagnitude  float64 `json:"std_magnitude"`
	MaxMagnitude  float64 `json:"max_magnitude"`
	Smoothness    float64 `json:"smoothness"`
	Finite        bool    `json:"finite"`
}

// Summarise computes the Summary of f.
func Summarise(f *flow.Field) Summary {
	s := Summary{
		Width:  f.Width(),
		Height: f.Height(),
		Finite: f.IsFinite(),
	}
	if len(f.U.Pix) == 0 {
		return s
	}
	mag := f.Magnitude().Pix
	s.MeanU = stat.Mean(f.U.Pix, nil)
	s.MeanV = stat.Mean(f.V.Pix, nil)
	s.MeanMagnitude, s.StdMagnitude = stat.MeanStdDev(mag, nil)
	if len(mag) == 1 {
		s.StdMagnitude = 0
	}
	s.MaxMagnitude = floats.Max(mag)
	s.Smoothness = Smoothness(f)
	return s
}

// Smoothness is the mean, over all pixels, of the local variance of the flow
// vectors in the pixel's 4-neighbourhood (the pixel plus its in-bounds axis
// neighbours). Variance is summed over the u and v components. Lower is
// smoother.
func Smoothness(f *flow.Field) float64 {
	w, h := f.Width(), f.Height()
	if w*h == 0 {
		return 0
	}
	us := make([]float64, 0, 5)
	vs := make([]float64, 0, 5)
	var total float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			us, vs = us[:0], vs[:0]
			for _, d := range [...][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				u, v := f.At(nx, ny)
				us = append(us, u)
				vs = append(vs, v)
			}
			if len(us) < 2 {
				continue
			}
			total += stat.Variance(us, nil) + stat.Variance(vs, nil)
		}
	}
	return total / float64(w*h)
}

// EndpointError is the mean Euclidean distance between f and the constant
// motion (u, v), ignoring a border of margin pixels on every side.
func EndpointError(f *flow.Field, u, v float64, margin int) float64 {
	var sum float64
	var n int
	forInterior(f, margin, func(x, y int) {
		fu, fv := f.At(x, y)
		sum += math.Hypot(fu-u, fv-v)
		n++
	})
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageEndpointError compares f against a ground-truth field of the same
// size, ignoring a border of margin pixels.
func AverageEndpointError(f, truth *flow.Field, margin int) (float64, error) {
	if f.Width() != truth.Width() || f.Height() != truth.Height() {
		return 0, flow.ErrDimensionMismatch
	}
	var sum float64
	var n int
	forInterior(f, margin, func(x, y int) {
		fu, fv := f.At(x, y)
		tu, tv := truth.At(x, y)
		sum += math.Hypot(fu-tu, fv-tv)
		n++
	})
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func forInterior(f *flow.Field, margin int, fn func(x, y int)) {
	if margin < 0 {
		margin = 0
	}
	for y := margin; y < f.Height()-margin; y++ {
		for x := margin; x < f.Width()-margin; x++ {
			fn(x, y)
		}
	}
}
