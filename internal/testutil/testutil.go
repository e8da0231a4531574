// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/opticflow/internal/flow"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertFiniteField fails the test if any component of f is NaN or ±Inf,
// reporting the first offending pixel.
func AssertFiniteField(t testing.TB, f *flow.Field) {
	t.Helper()
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			u, v := f.At(x, y)
			if !finite(u) || !finite(v) {
				t.Fatalf("non-finite flow at (%d,%d): u=%v v=%v", x, y, u, v)
			}
		}
	}
}

// AssertFieldsNear fails the test if a and b differ in size or any component
// differs by more than tol.
func AssertFieldsNear(t testing.TB, a, b *flow.Field, tol float64) {
	t.Helper()
	if a.Width() != b.Width() || a.Height() != b.Height() {
		t.Fatalf("field size %dx%d != %dx%d", a.Width(), a.Height(), b.Width(), b.Height())
	}
	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			au, av := a.At(x, y)
			bu, bv := b.At(x, y)
			if math.Abs(au-bu) > tol || math.Abs(av-bv) > tol {
				t.Fatalf("fields differ at (%d,%d): (%v,%v) vs (%v,%v)", x, y, au, av, bu, bv)
			}
		}
	}
}

// RampField returns a w×h field with u = x·scale and v = −y·scale, handy for
// checking that encoders keep pixel order and sign.
func RampField(w, h int, scale float64) *flow.Field {
	f := flow.NewField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.U.Set(x, y, float64(x)*scale)
			f.V.Set(x, y, -float64(y)*scale)
		}
	}
	return f
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
