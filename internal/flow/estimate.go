package flow

import (
	"fmt"
	"strings"
)

// Method selects the estimator used by Estimate.
type Method string

const (
	MethodLucasKanade Method = "lucas_kanade"
	MethodHornSchunck Method = "horn_schunck"
)

// ParseMethod accepts the canonical names and the short forms "lk" and "hs",
// case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lk", "lucas_kanade", "lucas-kanade", "lucaskanade":
		return MethodLucasKanade, nil
	case "hs", "horn_schunck", "horn-schunck", "hornschunck":
		return MethodHornSchunck, nil
	default:
		return "", invalidParam("unknown method %q (want lk or hs)", s)
	}
}

// Short returns the two-letter form ("lk" or "hs").
func (m Method) Short() string {
	switch m {
	case MethodLucasKanade:
		return "lk"
	case MethodHornSchunck:
		return "hs"
	default:
		return string(m)
	}
}

// Params bundles the parameters of both estimators. Only the block for the
// selected method is validated and used.
type Params struct {
	LucasKanade LucasKanadeParams `json:"lucas_kanade"`
	HornSchunck HornSchunckParams `json:"horn_schunck"`

	// Workers > 1 splits every per-pixel pass into row bands processed
	// concurrently. Results are identical to the sequential path.
	Workers int `json:"workers"`
}

// DefaultParams returns the defaults of both estimators, sequential.
func DefaultParams() Params {
	return Params{
		LucasKanade: DefaultLucasKanadeParams(),
		HornSchunck: DefaultHornSchunckParams(),
		Workers:     1,
	}
}

// Validate checks the parameters that apply to method.
func (p Params) Validate(method Method) error {
	if p.Workers < 0 {
		return invalidParam("workers %d must be non-negative", p.Workers)
	}
	switch method {
	case MethodLucasKanade:
		if err := p.LucasKanade.Validate(); err != nil {
			return fmt.Errorf("lucas-kanade: %w", err)
		}
	case MethodHornSchunck:
		if err := p.HornSchunck.Validate(); err != nil {
			return fmt.Errorf("horn-schunck: %w", err)
		}
	default:
		return invalidParam("unknown method %q", string(method))
	}
	return nil
}

// Estimate computes the flow from prev to next. Frame dimensions and
// parameters are checked before any computation; on error no field is
// returned.
func Estimate(prev, next *Frame, method Method, params Params) (*Field, error) {
	if prev == nil || next == nil {
		return nil, invalidParam("both frames are required")
	}
	if !prev.SameSize(next) {
		return nil, dimensionMismatch(prev.Width(), prev.Height(), next.Width(), next.Height())
	}
	if err := params.Validate(method); err != nil {
		return nil, err
	}

	grads := computeGradients(prev, next, params.Workers)
	switch method {
	case MethodLucasKanade:
		return lucasKanade(grads, params.LucasKanade, params.Workers).Field, nil
	default:
		return hornSchunck(grads, params.HornSchunck, params.Workers), nil
	}
}
