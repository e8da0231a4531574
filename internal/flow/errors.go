package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when two frames (or grids that must be
	// aligned) differ in width or height.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidParameter is returned when an estimation parameter is outside
	// its accepted range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func dimensionMismatch(aw, ah, bw, bh int) error {
	return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, aw, ah, bw, bh)
}
