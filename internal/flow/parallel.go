package flow

import (
	"golang.org/x/sync/errgroup"
)

// forRows runs fn over [0, h) split into contiguous row bands. With
// workers <= 1 it is a plain call on the calling goroutine. Each band must
// write only its own rows of the output.
func forRows(h, workers int, fn func(y0, y1 int)) {
	if workers <= 1 || h < 2 {
		fn(0, h)
		return
	}
	if workers > h {
		workers = h
	}
	band := (h + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}
