package flow

// BoxSum returns, for every pixel, the sum (not the mean) of g over the
// win×win neighbourhood centred on it, with reflect-101 borders. win must be
// odd and at least 1.
//
// The sum is unnormalised on purpose: the Lucas-Kanade ε is an absolute
// regulariser on the determinant of these sums, so averaging would change its
// effective scale.
func BoxSum(g *Grid, win int) (*Grid, error) {
	if err := validateWindow(win); err != nil {
		return nil, err
	}
	return boxSum(g, win, 1), nil
}

func validateWindow(win int) error {
	if win < 1 {
		return invalidParam("window size %d must be positive", win)
	}
	if win%2 == 0 {
		return invalidParam("window size %d must be odd", win)
	}
	return nil
}

// boxSum is separable: reflect-101 padding is applied per axis, so a row pass
// followed by a column pass yields exactly the 2-D windowed sum.
func boxSum(g *Grid, win, workers int) *Grid {
	w, h := g.Width, g.Height
	r := win / 2
	if r == 0 {
		return g.Clone()
	}

	rows := NewGrid(w, h)
	forRows(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			line := g.Pix[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				var s float64
				for k := -r; k <= r; k++ {
					s += line[Reflect101(x+k, w)]
				}
				rows.Pix[y*w+x] = s
			}
		}
	})

	out := NewGrid(w, h)
	forRows(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var s float64
				for k := -r; k <= r; k++ {
					s += rows.Pix[Reflect101(y+k, h)*w+x]
				}
				out.Pix[y*w+x] = s
			}
		}
	})
	return out
}
