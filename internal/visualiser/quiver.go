package visualiser

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/imageio"
)

// DefaultQuiverStep is the arrow spacing in pixels.
const DefaultQuiverStep = 15

// Quiver draws one arrow per sampled vector. Coordinates are image pixels
// with rows increasing downwards; the plot's y axis points up, so v is
// inverted when drawn.
type Quiver struct {
	Vectors []flow.Vector
	Width   int
	Height  int

	// Scale multiplies every vector before drawing.
	Scale float64

	draw.LineStyle
	HeadLength vg.Length
}

// NewQuiver samples f every step pixels and scales the arrows so the
// longest one spans 90% of the sampling step.
func NewQuiver(f *flow.Field, step int) *Quiver {
	if step < 1 {
		step = DefaultQuiverStep
	}
	vectors := f.Sample(step)
	return &Quiver{
		Vectors: vectors,
		Width:   f.Width(),
		Height:  f.Height(),
		Scale:   arrowScale(vectors, step),
		LineStyle: draw.LineStyle{
			Color: color.RGBA{R: 255, A: 255},
			Width: vg.Points(1),
		},
		HeadLength: vg.Points(3),
	}
}

func arrowScale(vectors []flow.Vector, step int) float64 {
	maxLen := 0.0
	for _, v := range vectors {
		maxLen = math.Max(maxLen, math.Hypot(v.U, v.V))
	}
	if maxLen == 0 {
		return 1
	}
	return 0.9 * float64(step) / maxLen
}

// Plot implements plot.Plotter.
func (q *Quiver) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, v := range q.Vectors {
		x0 := float64(v.X) + 0.5
		y0 := float64(q.Height) - float64(v.Y) - 0.5
		p0 := vg.Point{X: trX(x0), Y: trY(y0)}
		p1 := vg.Point{X: trX(x0 + v.U*q.Scale), Y: trY(y0 - v.V*q.Scale)}

		lines := [][]vg.Point{{p0, p1}}
		dx, dy := float64(p1.X-p0.X), float64(p1.Y-p0.Y)
		if l := math.Hypot(dx, dy); l > 0 {
			angle := math.Atan2(dy, dx)
			for _, side := range []float64{-1, 1} {
				a := angle + math.Pi - side*math.Pi/6
				tip := vg.Point{
					X: p1.X + q.HeadLength*vg.Length(math.Cos(a)),
					Y: p1.Y + q.HeadLength*vg.Length(math.Sin(a)),
				}
				lines = append(lines, []vg.Point{p1, tip})
			}
		}
		c.StrokeLines(q.LineStyle, c.ClipLinesXY(lines...)...)
	}
}

// DataRange implements plot.DataRanger.
func (q *Quiver) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, float64(q.Width), 0, float64(q.Height)
}

// QuiverPlot draws the flow as arrows every step pixels over the grayscale
// frame.
func QuiverPlot(frame *flow.Frame, f *flow.Field, step int) (*plot.Plot, error) {
	if frame.Width() != f.Width() || frame.Height() != f.Height() {
		return nil, fmt.Errorf("%w: frame %dx%d, field %dx%d",
			flow.ErrDimensionMismatch, frame.Width(), frame.Height(), f.Width(), f.Height())
	}

	p := plot.New()
	p.Title.Text = "Quiver Plot"
	p.HideAxes()

	w, h := float64(f.Width()), float64(f.Height())
	p.Add(plotter.NewImage(imageio.ToGray(frame), 0, 0, w, h))
	p.Add(NewQuiver(f, step))
	return p, nil
}

// HSVPlot wraps EncodeHSV in a titled plot.
func HSVPlot(f *flow.Field) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Optical Flow (HSV)"
	p.HideAxes()
	p.Add(plotter.NewImage(EncodeHSV(f), 0, 0, float64(f.Width()), float64(f.Height())))
	return p
}
