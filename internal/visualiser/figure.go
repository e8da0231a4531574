package visualiser

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/fsutil"
)

// figurePanelWidth is the width of each of the two panels.
const figurePanelWidth = 6 * vg.Inch

// WriteFlowFigure renders the HSV coding and the quiver plot side by side
// as a PNG.
func WriteFlowFigure(w io.Writer, frame *flow.Frame, f *flow.Field, step int) error {
	quiver, err := QuiverPlot(frame, f, step)
	if err != nil {
		return err
	}
	plots := [][]*plot.Plot{{HSVPlot(f), quiver}}

	aspect := float64(f.Height()) / float64(f.Width())
	height := figurePanelWidth*vg.Length(aspect) + vg.Inch
	img := vgimg.New(2*figurePanelWidth, height)
	dc := draw.New(img)

	t := draw.Tiles{
		Rows:      1,
		Cols:      2,
		PadX:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, t, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write figure: %w", err)
	}
	return nil
}

// SaveFlowFigure writes the figure produced by WriteFlowFigure to path.
func SaveFlowFigure(fsys fsutil.FileSystem, path string, frame *flow.Frame, f *flow.Field, step int) error {
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}
	if err := WriteFlowFigure(out, frame, f, step); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
