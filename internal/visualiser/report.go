package visualiser

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/flowstats"
)

// DefaultAssetsHost serves the echarts JavaScript bundle.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// defaultMaxPoints caps the heat map payload.
const defaultMaxPoints = 20000

// viridis colour stops for the magnitude visual map.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ReportInput is everything shown by RenderReport.
type ReportInput struct {
	Title   string
	Method  flow.Method
	Field   *flow.Field
	Summary flowstats.Summary

	// Convergence holds the largest update of each Horn-Schunck sweep.
	// Empty hides the convergence chart.
	Convergence []float64

	MaxPoints  int    // 0 uses a default
	AssetsHost string // empty uses DefaultAssetsHost
}

// RenderReport writes a self-contained HTML page: a magnitude heat map,
// summary statistics and, when available, the convergence of the iteration.
func RenderReport(w io.Writer, in ReportInput) error {
	if in.Field == nil {
		return fmt.Errorf("report needs a flow field")
	}
	host := in.AssetsHost
	if host == "" {
		host = DefaultAssetsHost
	}
	title := in.Title
	if title == "" {
		title = "Optical Flow"
	}

	page := components.NewPage()
	page.SetAssetsHost(host)
	page.AddCharts(magnitudeChart(in, title, host), summaryChart(in.Summary, host))
	if len(in.Convergence) > 0 {
		page.AddCharts(convergenceChart(in.Convergence, host))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

// magnitudeChart renders the field magnitude as a coloured scatter, one
// point per (strided) pixel, with image row 0 at the top.
func magnitudeChart(in ReportInput, title, host string) *charts.Scatter {
	f := in.Field
	width, height := f.Width(), f.Height()
	maxPoints := in.MaxPoints
	if maxPoints <= 0 {
		maxPoints = defaultMaxPoints
	}

	stride := heatmapStride(width, height, maxPoints)

	mag := f.Magnitude()
	data := make([]opts.ScatterData, 0, (width/stride+1)*(height/stride+1))
	maxMag := 0.0
	for y := 0; y < height; y += stride {
		for x := 0; x < width; x += stride {
			m := mag.At(x, y)
			maxMag = math.Max(maxMag, m)
			data = append(data, opts.ScatterData{Value: []interface{}{x, height - 1 - y, m}})
		}
	}
	if maxMag == 0 {
		maxMag = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "700px", AssetsHost: host}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("method=%s size=%dx%d stride=%d", in.Method, width, height, stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: width, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: height, Name: "rows from bottom", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxMag),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("magnitude", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter
}

func summaryChart(s flowstats.Summary, host string) *charts.Bar {
	x := []string{"mean u", "mean v", "mean |w|", "std |w|", "max |w|", "smoothness"}
	y := []opts.BarData{
		{Value: s.MeanU},
		{Value: s.MeanV},
		{Value: s.MeanMagnitude},
		{Value: s.StdMagnitude},
		{Value: s.MaxMagnitude},
		{Value: s.Smoothness},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px", AssetsHost: host}),
		charts.WithTitleOpts(opts.Title{Title: "Summary", Subtitle: fmt.Sprintf("finite=%t", s.Finite)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("summary", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func convergenceChart(deltas []float64, host string) *charts.Line {
	x := make([]int, len(deltas))
	y := make([]opts.LineData, len(deltas))
	for i, d := range deltas {
		x[i] = i + 1
		y[i] = opts.LineData{Value: d}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px", AssetsHost: host}),
		charts.WithTitleOpts(opts.Title{Title: "Convergence", Subtitle: fmt.Sprintf("%d sweeps", len(deltas))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sweep"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "max update"}),
	)
	line.SetXAxis(x).AddSeries("max update", y)
	return line
}

// heatmapStride is the pixel stride in both directions that keeps a w×h
// grid within maxPoints samples.
func heatmapStride(w, h, maxPoints int) int {
	n := w * h
	if n <= maxPoints {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(n) / float64(maxPoints))))
}
