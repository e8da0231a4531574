// Command opticflow estimates dense optical flow between two images with
// Lucas-Kanade or Horn-Schunck and writes a visualisation, the raw field and
// an HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/opticflow/internal/config"
	"github.com/banshee-data/opticflow/internal/db"
	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/flowio"
	"github.com/banshee-data/opticflow/internal/flowstats"
	"github.com/banshee-data/opticflow/internal/fsutil"
	"github.com/banshee-data/opticflow/internal/imageio"
	"github.com/banshee-data/opticflow/internal/monitoring"
	"github.com/banshee-data/opticflow/internal/version"
	"github.com/banshee-data/opticflow/internal/visualiser"
)

// Options holds the command line.
type Options struct {
	Images      string
	Prev        string
	Next        string
	ConfigPath  string
	Method      string
	Window      int
	Epsilon     float64
	Alpha       float64
	Iterations  int
	Tolerance   float64
	Workers     int
	Step        int
	OutputDir   string
	DBPath      string
	Pixels      bool
	NoReport    bool
	ShowVersion bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func main() {
	if err := run(os.Args[1:], fsutil.OSFileSystem{}, os.Stdout); err != nil {
		log.Fatalf("opticflow: %v", err)
	}
}

func parseFlags(args []string) (*Options, error) {
	o := &Options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("opticflow", flag.ContinueOnError)

	fs.StringVar(&o.Images, "images", "", "Comma-separated prev,next image paths")
	fs.StringVar(&o.Prev, "prev", "", "Path to the first frame")
	fs.StringVar(&o.Next, "next", "", "Path to the second frame")
	fs.StringVar(&o.ConfigPath, "config", "", "JSON config file (flags override it)")
	fs.StringVar(&o.Method, "method", "lk", "Estimator: lk or hs")
	fs.IntVar(&o.Window, "win", flow.DefaultWindowSize, "Lucas-Kanade window size (odd)")
	fs.Float64Var(&o.Epsilon, "eps", flow.DefaultEpsilon, "Regularisation epsilon")
	fs.Float64Var(&o.Alpha, "alpha", flow.DefaultAlpha, "Horn-Schunck smoothness weight")
	fs.IntVar(&o.Iterations, "iters", flow.DefaultIterations, "Horn-Schunck iterations")
	fs.Float64Var(&o.Tolerance, "tol", 0, "Horn-Schunck early-exit tolerance (0 disables)")
	fs.IntVar(&o.Workers, "workers", 1, "Row-band workers per pass")
	fs.IntVar(&o.Step, "step", visualiser.DefaultQuiverStep, "Quiver arrow spacing in pixels")
	fs.StringVar(&o.OutputDir, "out", "output", "Output directory")
	fs.StringVar(&o.DBPath, "db", "", "SQLite database to record the run in")
	fs.BoolVar(&o.Pixels, "pixels", false, "Write the field in pixels instead of raw Sobel units")
	fs.BoolVar(&o.NoReport, "no-report", false, "Skip the HTML report")
	fs.BoolVar(&o.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if o.ShowVersion {
		return o, nil
	}

	switch {
	case o.Images != "":
		parts := strings.Split(o.Images, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("-images needs exactly two comma-separated paths, got %d", len(parts))
		}
		o.Prev, o.Next = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	case o.Prev == "" && o.Next == "" && fs.NArg() == 2:
		o.Prev, o.Next = fs.Arg(0), fs.Arg(1)
	}
	if o.Prev == "" || o.Next == "" {
		return nil, fmt.Errorf("two images are required (-images prev,next or -prev/-next)")
	}
	return o, nil
}

// flowConfig merges the config file with explicitly set flags.
func (o *Options) flowConfig(fsys fsutil.FileSystem) (*config.FlowConfig, error) {
	cfg := config.EmptyFlowConfig()
	if o.ConfigPath != "" {
		loaded, err := config.LoadFlowConfigFS(fsys, o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := map[string]func(){
		"method":  func() { cfg.SetMethod(o.Method) },
		"win":     func() { cfg.SetWindowSize(o.Window) },
		"eps":     func() { cfg.SetEpsilon(o.Epsilon) },
		"alpha":   func() { cfg.SetAlpha(o.Alpha) },
		"iters":   func() { cfg.SetIterations(o.Iterations) },
		"tol":     func() { cfg.SetTolerance(o.Tolerance) },
		"workers": func() { cfg.SetWorkers(o.Workers) },
		"step":    func() { cfg.SetQuiverStep(o.Step) },
		"out":     func() { cfg.SetOutputDir(o.OutputDir) },
		"db":      func() { cfg.SetDBPath(o.DBPath) },
	}
	for name, apply := range overrides {
		if o.set[name] {
			apply()
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func run(args []string, fsys fsutil.FileSystem, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.ShowVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	cfg, err := opts.flowConfig(fsys)
	if err != nil {
		return err
	}
	method := cfg.GetMethod()
	params := cfg.ToParams()
	if err := params.Validate(method); err != nil {
		return err
	}

	done := monitoring.Time("load")
	prev, err := imageio.LoadFrame(fsys, opts.Prev)
	if err != nil {
		return err
	}
	next, err := imageio.LoadFrame(fsys, opts.Next)
	if err != nil {
		return err
	}
	done()

	var convergence []float64
	if method == flow.MethodHornSchunck {
		params.HornSchunck.Observer = func(_ int, maxDelta float64) {
			convergence = append(convergence, maxDelta)
		}
	}

	done = monitoring.Time(method.Short())
	field, err := flow.Estimate(prev, next, method, params)
	if err != nil {
		return err
	}
	elapsed := done()

	if opts.Pixels {
		field = field.Scaled(flow.SobelGain)
	}
	summary := flowstats.Summarise(field)
	printSummary(stdout, method, summary, len(convergence), elapsed)

	done = monitoring.Time("write")
	if err := writeOutputs(fsys, cfg, opts, prev, field, summary, convergence, method); err != nil {
		return err
	}
	done()

	if path := cfg.GetDBPath(); path != "" {
		if err := recordRun(path, opts, method, params, summary, elapsed); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputs(fsys fsutil.FileSystem, cfg *config.FlowConfig, opts *Options, prev *flow.Frame,
	field *flow.Field, summary flowstats.Summary, convergence []float64, method flow.Method) error {
	outDir := cfg.GetOutputDir()
	if err := fsys.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	figure := filepath.Join(outDir, "flow.png")
	if err := visualiser.SaveFlowFigure(fsys, figure, prev, field, cfg.GetQuiverStep()); err != nil {
		return err
	}
	monitoring.Logf("Figure written to: %s", figure)

	for _, name := range []string{"flow.flo", "flow.cbor"} {
		path := filepath.Join(outDir, name)
		if err := flowio.Save(fsys, path, field); err != nil {
			return err
		}
		monitoring.Logf("Flow written to: %s", path)
	}

	if opts.NoReport {
		return nil
	}
	path := filepath.Join(outDir, "report.html")
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	err = visualiser.RenderReport(w, visualiser.ReportInput{
		Title:       fmt.Sprintf("%s → %s", filepath.Base(opts.Prev), filepath.Base(opts.Next)),
		Method:      method,
		Field:       field,
		Summary:     summary,
		Convergence: convergence,
	})
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	monitoring.Logf("Report written to: %s", path)
	return nil
}

func recordRun(path string, opts *Options, method flow.Method, params flow.Params,
	summary flowstats.Summary, elapsed time.Duration) error {
	store, err := db.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	params.HornSchunck.Observer = nil
	r, err := store.RecordRun(context.Background(), db.Run{
		Method:   method,
		PrevPath: opts.Prev,
		NextPath: opts.Next,
		Params:   params,
		Summary:  summary,
		Duration: elapsed,
	})
	if err != nil {
		return err
	}
	monitoring.Logf("Run recorded: %s", r.ID)
	return nil
}

func printSummary(w io.Writer, method flow.Method, s flowstats.Summary, sweeps int, elapsed time.Duration) {
	fmt.Fprintf(w, "Method: %s\n", method)
	fmt.Fprintf(w, "Size: %dx%d\n", s.Width, s.Height)
	fmt.Fprintf(w, "Mean flow: (%.4f, %.4f)\n", s.MeanU, s.MeanV)
	fmt.Fprintf(w, "Magnitude: mean %.4f, std %.4f, max %.4f\n", s.MeanMagnitude, s.StdMagnitude, s.MaxMagnitude)
	fmt.Fprintf(w, "Smoothness: %.6f\n", s.Smoothness)
	if sweeps > 0 {
		fmt.Fprintf(w, "Sweeps: %d\n", sweeps)
	}
	fmt.Fprintf(w, "Elapsed: %v\n", elapsed)
}
