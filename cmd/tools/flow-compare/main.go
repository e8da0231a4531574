// Package main compares Lucas-Kanade and Horn-Schunck on a synthetic pair
// with known translation, reporting endpoint error, smoothness and timing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/flowstats"
	"github.com/banshee-data/opticflow/internal/synth"
	"github.com/banshee-data/opticflow/internal/timeutil"
)

// Config holds configuration for the comparison.
type Config struct {
	Width      int
	Height     int
	DX         float64
	DY         float64
	Noise      float64
	Seed       uint64
	Wavelength float64
	Workers    int
	Window     int
	Alpha      float64
	Iterations int
	Margin     int
	OutputDir  string
	OutputJSON string
}

// ComparisonResult holds the results of one comparison.
type ComparisonResult struct {
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	DX          float64              `json:"dx"`
	DY          float64              `json:"dy"`
	Noise       float64              `json:"noise"`
	Seed        uint64               `json:"seed"`
	Margin      int                  `json:"margin"`
	PerMethod   map[string]MethodRun `json:"per_method"`
	TotalTimeMs float64              `json:"total_time_ms"`
}

// MethodRun holds per-method statistics. Flow values are in pixels.
type MethodRun struct {
	Method        flow.Method       `json:"method"`
	EndpointError float64           `json:"endpoint_error"`
	Summary       flowstats.Summary `json:"summary"`
	Sweeps        int               `json:"sweeps,omitempty"`
	ElapsedMs     float64           `json:"elapsed_ms"`
}

func main() {
	cfg := parseFlags()

	if cfg.Width <= 0 || cfg.Height <= 0 {
		log.Fatal("width and height must be positive")
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	result, err := runComparison(cfg, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("Comparison failed: %v", err)
	}

	printResults(os.Stdout, result)

	if cfg.OutputJSON != "" {
		outputPath := cfg.OutputJSON
		if cfg.OutputDir != "" {
			outputPath = filepath.Join(cfg.OutputDir, cfg.OutputJSON)
		}
		if err := exportJSON(result, outputPath); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", outputPath)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.IntVar(&cfg.Width, "width", 128, "Frame width")
	flag.IntVar(&cfg.Height, "height", 96, "Frame height")
	flag.Float64Var(&cfg.DX, "dx", 1, "Horizontal shift in pixels")
	flag.Float64Var(&cfg.DY, "dy", 0, "Vertical shift in pixels")
	flag.Float64Var(&cfg.Noise, "noise", 0, "Gaussian noise sigma added to the second frame")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "Texture and noise seed")
	flag.Float64Var(&cfg.Wavelength, "wavelength", 20, "Shortest texture wavelength in pixels")
	flag.IntVar(&cfg.Workers, "workers", 1, "Row-band workers per pass")
	flag.IntVar(&cfg.Window, "win", flow.DefaultWindowSize, "Lucas-Kanade window size")
	flag.Float64Var(&cfg.Alpha, "alpha", flow.DefaultAlpha, "Horn-Schunck smoothness weight")
	flag.IntVar(&cfg.Iterations, "iters", flow.DefaultIterations, "Horn-Schunck iterations")
	flag.IntVar(&cfg.Margin, "margin", 10, "Border band excluded from endpoint error")
	flag.StringVar(&cfg.OutputDir, "output", "", "Output directory for results")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Output JSON filename (e.g., results.json)")

	flag.Parse()

	return cfg
}

func runComparison(cfg Config, clock timeutil.Clock) (*ComparisonResult, error) {
	start := clock.Now()

	prev, next := synth.NewPattern(cfg.Seed, cfg.Wavelength).Pair(cfg.Width, cfg.Height, cfg.DX, cfg.DY)
	if cfg.Noise > 0 {
		next = synth.AddNoise(next, cfg.Noise, cfg.Seed+1)
	}

	params := flow.DefaultParams()
	params.Workers = cfg.Workers
	params.LucasKanade.WindowSize = cfg.Window
	params.HornSchunck.Alpha = cfg.Alpha
	params.HornSchunck.Iterations = cfg.Iterations

	margin := cfg.Margin
	result := &ComparisonResult{
		Width:     cfg.Width,
		Height:    cfg.Height,
		DX:        cfg.DX,
		DY:        cfg.DY,
		Noise:     cfg.Noise,
		Seed:      cfg.Seed,
		Margin:    margin,
		PerMethod: make(map[string]MethodRun),
	}

	for _, method := range []flow.Method{flow.MethodLucasKanade, flow.MethodHornSchunck} {
		sweeps := 0
		p := params
		p.HornSchunck.Observer = func(int, float64) { sweeps++ }

		t0 := clock.Now()
		field, err := flow.Estimate(prev, next, method, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method.Short(), err)
		}
		elapsed := clock.Since(t0)

		px := field.Scaled(flow.SobelGain)
		result.PerMethod[method.Short()] = MethodRun{
			Method:        method,
			EndpointError: flowstats.EndpointError(px, cfg.DX, cfg.DY, margin),
			Summary:       flowstats.Summarise(px),
			Sweeps:        sweeps,
			ElapsedMs:     float64(elapsed) / float64(time.Millisecond),
		}
	}

	result.TotalTimeMs = float64(clock.Since(start)) / float64(time.Millisecond)
	return result, nil
}

func printResults(w io.Writer, result *ComparisonResult) {
	fmt.Fprintln(w, "\n=== Optical Flow Comparison Results ===")
	fmt.Fprintf(w, "Frame: %dx%d\n", result.Width, result.Height)
	fmt.Fprintf(w, "True Motion: (%.2f, %.2f) px\n", result.DX, result.DY)
	fmt.Fprintf(w, "Noise Sigma: %.3f\n", result.Noise)
	fmt.Fprintf(w, "Margin: %d px\n", result.Margin)

	fmt.Fprintln(w, "\n--- Per-Method Statistics ---")
	for _, name := range []string{"lk", "hs"} {
		run, ok := result.PerMethod[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", run.Method)
		fmt.Fprintf(w, "  Endpoint Error: %.4f px\n", run.EndpointError)
		fmt.Fprintf(w, "  Mean Flow: (%.4f, %.4f) px\n", run.Summary.MeanU, run.Summary.MeanV)
		fmt.Fprintf(w, "  Smoothness: %.6f\n", run.Summary.Smoothness)
		if run.Sweeps > 0 {
			fmt.Fprintf(w, "  Sweeps: %d\n", run.Sweeps)
		}
		fmt.Fprintf(w, "  Elapsed: %.2f ms\n", run.ElapsedMs)
	}
	fmt.Fprintf(w, "\nTotal Time: %.2f ms\n", result.TotalTimeMs)
}

func exportJSON(result *ComparisonResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
