package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/opticflow/internal/db"
	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/flowio"
	"github.com/banshee-data/opticflow/internal/fsutil"
	"github.com/banshee-data/opticflow/internal/imageio"
	"github.com/banshee-data/opticflow/internal/synth"
	"github.com/banshee-data/opticflow/internal/visualiser"
)

func writePair(t *testing.T, dir string) (string, string) {
	t.Helper()
	prev, next := synth.NewPattern(11, 8).Pair(48, 40, 1, 0)
	fsys := fsutil.OSFileSystem{}
	prevPath := filepath.Join(dir, "a.png")
	nextPath := filepath.Join(dir, "b.png")
	require.NoError(t, imageio.SaveGray(fsys, prevPath, prev))
	require.NoError(t, imageio.SaveGray(fsys, nextPath, next))
	return prevPath, nextPath
}

func TestParseFlags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		args     []string
		wantPrev string
		wantNext string
		wantErr  bool
	}{
		{"images flag", []string{"-images", "a.png, b.png"}, "a.png", "b.png", false},
		{"prev next", []string{"-prev", "a.png", "-next", "b.png"}, "a.png", "b.png", false},
		{"positional", []string{"-method", "hs", "a.png", "b.png"}, "a.png", "b.png", false},
		{"one image", []string{"-images", "a.png"}, "", "", true},
		{"missing", []string{"-method", "lk"}, "", "", true},
		{"bad flag", []string{"-nope"}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrev, o.Prev)
			assert.Equal(t, tt.wantNext, o.Next)
		})
	}
}

func TestFlowConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("cfg.json", []byte(`{"method": "hs", "alpha": 3, "iterations": 7}`), 0644))

	o, err := parseFlags([]string{"-config", "cfg.json", "-iters", "9", "a.png", "b.png"})
	require.NoError(t, err)
	cfg, err := o.flowConfig(fsys)
	require.NoError(t, err)

	assert.Equal(t, flow.MethodHornSchunck, cfg.GetMethod(), "file value kept")
	assert.Equal(t, 3.0, cfg.GetAlpha(), "file value kept")
	assert.Equal(t, 9, cfg.GetIterations(), "explicit flag wins")
	assert.Equal(t, flow.DefaultWindowSize, cfg.GetWindowSize(), "default fills the gap")
}

func TestFlowConfig_RejectsInvalidFlag(t *testing.T) {
	t.Parallel()
	o, err := parseFlags([]string{"-win", "4", "a.png", "b.png"})
	require.NoError(t, err)
	_, err = o.flowConfig(fsutil.NewMemoryFileSystem())
	assert.ErrorContains(t, err, "window_size")
	assert.ErrorIs(t, err, flow.ErrInvalidParameter)
}

func TestFlowConfig_QuiverStep(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"flag omitted", []string{"-images", "a.png,b.png"}, visualiser.DefaultQuiverStep},
		{"flag set", []string{"-step", "4", "-images", "a.png,b.png"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o, err := parseFlags(tt.args)
			require.NoError(t, err)
			cfg, err := o.flowConfig(fsutil.NewMemoryFileSystem())
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.GetQuiverStep())
		})
	}
	assert.Equal(t, 15, visualiser.DefaultQuiverStep)
}

func TestRun_Version(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, fsutil.NewMemoryFileSystem(), &out))
	assert.Contains(t, out.String(), "opticflow")
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	prevPath, nextPath := writePair(t, dir)
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "runs.db")

	var out bytes.Buffer
	err := run([]string{
		"-prev", prevPath, "-next", nextPath,
		"-method", "hs", "-iters", "25", "-workers", "2",
		"-out", outDir, "-db", dbPath, "-pixels",
	}, fsutil.OSFileSystem{}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Method: horn_schunck")
	assert.Contains(t, out.String(), "Sweeps: 25")
	for _, name := range []string{"flow.png", "flow.flo", "flow.cbor", "report.html"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	field, err := flowio.Load(fsutil.OSFileSystem{}, filepath.Join(outDir, "flow.cbor"))
	require.NoError(t, err)
	assert.Equal(t, 48, field.Width())
	assert.Equal(t, 40, field.Height())
	assert.True(t, field.IsFinite())

	store, err := db.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, flow.MethodHornSchunck, runs[0].Method)
	assert.Equal(t, 25, runs[0].Params.HornSchunck.Iterations)
	assert.Equal(t, prevPath, runs[0].PrevPath)
}

func TestRun_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	fsys := fsutil.OSFileSystem{}
	small := synth.Constant(8, 8, 0.5)
	large := synth.Constant(9, 8, 0.5)
	require.NoError(t, imageio.SaveGray(fsys, filepath.Join(dir, "a.png"), small))
	require.NoError(t, imageio.SaveGray(fsys, filepath.Join(dir, "b.png"), large))

	err := run([]string{
		"-out", filepath.Join(dir, "out"),
		filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"),
	}, fsys, &bytes.Buffer{})
	assert.ErrorIs(t, err, flow.ErrDimensionMismatch)
	_, statErr := os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(statErr), "nothing written on error")
}
