package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/timeutil"
)

func testConfig() Config {
	return Config{
		Width:      64,
		Height:     64,
		DX:         1,
		Seed:       7,
		Wavelength: 20,
		Workers:    2,
		Window:     flow.DefaultWindowSize,
		Alpha:      flow.DefaultAlpha,
		Iterations: 50,
		Margin:     10,
	}
}

func TestRunComparison(t *testing.T) {
	t.Parallel()
	clock := timeutil.NewSteppingMockClock(time.Unix(0, 0), time.Millisecond)

	result, err := runComparison(testConfig(), clock)
	require.NoError(t, err)
	require.Len(t, result.PerMethod, 2)

	lk := result.PerMethod["lk"]
	hs := result.PerMethod["hs"]
	assert.Equal(t, flow.MethodLucasKanade, lk.Method)
	assert.Less(t, lk.EndpointError, 0.25)
	assert.Zero(t, lk.Sweeps)
	assert.Equal(t, 50, hs.Sweeps)
	assert.True(t, hs.Summary.Finite)
	assert.Greater(t, hs.Summary.MeanU, 0.0)
	assert.Greater(t, lk.ElapsedMs, 0.0)
	assert.Greater(t, result.TotalTimeMs, 0.0)
}

func TestRunComparison_InvalidWindow(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Window = 4

	_, err := runComparison(cfg, timeutil.RealClock{})
	assert.ErrorIs(t, err, flow.ErrInvalidParameter)
}

func TestPrintAndExport(t *testing.T) {
	t.Parallel()
	result, err := runComparison(testConfig(), timeutil.RealClock{})
	require.NoError(t, err)

	var buf bytes.Buffer
	printResults(&buf, result)
	assert.Contains(t, buf.String(), "lucas_kanade:")
	assert.Contains(t, buf.String(), "horn_schunck:")
	assert.Contains(t, buf.String(), "Sweeps: 50")

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, exportJSON(result, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded ComparisonResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.PerMethod["hs"].Sweeps, decoded.PerMethod["hs"].Sweeps)
	assert.Equal(t, 64, decoded.Width)
}
