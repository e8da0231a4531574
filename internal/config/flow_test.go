package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/fsutil"
)

func TestEmptyFlowConfig_Defaults(t *testing.T) {
	t.Parallel()
	cfg := EmptyFlowConfig()

	assert.Equal(t, flow.MethodLucasKanade, cfg.GetMethod())
	assert.Equal(t, 7, cfg.GetWindowSize())
	assert.Equal(t, 1e-6, cfg.GetEpsilon())
	assert.Equal(t, 1.0, cfg.GetAlpha())
	assert.Equal(t, 200, cfg.GetIterations())
	assert.Equal(t, 0.0, cfg.GetTolerance())
	assert.Equal(t, 1, cfg.GetWorkers())
	assert.Equal(t, 15, cfg.GetQuiverStep())
	assert.Equal(t, "output", cfg.GetOutputDir())
	assert.Equal(t, "", cfg.GetDBPath())

	if diff := cmp.Diff(flow.DefaultParams(), cfg.ToParams()); diff != "" {
		t.Errorf("ToParams() mismatch (-want +got):\n%s", diff)
	}
}

func TestMustLoadDefaultConfig_MatchesEstimatorDefaults(t *testing.T) {
	t.Parallel()
	cfg := MustLoadDefaultConfig()

	if diff := cmp.Diff(flow.DefaultParams(), cfg.ToParams()); diff != "" {
		t.Errorf("defaults file drifted from flow defaults (-want +got):\n%s", diff)
	}
	assert.Equal(t, "output", cfg.GetOutputDir())
	assert.Equal(t, EmptyFlowConfig().GetQuiverStep(), cfg.GetQuiverStep())
}

func TestLoadFlowConfig(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "method": "hs",
  "alpha": 0.5,
  "iterations": 50,
  "tolerance": 1e-4,
  "workers": 4
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadFlowConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, flow.MethodHornSchunck, cfg.GetMethod())
	assert.Equal(t, 7, cfg.GetWindowSize(), "omitted fields keep defaults")

	want := flow.DefaultParams()
	want.HornSchunck.Alpha = 0.5
	want.HornSchunck.Iterations = 50
	want.HornSchunck.Tolerance = 1e-4
	want.Workers = 4
	if diff := cmp.Diff(want, cfg.ToParams()); diff != "" {
		t.Errorf("ToParams() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFlowConfigFS_Errors(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("bad.json", []byte("{not json"), 0644))
	require.NoError(t, fsys.WriteFile("invalid.json", []byte(`{"window_size": 4}`), 0644))
	require.NoError(t, fsys.WriteFile("big.json", []byte(strings.Repeat(" ", maxFileSize+1)), 0644))
	require.NoError(t, fsys.WriteFile("cfg.yaml", []byte("method: lk"), 0644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"extension", "cfg.yaml", "must have .json extension"},
		{"missing", "missing.json", "failed to stat"},
		{"too large", "big.json", "too large"},
		{"malformed", "bad.json", "failed to parse"},
		{"invalid", "invalid.json", "window_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFlowConfigFS(fsys, tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlowConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     *FlowConfig
		wantErr bool
	}{
		{"empty", EmptyFlowConfig(), false},
		{"short method", &FlowConfig{Method: ptrString("LK")}, false},
		{"unknown method", &FlowConfig{Method: ptrString("farneback")}, true},
		{"even window", &FlowConfig{WindowSize: ptrInt(6)}, true},
		{"zero window", &FlowConfig{WindowSize: ptrInt(0)}, true},
		{"zero epsilon", &FlowConfig{Epsilon: ptrFloat64(0)}, true},
		{"zero alpha", &FlowConfig{Alpha: ptrFloat64(0)}, false},
		{"negative alpha", &FlowConfig{Alpha: ptrFloat64(-1)}, true},
		{"zero iterations", &FlowConfig{Iterations: ptrInt(0)}, false},
		{"negative iterations", &FlowConfig{Iterations: ptrInt(-1)}, true},
		{"negative tolerance", &FlowConfig{Tolerance: ptrFloat64(-1e-3)}, true},
		{"negative workers", &FlowConfig{Workers: ptrInt(-2)}, true},
		{"zero quiver step", &FlowConfig{QuiverStep: ptrInt(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, flow.ErrInvalidParameter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlowConfig_SettersOverrideFile(t *testing.T) {
	t.Parallel()
	cfg := &FlowConfig{Method: ptrString("lk"), WindowSize: ptrInt(5)}
	cfg.SetMethod("hs")
	cfg.SetWindowSize(9)
	cfg.SetEpsilon(1e-3)
	cfg.SetAlpha(2)
	cfg.SetIterations(10)
	cfg.SetTolerance(1e-5)
	cfg.SetWorkers(3)
	cfg.SetQuiverStep(4)
	cfg.SetOutputDir("out")
	cfg.SetDBPath("runs.db")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, flow.MethodHornSchunck, cfg.GetMethod())
	assert.Equal(t, 4, cfg.GetQuiverStep())
	assert.Equal(t, "out", cfg.GetOutputDir())
	assert.Equal(t, "runs.db", cfg.GetDBPath())

	p := cfg.ToParams()
	assert.Equal(t, 9, p.LucasKanade.WindowSize)
	assert.Equal(t, 1e-3, p.LucasKanade.Epsilon)
	assert.Equal(t, 1e-3, p.HornSchunck.Epsilon)
	assert.Equal(t, 2.0, p.HornSchunck.Alpha)
	assert.Equal(t, 10, p.HornSchunck.Iterations)
	assert.Equal(t, 1e-5, p.HornSchunck.Tolerance)
	assert.Equal(t, 3, p.Workers)
}
