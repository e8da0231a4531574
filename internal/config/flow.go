package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/fsutil"
	"github.com/banshee-data/opticflow/internal/visualiser"
)

// DefaultConfigPath is the path to the canonical flow defaults file.
const DefaultConfigPath = "config/flow.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// FlowConfig is the on-disk estimator and output configuration. Every field
// is optional; the Get* accessors supply defaults for anything omitted so
// partial files are safe.
type FlowConfig struct {
	Method *string `json:"method,omitempty"` // "lk", "hs" or a canonical name

	// Lucas-Kanade
	WindowSize *int `json:"window_size,omitempty"`

	// Shared by both estimators
	Epsilon *float64 `json:"epsilon,omitempty"`

	// Horn-Schunck
	Alpha      *float64 `json:"alpha,omitempty"`
	Iterations *int     `json:"iterations,omitempty"`
	Tolerance  *float64 `json:"tolerance,omitempty"`

	Workers *int `json:"workers,omitempty"`

	// Output
	QuiverStep *int    `json:"quiver_step,omitempty"`
	OutputDir  *string `json:"output_dir,omitempty"`
	DBPath     *string `json:"db_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyFlowConfig returns a FlowConfig with all fields set to nil.
func EmptyFlowConfig() *FlowConfig {
	return &FlowConfig{}
}

// LoadFlowConfig loads a FlowConfig from a JSON file on the host filesystem.
func LoadFlowConfig(path string) (*FlowConfig, error) {
	return LoadFlowConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadFlowConfigFS loads a FlowConfig through fsys. The file must have a
// .json extension and be under 1MB.
func LoadFlowConfigFS(fsys fsutil.FileSystem, path string) (*FlowConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyFlowConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *FlowConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/flow-compare/
	}
	for _, path := range candidates {
		if cfg, err := LoadFlowConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set. Estimator parameters are checked
// again by flow.Params.Validate once merged with defaults.
func (c *FlowConfig) Validate() error {
	if c.Method != nil {
		if _, err := flow.ParseMethod(*c.Method); err != nil {
			return err
		}
	}
	if c.WindowSize != nil && (*c.WindowSize <= 0 || *c.WindowSize%2 == 0) {
		return fmt.Errorf("%w: window_size must be a positive odd integer, got %d", flow.ErrInvalidParameter, *c.WindowSize)
	}
	if c.Epsilon != nil && *c.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be positive, got %g", flow.ErrInvalidParameter, *c.Epsilon)
	}
	if c.Alpha != nil && *c.Alpha < 0 {
		return fmt.Errorf("%w: alpha must be non-negative, got %g", flow.ErrInvalidParameter, *c.Alpha)
	}
	if c.Iterations != nil && *c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be non-negative, got %d", flow.ErrInvalidParameter, *c.Iterations)
	}
	if c.Tolerance != nil && *c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must be non-negative, got %g", flow.ErrInvalidParameter, *c.Tolerance)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", flow.ErrInvalidParameter, *c.Workers)
	}
	if c.QuiverStep != nil && *c.QuiverStep <= 0 {
		return fmt.Errorf("%w: quiver_step must be positive, got %d", flow.ErrInvalidParameter, *c.QuiverStep)
	}
	return nil
}

// GetMethod returns the parsed method or Lucas-Kanade.
func (c *FlowConfig) GetMethod() flow.Method {
	if c.Method == nil {
		return flow.MethodLucasKanade
	}
	m, err := flow.ParseMethod(*c.Method)
	if err != nil {
		return flow.MethodLucasKanade // default on parse error
	}
	return m
}

// GetWindowSize returns the window_size value or the default.
func (c *FlowConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return flow.DefaultWindowSize
	}
	return *c.WindowSize
}

// GetEpsilon returns the epsilon value or the default.
func (c *FlowConfig) GetEpsilon() float64 {
	if c.Epsilon == nil {
		return flow.DefaultEpsilon
	}
	return *c.Epsilon
}

// GetAlpha returns the alpha value or the default.
func (c *FlowConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return flow.DefaultAlpha
	}
	return *c.Alpha
}

// GetIterations returns the iterations value or the default.
func (c *FlowConfig) GetIterations() int {
	if c.Iterations == nil {
		return flow.DefaultIterations
	}
	return *c.Iterations
}

// GetTolerance returns the tolerance value or the default (disabled).
func (c *FlowConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return 0
	}
	return *c.Tolerance
}

// GetWorkers returns the workers value or the default.
func (c *FlowConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetQuiverStep returns the quiver_step value or the default.
func (c *FlowConfig) GetQuiverStep() int {
	if c.QuiverStep == nil {
		return visualiser.DefaultQuiverStep
	}
	return *c.QuiverStep
}

// GetOutputDir returns the output_dir value or the default.
func (c *FlowConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "output"
	}
	return *c.OutputDir
}

// GetDBPath returns the db_path value. Empty disables run recording.
func (c *FlowConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// ToParams merges the config with estimator defaults.
func (c *FlowConfig) ToParams() flow.Params {
	p := flow.DefaultParams()
	p.LucasKanade.WindowSize = c.GetWindowSize()
	p.LucasKanade.Epsilon = c.GetEpsilon()
	p.HornSchunck.Alpha = c.GetAlpha()
	p.HornSchunck.Iterations = c.GetIterations()
	p.HornSchunck.Epsilon = c.GetEpsilon()
	p.HornSchunck.Tolerance = c.GetTolerance()
	p.Workers = c.GetWorkers()
	return p
}

// Set* apply command-line overrides on top of a loaded file.
func (c *FlowConfig) SetMethod(v string)     { c.Method = ptrString(v) }
func (c *FlowConfig) SetWindowSize(v int)    { c.WindowSize = ptrInt(v) }
func (c *FlowConfig) SetEpsilon(v float64)   { c.Epsilon = ptrFloat64(v) }
func (c *FlowConfig) SetAlpha(v float64)     { c.Alpha = ptrFloat64(v) }
func (c *FlowConfig) SetIterations(v int)    { c.Iterations = ptrInt(v) }
func (c *FlowConfig) SetTolerance(v float64) { c.Tolerance = ptrFloat64(v) }
func (c *FlowConfig) SetWorkers(v int)       { c.Workers = ptrInt(v) }
func (c *FlowConfig) SetQuiverStep(v int)    { c.QuiverStep = ptrInt(v) }
func (c *FlowConfig) SetOutputDir(v string)  { c.OutputDir = ptrString(v) }
func (c *FlowConfig) SetDBPath(v string)     { c.DBPath = ptrString(v) }
