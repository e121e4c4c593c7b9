// Package config loads the estimator tuning file. Fields omitted from the
// JSON keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeinus134131/audioROS/internal/inference"
)

// TuningConfig is the root tuning schema. All fields are optional; the
// Get* accessors supply the fallback defaults.
type TuningConfig struct {
	// Fusion window and hypothesis grids
	NWindow        *int     `json:"n_window,omitempty"`
	DistanceMinCM  *float64 `json:"distance_min_cm,omitempty"`
	DistanceMaxCM  *float64 `json:"distance_max_cm,omitempty"`
	DistanceStepCM *float64 `json:"distance_step_cm,omitempty"`
	AngleMinDeg    *float64 `json:"angle_min_deg,omitempty"`
	AngleMaxDeg    *float64 `json:"angle_max_deg,omitempty"`
	AngleStepDeg   *float64 `json:"angle_step_deg,omitempty"`

	// Per-slice inference params
	Method *string  `json:"method,omitempty"` // "fft", "bayes" or "cost"
	Sigma  *float64 `json:"sigma,omitempty"`  // bayes noise scale; omit to estimate from data
	NMax   *int     `json:"n_max,omitempty"`

	// Array physics
	SpeedOfSound *float64 `json:"speed_of_sound,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil,
// so every accessor falls back to its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all set fields carry usable values.
func (c *TuningConfig) Validate() error {
	if c.NWindow != nil && *c.NWindow < 1 {
		return fmt.Errorf("n_window must be at least 1, got %d", *c.NWindow)
	}
	if c.DistanceStepCM != nil && *c.DistanceStepCM <= 0 {
		return fmt.Errorf("distance_step_cm must be positive, got %v", *c.DistanceStepCM)
	}
	if c.AngleStepDeg != nil && *c.AngleStepDeg <= 0 {
		return fmt.Errorf("angle_step_deg must be positive, got %v", *c.AngleStepDeg)
	}
	if c.DistanceMinCM != nil && c.DistanceMaxCM != nil && *c.DistanceMinCM >= *c.DistanceMaxCM {
		return fmt.Errorf("distance_min_cm %v must be below distance_max_cm %v", *c.DistanceMinCM, *c.DistanceMaxCM)
	}
	if c.AngleMinDeg != nil && c.AngleMaxDeg != nil && *c.AngleMinDeg >= *c.AngleMaxDeg {
		return fmt.Errorf("angle_min_deg %v must be below angle_max_deg %v", *c.AngleMinDeg, *c.AngleMaxDeg)
	}
	if c.Method != nil {
		if _, err := inference.ParseMethod(*c.Method); err != nil {
			return err
		}
	}
	if c.Sigma != nil && *c.Sigma < 0 {
		return fmt.Errorf("sigma must be non-negative, got %v", *c.Sigma)
	}
	if c.NMax != nil && *c.NMax < 1 {
		return fmt.Errorf("n_max must be at least 1, got %d", *c.NMax)
	}
	if c.SpeedOfSound != nil && *c.SpeedOfSound <= 0 {
		return fmt.Errorf("speed_of_sound must be positive, got %v", *c.SpeedOfSound)
	}
	return nil
}

// GetNWindow returns the fusion window size or the default of 3.
func (c *TuningConfig) GetNWindow() int {
	if c.NWindow == nil {
		return 3
	}
	return *c.NWindow
}

// GetDistanceGrid builds the distance hypothesis grid in cm.
func (c *TuningConfig) GetDistanceGrid() []float64 {
	min, max, step := 0.0, 100.0, 2.0
	if c.DistanceMinCM != nil {
		min = *c.DistanceMinCM
	}
	if c.DistanceMaxCM != nil {
		max = *c.DistanceMaxCM
	}
	if c.DistanceStepCM != nil {
		step = *c.DistanceStepCM
	}
	return inference.GridRange(min, max, step)
}

// GetAngleGrid builds the angle hypothesis grid in degrees.
func (c *TuningConfig) GetAngleGrid() []float64 {
	min, max, step := 0.0, 360.0, 10.0
	if c.AngleMinDeg != nil {
		min = *c.AngleMinDeg
	}
	if c.AngleMaxDeg != nil {
		max = *c.AngleMaxDeg
	}
	if c.AngleStepDeg != nil {
		step = *c.AngleStepDeg
	}
	return inference.GridRange(min, max, step)
}

// GetMethod returns the configured per-slice inference method or MethodFFT.
func (c *TuningConfig) GetMethod() inference.Method {
	if c.Method == nil {
		return inference.MethodFFT
	}
	m, err := inference.ParseMethod(*c.Method)
	if err != nil {
		return inference.MethodFFT
	}
	return m
}

// GetSigma returns the bayes noise scale, or nil when the noise should
// be estimated from the measured slice.
func (c *TuningConfig) GetSigma() *float64 {
	return c.Sigma
}

// GetNMax returns the spectrum padding length or the default of 1000.
func (c *TuningConfig) GetNMax() int {
	if c.NMax == nil {
		return 1000
	}
	return *c.NMax
}

// GetSpeedOfSound returns the speed of sound in m/s or the default 343.
func (c *TuningConfig) GetSpeedOfSound() float64 {
	if c.SpeedOfSound == nil {
		return 343
	}
	return *c.SpeedOfSound
}
