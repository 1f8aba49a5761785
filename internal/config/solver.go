package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical solver defaults file.
// This is the single source of truth for all default solver values.
const DefaultConfigPath = "config/solver.defaults.json"

// Model names accepted by default_model.
var validModels = map[string]bool{
	"translation":  true,
	"similarity":   true,
	"affine":       true,
	"interpolated": true,
}

// SolverConfig represents the tunable parameters of the global optimizer.
// Every field is optional; the Get* methods supply defaults for fields left
// out of the JSON, so partial configs are safe.
type SolverConfig struct {
	// Problem shape
	Dimensions   *int    `json:"dimensions,omitempty"`
	DefaultModel *string `json:"default_model,omitempty"` // model for tiles that do not name one

	// Relaxation
	Iterations             *int     `json:"iterations,omitempty"`
	Prealign               *bool    `json:"prealign,omitempty"`
	PrealignIterations     *int     `json:"prealign_iterations,omitempty"`
	Damping                *float64 `json:"damping,omitempty"`
	DampingTranslationOnly *float64 `json:"damping_translation_only,omitempty"`

	// Fallback policy
	RegularizerLambda   *float64 `json:"regularizer_lambda,omitempty"`
	DegeneracyTolerance *float64 `json:"degeneracy_tolerance,omitempty"`
	MatchMultiplicity   *int     `json:"match_multiplicity,omitempty"`

	// Perturbation of synthesised correspondences
	Perturb          *bool    `json:"perturb,omitempty"`
	PerturbSeed      *uint64  `json:"perturb_seed,omitempty"`
	PerturbMagnitude *float64 `json:"perturb_magnitude,omitempty"`
	PerturbPerMatch  *bool    `json:"perturb_per_match,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptySolverConfig returns a SolverConfig with all fields set to nil.
func EmptySolverConfig() *SolverConfig {
	return &SolverConfig{}
}

// DefaultSolverConfig returns a config with every field populated with the
// built-in defaults, matching config/solver.defaults.json.
func DefaultSolverConfig() *SolverConfig {
	c := EmptySolverConfig()
	return &SolverConfig{
		Dimensions:             ptrInt(c.GetDimensions()),
		DefaultModel:           ptrString(c.GetDefaultModel()),
		Iterations:             ptrInt(c.GetIterations()),
		Prealign:               ptrBool(c.GetPrealign()),
		PrealignIterations:     ptrInt(c.GetPrealignIterations()),
		Damping:                ptrFloat64(c.GetDamping()),
		DampingTranslationOnly: ptrFloat64(c.GetDampingTranslationOnly()),
		RegularizerLambda:      ptrFloat64(c.GetRegularizerLambda()),
		DegeneracyTolerance:    ptrFloat64(c.GetDegeneracyTolerance()),
		MatchMultiplicity:      ptrInt(c.GetMatchMultiplicity()),
		Perturb:                ptrBool(c.GetPerturb()),
		PerturbSeed:            ptrUint64(c.GetPerturbSeed()),
		PerturbMagnitude:       ptrFloat64(c.GetPerturbMagnitude()),
		PerturbPerMatch:        ptrBool(c.GetPerturbPerMatch()),
	}
}

// LoadSolverConfig loads a SolverConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadSolverConfig(path string) (*SolverConfig, error) {
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

	cfg := EmptySolverConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical solver defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SolverConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadSolverConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SolverConfig) Validate() error {
	if c.Dimensions != nil && *c.Dimensions != 2 && *c.Dimensions != 3 {
		return fmt.Errorf("dimensions must be 2 or 3, got %d", *c.Dimensions)
	}
	if c.DefaultModel != nil && !validModels[strings.ToLower(*c.DefaultModel)] {
		return fmt.Errorf("unknown default_model %q", *c.DefaultModel)
	}
	if c.Iterations != nil && *c.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", *c.Iterations)
	}
	if c.PrealignIterations != nil && *c.PrealignIterations < 0 {
		return fmt.Errorf("prealign_iterations must be non-negative, got %d", *c.PrealignIterations)
	}
	for name, v := range map[string]*float64{
		"damping":                  c.Damping,
		"damping_translation_only": c.DampingTranslationOnly,
	} {
		if v != nil && (*v <= 0 || *v > 1) {
			return fmt.Errorf("%s must be in (0, 1], got %f", name, *v)
		}
	}
	if c.RegularizerLambda != nil && (*c.RegularizerLambda < 0 || *c.RegularizerLambda > 1) {
		return fmt.Errorf("regularizer_lambda must be between 0 and 1, got %f", *c.RegularizerLambda)
	}
	if c.DegeneracyTolerance != nil && *c.DegeneracyTolerance < 0 {
		return fmt.Errorf("degeneracy_tolerance must be non-negative, got %g", *c.DegeneracyTolerance)
	}
	if c.MatchMultiplicity != nil && *c.MatchMultiplicity != 1 && *c.MatchMultiplicity != 2 {
		return fmt.Errorf("match_multiplicity must be 1 or 2, got %d", *c.MatchMultiplicity)
	}
	if c.PerturbMagnitude != nil && *c.PerturbMagnitude < 0 {
		return fmt.Errorf("perturb_magnitude must be non-negative, got %f", *c.PerturbMagnitude)
	}
	return nil
}

// GetDimensions returns the dimensions value or the default.
func (c *SolverConfig) GetDimensions() int {
	if c.Dimensions == nil {
		return 3
	}
	return *c.Dimensions
}

// GetDefaultModel returns the default_model value or the default.
func (c *SolverConfig) GetDefaultModel() string {
	if c.DefaultModel == nil || *c.DefaultModel == "" {
		return "affine"
	}
	return strings.ToLower(*c.DefaultModel)
}

// GetIterations returns the iterations value or the default.
func (c *SolverConfig) GetIterations() int {
	if c.Iterations == nil {
		return 5000
	}
	return *c.Iterations
}

// GetPrealign returns the prealign value or the default.
func (c *SolverConfig) GetPrealign() bool {
	if c.Prealign == nil {
		return true
	}
	return *c.Prealign
}

// GetPrealignIterations returns the prealign_iterations value or the default.
func (c *SolverConfig) GetPrealignIterations() int {
	if c.PrealignIterations == nil {
		return 5000
	}
	return *c.PrealignIterations
}

// GetDamping returns the damping value for higher-order configurations or the default.
func (c *SolverConfig) GetDamping() float64 {
	if c.Damping == nil {
		return 0.9
	}
	return *c.Damping
}

// GetDampingTranslationOnly returns the damping used when every tile is a translation.
func (c *SolverConfig) GetDampingTranslationOnly() float64 {
	if c.DampingTranslationOnly == nil {
		return 1.0
	}
	return *c.DampingTranslationOnly
}

// GetRegularizerLambda returns the regularizer_lambda value or the default.
func (c *SolverConfig) GetRegularizerLambda() float64 {
	if c.RegularizerLambda == nil {
		return 0.1
	}
	return *c.RegularizerLambda
}

// GetDegeneracyTolerance returns the degeneracy_tolerance value or the default.
func (c *SolverConfig) GetDegeneracyTolerance() float64 {
	if c.DegeneracyTolerance == nil {
		return 1e-8
	}
	return *c.DegeneracyTolerance
}

// GetMatchMultiplicity returns the match_multiplicity value or the default.
func (c *SolverConfig) GetMatchMultiplicity() int {
	if c.MatchMultiplicity == nil {
		return 1
	}
	return *c.MatchMultiplicity
}

// GetPerturb returns the perturb value or the default (disabled).
func (c *SolverConfig) GetPerturb() bool {
	if c.Perturb == nil {
		return false
	}
	return *c.Perturb
}

// GetPerturbSeed returns the perturb_seed value or the default.
func (c *SolverConfig) GetPerturbSeed() uint64 {
	if c.PerturbSeed == nil {
		return 42
	}
	return *c.PerturbSeed
}

// GetPerturbMagnitude returns the perturb_magnitude value or the default.
func (c *SolverConfig) GetPerturbMagnitude() float64 {
	if c.PerturbMagnitude == nil {
		return 0.5
	}
	return *c.PerturbMagnitude
}

// GetPerturbPerMatch returns the perturb_per_match value or the default.
func (c *SolverConfig) GetPerturbPerMatch() bool {
	if c.PerturbPerMatch == nil {
		return false
	}
	return *c.PerturbPerMatch
}
