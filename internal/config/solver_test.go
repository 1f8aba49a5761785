package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptySolverConfig_Defaults(t *testing.T) {
	cfg := EmptySolverConfig()

	if cfg.GetIterations() != 5000 {
		t.Errorf("GetIterations() = %d, want 5000", cfg.GetIterations())
	}
	if cfg.GetDamping() != 0.9 {
		t.Errorf("GetDamping() = %f, want 0.9", cfg.GetDamping())
	}
	if cfg.GetDampingTranslationOnly() != 1.0 {
		t.Errorf("GetDampingTranslationOnly() = %f, want 1.0", cfg.GetDampingTranslationOnly())
	}
	if cfg.GetRegularizerLambda() != 0.1 {
		t.Errorf("GetRegularizerLambda() = %f, want 0.1", cfg.GetRegularizerLambda())
	}
	if cfg.GetDegeneracyTolerance() != 1e-8 {
		t.Errorf("GetDegeneracyTolerance() = %g, want 1e-8", cfg.GetDegeneracyTolerance())
	}
	if cfg.GetDefaultModel() != "affine" {
		t.Errorf("GetDefaultModel() = %q, want affine", cfg.GetDefaultModel())
	}
	if cfg.GetMatchMultiplicity() != 1 {
		t.Errorf("GetMatchMultiplicity() = %d, want 1", cfg.GetMatchMultiplicity())
	}
	if cfg.GetPerturb() {
		t.Error("GetPerturb() should default to false")
	}
}

func TestDefaultSolverConfig_MatchesDefaultsFile(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	builtIn := DefaultSolverConfig()

	if fromFile.GetIterations() != builtIn.GetIterations() ||
		fromFile.GetPrealignIterations() != builtIn.GetPrealignIterations() ||
		fromFile.GetDamping() != builtIn.GetDamping() ||
		fromFile.GetRegularizerLambda() != builtIn.GetRegularizerLambda() ||
		fromFile.GetDegeneracyTolerance() != builtIn.GetDegeneracyTolerance() ||
		fromFile.GetPerturbSeed() != builtIn.GetPerturbSeed() ||
		fromFile.GetDefaultModel() != builtIn.GetDefaultModel() ||
		fromFile.GetDimensions() != builtIn.GetDimensions() {
		t.Errorf("defaults file and built-in defaults disagree: file=%+v", fromFile)
	}
	if err := builtIn.Validate(); err != nil {
		t.Errorf("built-in defaults do not validate: %v", err)
	}
}

func TestLoadSolverConfig(t *testing.T) {
	path := writeConfig(t, "solver.json", `{
  "dimensions": 2,
  "default_model": "Similarity",
  "iterations": 200,
  "prealign": false,
  "perturb": true,
  "perturb_seed": 7
}`)

	cfg, err := LoadSolverConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetDimensions() != 2 {
		t.Errorf("GetDimensions() = %d, want 2", cfg.GetDimensions())
	}
	if cfg.GetDefaultModel() != "similarity" {
		t.Errorf("GetDefaultModel() = %q, want similarity", cfg.GetDefaultModel())
	}
	if cfg.GetIterations() != 200 {
		t.Errorf("GetIterations() = %d, want 200", cfg.GetIterations())
	}
	if cfg.GetPrealign() {
		t.Error("GetPrealign() = true, want false")
	}
	if !cfg.GetPerturb() || cfg.GetPerturbSeed() != 7 {
		t.Errorf("perturbation not loaded: perturb=%v seed=%d", cfg.GetPerturb(), cfg.GetPerturbSeed())
	}
	// Omitted fields keep defaults.
	if cfg.GetDamping() != 0.9 {
		t.Errorf("GetDamping() = %f, want 0.9", cfg.GetDamping())
	}
}

func TestLoadSolverConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "solver.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{`, "parse config JSON"},
		{"bad dimensions", "dim.json", `{"dimensions": 4}`, "dimensions must be 2 or 3"},
		{"bad model", "model.json", `{"default_model": "rigid"}`, "unknown default_model"},
		{"negative iterations", "it.json", `{"iterations": -1}`, "iterations must be non-negative"},
		{"zero damping", "damp.json", `{"damping": 0}`, "damping must be in (0, 1]"},
		{"lambda above one", "lambda.json", `{"regularizer_lambda": 1.5}`, "regularizer_lambda"},
		{"multiplicity three", "mult.json", `{"match_multiplicity": 3}`, "match_multiplicity"},
		{"negative magnitude", "mag.json", `{"perturb_magnitude": -1}`, "perturb_magnitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadSolverConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSolverConfig_MissingFile(t *testing.T) {
	_, err := LoadSolverConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to stat") {
		t.Errorf("expected stat error, got %v", err)
	}
}
