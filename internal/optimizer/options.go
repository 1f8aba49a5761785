package optimizer

import (
	"fmt"

	"github.com/banshee-data/tilestitch/internal/config"
	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/monitoring"
	"github.com/banshee-data/tilestitch/internal/timeutil"
)

// PerturbOptions controls the seeded jitter applied to correspondences so
// that midpoint-synthesised matches are not exactly coplanar.
type PerturbOptions struct {
	Enabled   bool
	Seed      uint64
	Magnitude float64 // per-axis bound of the offset
	PerMatch  bool    // one offset per record instead of per tile pair
}

// Options configures one call to Optimize.
type Options struct {
	DefaultModel string

	Iterations             int
	Prealign               bool
	PrealignIterations     int
	Damping                float64 // used when any tile is higher order
	DampingTranslationOnly float64

	RegularizerLambda   float64
	DegeneracyTolerance float64
	// MatchMultiplicity scales MinNumMatches in the under-constrained test.
	// Connect stores one match per correspondence in each tile, so 1 counts
	// each correspondence once per tile and is the default. 2 is the stricter
	// reading that doubles the requirement for bidirectionally inserted
	// matches; it replaces more tiles with translations.
	MatchMultiplicity int

	Perturb PerturbOptions

	// Logf receives progress lines. Nil uses the monitoring package logger;
	// monitoring.Discard silences this call only.
	Logf  monitoring.Logger
	Clock timeutil.Clock
}

// DefaultOptions returns the built-in solver defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(config.EmptySolverConfig())
}

// OptionsFromConfig maps a loaded SolverConfig onto Options.
func OptionsFromConfig(cfg *config.SolverConfig) Options {
	return Options{
		DefaultModel:           cfg.GetDefaultModel(),
		Iterations:             cfg.GetIterations(),
		Prealign:               cfg.GetPrealign(),
		PrealignIterations:     cfg.GetPrealignIterations(),
		Damping:                cfg.GetDamping(),
		DampingTranslationOnly: cfg.GetDampingTranslationOnly(),
		RegularizerLambda:      cfg.GetRegularizerLambda(),
		DegeneracyTolerance:    cfg.GetDegeneracyTolerance(),
		MatchMultiplicity:      cfg.GetMatchMultiplicity(),
		Perturb: PerturbOptions{
			Enabled:   cfg.GetPerturb(),
			Seed:      cfg.GetPerturbSeed(),
			Magnitude: cfg.GetPerturbMagnitude(),
			PerMatch:  cfg.GetPerturbPerMatch(),
		},
		Clock: timeutil.RealClock{},
	}
}

func (o Options) validate() error {
	switch {
	case o.Iterations < 0:
		return invalidf("iterations must be non-negative, got %d", o.Iterations)
	case o.PrealignIterations < 0:
		return invalidf("prealign iterations must be non-negative, got %d", o.PrealignIterations)
	case o.Damping <= 0 || o.Damping > 1:
		return invalidf("damping must be in (0, 1], got %g", o.Damping)
	case o.DampingTranslationOnly <= 0 || o.DampingTranslationOnly > 1:
		return invalidf("translation-only damping must be in (0, 1], got %g", o.DampingTranslationOnly)
	case o.RegularizerLambda < 0 || o.RegularizerLambda > 1:
		return invalidf("regulariser lambda must be in [0, 1], got %g", o.RegularizerLambda)
	case o.DegeneracyTolerance < 0:
		return invalidf("degeneracy tolerance must be non-negative, got %g", o.DegeneracyTolerance)
	case o.Perturb.Enabled && o.Perturb.Magnitude < 0:
		return invalidf("perturbation magnitude must be non-negative, got %g", o.Perturb.Magnitude)
	}
	return nil
}

func (o Options) multiplicity() int {
	if o.MatchMultiplicity < 1 {
		return 1
	}
	return o.MatchMultiplicity
}

func (o Options) clock() timeutil.Clock {
	if o.Clock == nil {
		return timeutil.RealClock{}
	}
	return o.Clock
}

// newModel builds the identity model named by kind for a tile.
func (o Options) newModel(kind string, dim int) (model.Model, error) {
	if kind == "" {
		kind = o.DefaultModel
	}
	k, err := model.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if k == model.KindInterpolated {
		return model.NewInterpolated(model.NewAffine(dim), model.NewTranslation(dim), o.RegularizerLambda)
	}
	return model.New(k, dim)
}

// describe renders a model for results and logs.
func describe(m model.Model) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return m.Kind().String()
}
