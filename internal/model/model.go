package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/tilestitch/internal/geom"
)

var (
	// ErrNotEnoughData is returned when a model is fitted to fewer active
	// matches than it needs.
	ErrNotEnoughData = errors.New("model: not enough data points")
	// ErrIllDefined is returned when the match geometry does not determine the
	// model (collinear or coplanar points for an affine fit, all points at the
	// centroid for a similarity fit).
	ErrIllDefined = errors.New("model: ill-defined data points")
	// ErrUnsupportedDim is returned for dimensionalities other than 2 and 3.
	ErrUnsupportedDim = errors.New("model: unsupported dimensionality")
)

// Kind identifies a member of the model family, ordered by degrees of freedom.
type Kind int

const (
	KindTranslation Kind = iota
	KindSimilarity
	KindAffine
	// KindInterpolated is a blend of two models with a fixed coefficient.
	KindInterpolated
)

var kindNames = map[Kind]string{
	KindTranslation:  "translation",
	KindSimilarity:   "similarity",
	KindAffine:       "affine",
	KindInterpolated: "interpolated",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("model: unknown kind %q", s)
}

// Model is a parametric tile transform with a weighted least-squares fit.
//
// Fit estimates the transform mapping each match's P1 local coordinate onto
// its P2 world coordinate. Matches with zero weight are ignored.
type Model interface {
	Kind() Kind
	Dim() int
	MinNumMatches() int
	Fit(matches []*geom.PointMatch) error
	Transform() Transform
	SetTransform(t Transform) error
}

// New returns an identity model of a base kind. Interpolated models need an
// explicit primary, regulariser and lambda; see NewInterpolated.
func New(kind Kind, dim int) (Model, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDim, dim)
	}
	switch kind {
	case KindTranslation:
		return NewTranslation(dim), nil
	case KindSimilarity:
		return NewSimilarity(dim), nil
	case KindAffine:
		return NewAffine(dim), nil
	default:
		return nil, fmt.Errorf("model: New does not build %s models", kind)
	}
}

// IsTranslationOnly reports whether m is a plain translation model.
func IsTranslationOnly(m Model) bool { return m.Kind() == KindTranslation }

// SameShape reports whether a and b are the same variant, including the
// sub-models and lambda of interpolated models.
func SameShape(a, b Model) bool {
	if a.Kind() != b.Kind() || a.Dim() != b.Dim() {
		return false
	}
	ia, ok := a.(*Interpolated)
	if !ok {
		return true
	}
	ib := b.(*Interpolated)
	return ia.Lambda == ib.Lambda &&
		SameShape(ia.Primary, ib.Primary) &&
		SameShape(ia.Regularizer, ib.Regularizer)
}

// sample is one active match unpacked for fitting.
type sample struct {
	p, q []float64
	w    float64
}

// collect extracts active samples and checks the minimum count.
func collect(matches []*geom.PointMatch, dim, minMatches int) ([]sample, error) {
	out := make([]sample, 0, len(matches))
	for _, m := range matches {
		if !m.Active() {
			continue
		}
		if len(m.P1.L) != dim || len(m.P2.W) != dim {
			return nil, fmt.Errorf("%w: match of dimension %d in %dD model", geom.ErrDimensionMismatch, len(m.P1.L), dim)
		}
		out = append(out, sample{p: m.P1.L, q: m.P2.W, w: m.Weight})
	}
	if len(out) < minMatches {
		return nil, fmt.Errorf("%w: %d active matches, need %d", ErrNotEnoughData, len(out), minMatches)
	}
	return out, nil
}

// centroids returns the weighted centroids of p and q and the weight sum.
func centroids(ss []sample, dim int) (pc, qc []float64, wsum float64) {
	pc = make([]float64, dim)
	qc = make([]float64, dim)
	for _, s := range ss {
		wsum += s.w
		for d := 0; d < dim; d++ {
			pc[d] += s.w * s.p[d]
			qc[d] += s.w * s.q[d]
		}
	}
	for d := 0; d < dim; d++ {
		pc[d] /= wsum
		qc[d] /= wsum
	}
	return pc, qc, wsum
}

// fromLinear assembles [A | qc − A·pc] from a row-major D×D linear part.
func fromLinear(a []float64, pc, qc []float64) Transform {
	d := len(pc)
	t := Transform{D: d, M: make([]float64, d*(d+1))}
	for i := 0; i < d; i++ {
		v := qc[i]
		for j := 0; j < d; j++ {
			t.set(i, j, a[i*d+j])
			v -= a[i*d+j] * pc[j]
		}
		t.set(i, d, v)
	}
	return t
}

func checkSet(dim int, t Transform) error {
	if t.D != dim {
		return fmt.Errorf("%w: transform dim %d for %dD model", geom.ErrDimensionMismatch, t.D, dim)
	}
	return t.Validate()
}
