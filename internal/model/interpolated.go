package model

import (
	"fmt"

	"github.com/banshee-data/tilestitch/internal/geom"
)

// Interpolated blends a primary model with a regulariser:
// T = (1−Lambda)·primary + Lambda·regulariser. Lambda 0 is the primary model
// alone, Lambda 1 the regulariser alone.
type Interpolated struct {
	Primary     Model
	Regularizer Model
	Lambda      float64
	t           Transform
}

// NewInterpolated checks that both models share a dimension and that lambda
// lies in [0, 1].
func NewInterpolated(primary, regularizer Model, lambda float64) (*Interpolated, error) {
	if primary.Dim() != regularizer.Dim() {
		return nil, fmt.Errorf("%w: primary %dD, regulariser %dD", geom.ErrDimensionMismatch, primary.Dim(), regularizer.Dim())
	}
	if lambda < 0 || lambda > 1 {
		return nil, fmt.Errorf("model: lambda %g outside [0, 1]", lambda)
	}
	return &Interpolated{
		Primary:     primary,
		Regularizer: regularizer,
		Lambda:      lambda,
		t:           primary.Transform().Interpolate(regularizer.Transform(), lambda),
	}, nil
}

// NewRegularizedSimilarity is the substitute used for tiles whose matches are
// coplanar: a similarity regularised towards a translation.
func NewRegularizedSimilarity(dim int, lambda float64) (*Interpolated, error) {
	return NewInterpolated(NewSimilarity(dim), NewTranslation(dim), lambda)
}

func (m *Interpolated) Kind() Kind { return KindInterpolated }
func (m *Interpolated) Dim() int   { return m.Primary.Dim() }

// MinNumMatches is the larger requirement of the two parts.
func (m *Interpolated) MinNumMatches() int {
	return max(m.Primary.MinNumMatches(), m.Regularizer.MinNumMatches())
}

func (m *Interpolated) Transform() Transform { return m.t.Clone() }

func (m *Interpolated) SetTransform(t Transform) error {
	if err := checkSet(m.Dim(), t); err != nil {
		return err
	}
	m.t = t.Clone()
	return nil
}

// SetLambda changes the blend coefficient for subsequent fits.
func (m *Interpolated) SetLambda(lambda float64) {
	m.Lambda = lambda
}

// Fit fits both parts and blends them. With Lambda 1 the primary is not
// fitted, so a tile can run translation-only relaxation on data the primary
// could not handle.
func (m *Interpolated) Fit(matches []*geom.PointMatch) error {
	if err := m.Regularizer.Fit(matches); err != nil {
		return err
	}
	if m.Lambda == 1 {
		m.t = m.Regularizer.Transform()
		return nil
	}
	if err := m.Primary.Fit(matches); err != nil {
		return err
	}
	m.t = m.Primary.Transform().Interpolate(m.Regularizer.Transform(), m.Lambda)
	return nil
}

func (m *Interpolated) String() string {
	return fmt.Sprintf("interpolated(%s, %s, %g)", m.Primary.Kind(), m.Regularizer.Kind(), m.Lambda)
}
