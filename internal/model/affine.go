package model

import (
	"fmt"

	"github.com/banshee-data/tilestitch/internal/geom"
	"gonum.org/v1/gonum/mat"
)

// maxCondition bounds the condition number of the centred point scatter
// matrix; above it the affine fit is considered ill-defined.
const maxCondition = 1e12

// Affine is a general affine transform.
type Affine struct {
	dim int
	t   Transform
}

// NewAffine returns an identity affine model of the given dimension.
func NewAffine(dim int) *Affine {
	return &Affine{dim: dim, t: Identity(dim)}
}

func (m *Affine) Kind() Kind { return KindAffine }
func (m *Affine) Dim() int   { return m.dim }

// MinNumMatches is D+1: three matches in 2D, four in 3D.
func (m *Affine) MinNumMatches() int { return m.dim + 1 }

func (m *Affine) Transform() Transform { return m.t.Clone() }

func (m *Affine) SetTransform(t Transform) error {
	if err := checkSet(m.dim, t); err != nil {
		return err
	}
	m.t = t.Clone()
	return nil
}

// Fit solves the weighted normal equations C·Aᵀ = B on centred coordinates,
// where C is the scatter of the local points and B their cross-covariance
// with the target points.
func (m *Affine) Fit(matches []*geom.PointMatch) error {
	ss, err := collect(matches, m.dim, m.MinNumMatches())
	if err != nil {
		return err
	}
	a, err := fitAffineLinear(ss, m.dim)
	if err != nil {
		return err
	}
	pc, qc, _ := centroids(ss, m.dim)
	m.t = fromLinear(a, pc, qc)
	return nil
}

// CheckAffineGeometry reports whether matches determine an affine fit of the
// given dimension. It applies the same count and conditioning tests as Fit,
// returning ErrNotEnoughData or ErrIllDefined.
func CheckAffineGeometry(matches []*geom.PointMatch, dim int) error {
	ss, err := collect(matches, dim, dim+1)
	if err != nil {
		return err
	}
	c, _ := scatter(ss, dim)
	_, err = factorScatter(c)
	return err
}

// UsesAffineFit reports whether fitting m fits an affine model at some point.
// An interpolated model fits its primary unless Lambda is 1, so the primary
// is always considered.
func UsesAffineFit(m Model) bool {
	switch v := m.(type) {
	case *Affine:
		return true
	case *Interpolated:
		return UsesAffineFit(v.Primary) || UsesAffineFit(v.Regularizer)
	}
	return false
}

// scatter returns the weighted scatter of the centred local points and their
// cross-covariance with the centred targets.
func scatter(ss []sample, d int) (*mat.SymDense, *mat.Dense) {
	pc, qc, wsum := centroids(ss, d)

	c := mat.NewSymDense(d, nil)
	b := mat.NewDense(d, d, nil)
	dp := make([]float64, d)
	dq := make([]float64, d)
	for _, s := range ss {
		w := s.w / wsum
		for i := 0; i < d; i++ {
			dp[i] = s.p[i] - pc[i]
			dq[i] = s.q[i] - qc[i]
		}
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				c.SetSym(i, j, c.At(i, j)+w*dp[i]*dp[j])
			}
			for j := 0; j < d; j++ {
				b.Set(i, j, b.At(i, j)+w*dp[i]*dq[j])
			}
		}
	}
	return c, b
}

func factorScatter(c *mat.SymDense) (*mat.Cholesky, error) {
	var ch mat.Cholesky
	if ok := ch.Factorize(c); !ok {
		return nil, fmt.Errorf("%w: point scatter is not positive definite", ErrIllDefined)
	}
	if cond := ch.Cond(); cond > maxCondition {
		return nil, fmt.Errorf("%w: point scatter condition %.3g", ErrIllDefined, cond)
	}
	return &ch, nil
}

func fitAffineLinear(ss []sample, d int) ([]float64, error) {
	c, b := scatter(ss, d)
	ch, err := factorScatter(c)
	if err != nil {
		return nil, err
	}
	var x mat.Dense
	if err := ch.SolveTo(&x, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllDefined, err)
	}

	// x holds Aᵀ.
	a := make([]float64, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			a[i*d+j] = x.At(j, i)
		}
	}
	return a, nil
}
