package model

import (
	"fmt"
	"math"

	"github.com/banshee-data/tilestitch/internal/geom"
	"gonum.org/v1/gonum/mat"
)

// minSpread is the smallest weighted mean squared distance from the centroid
// that a similarity fit accepts.
const minSpread = 1e-12

// Similarity is rotation, isotropic scale and translation.
type Similarity struct {
	dim int
	t   Transform
}

// NewSimilarity returns an identity similarity model of the given dimension.
func NewSimilarity(dim int) *Similarity {
	return &Similarity{dim: dim, t: Identity(dim)}
}

func (m *Similarity) Kind() Kind { return KindSimilarity }
func (m *Similarity) Dim() int   { return m.dim }

// MinNumMatches is two in 2D and three in 3D.
func (m *Similarity) MinNumMatches() int { return m.dim }

func (m *Similarity) Transform() Transform { return m.t.Clone() }

func (m *Similarity) SetTransform(t Transform) error {
	if err := checkSet(m.dim, t); err != nil {
		return err
	}
	m.t = t.Clone()
	return nil
}

// Fit computes the weighted least-squares similarity. 2D uses the closed
// form on complex numbers; 3D uses Horn's quaternion method.
func (m *Similarity) Fit(matches []*geom.PointMatch) error {
	ss, err := collect(matches, m.dim, m.MinNumMatches())
	if err != nil {
		return err
	}
	pc, qc, wsum := centroids(ss, m.dim)

	var a []float64
	switch m.dim {
	case 2:
		a, err = similarity2D(ss, pc, qc, wsum)
	case 3:
		a, err = similarity3D(ss, pc, qc, wsum)
	default:
		err = fmt.Errorf("%w: %d", ErrUnsupportedDim, m.dim)
	}
	if err != nil {
		return err
	}
	m.t = fromLinear(a, pc, qc)
	return nil
}

func similarity2D(ss []sample, pc, qc []float64, wsum float64) ([]float64, error) {
	var sxx, sxy, norm float64
	for _, s := range ss {
		w := s.w / wsum
		px, py := s.p[0]-pc[0], s.p[1]-pc[1]
		qx, qy := s.q[0]-qc[0], s.q[1]-qc[1]
		sxx += w * (px*qx + py*qy)
		sxy += w * (px*qy - py*qx)
		norm += w * (px*px + py*py)
	}
	if norm < minSpread {
		return nil, fmt.Errorf("%w: all points at the centroid", ErrIllDefined)
	}
	c, s := sxx/norm, sxy/norm
	return []float64{c, -s, s, c}, nil
}

func similarity3D(ss []sample, pc, qc []float64, wsum float64) ([]float64, error) {
	var m [3][3]float64
	var norm float64
	for _, s := range ss {
		w := s.w / wsum
		var p, q [3]float64
		for d := 0; d < 3; d++ {
			p[d] = s.p[d] - pc[d]
			q[d] = s.q[d] - qc[d]
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] += w * p[i] * q[j]
			}
			norm += w * p[i] * p[i]
		}
	}
	if norm < minSpread {
		return nil, fmt.Errorf("%w: all points at the centroid", ErrIllDefined)
	}

	sxx, sxy, sxz := m[0][0], m[0][1], m[0][2]
	syx, syy, syz := m[1][0], m[1][1], m[1][2]
	szx, szy, szz := m[2][0], m[2][1], m[2][2]
	n := mat.NewSymDense(4, []float64{
		sxx + syy + szz, syz - szy, szx - sxz, sxy - syx,
		syz - szy, sxx - syy - szz, sxy + syx, szx + sxz,
		szx - sxz, sxy + syx, -sxx + syy - szz, syz + szy,
		sxy - syx, szx + sxz, syz + szy, -sxx - syy + szz,
	})

	var es mat.EigenSym
	if ok := es.Factorize(n, true); !ok {
		return nil, fmt.Errorf("%w: eigendecomposition failed", ErrIllDefined)
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	// Eigenvalues come back in ascending order.
	q0, qx, qy, qz := vecs.At(0, 3), vecs.At(1, 3), vecs.At(2, 3), vecs.At(3, 3)
	qn := math.Sqrt(q0*q0 + qx*qx + qy*qy + qz*qz)
	q0, qx, qy, qz = q0/qn, qx/qn, qy/qn, qz/qn

	r := []float64{
		q0*q0 + qx*qx - qy*qy - qz*qz, 2 * (qx*qy - q0*qz), 2 * (qx*qz + q0*qy),
		2 * (qy*qx + q0*qz), q0*q0 - qx*qx + qy*qy - qz*qz, 2 * (qy*qz - q0*qx),
		2 * (qz*qx - q0*qy), 2 * (qz*qy + q0*qx), q0*q0 - qx*qx - qy*qy + qz*qz,
	}

	// Least-squares scale: Σ w q·(R p) / Σ w |p|², which is trace(Rᵀ·Mᵀ)/norm.
	var num float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			num += r[i*3+j] * m[j][i]
		}
	}
	scale := num / norm
	for i := range r {
		r[i] *= scale
	}
	return r, nil
}
