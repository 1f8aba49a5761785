package model

import "github.com/banshee-data/tilestitch/internal/geom"

// Translation shifts every point by the same vector.
type Translation struct {
	dim int
	t   Transform
}

// NewTranslation returns an identity translation of the given dimension.
func NewTranslation(dim int) *Translation {
	return &Translation{dim: dim, t: Identity(dim)}
}

func (m *Translation) Kind() Kind         { return KindTranslation }
func (m *Translation) Dim() int           { return m.dim }
func (m *Translation) MinNumMatches() int { return 1 }
func (m *Translation) Transform() Transform {
	return m.t.Clone()
}

func (m *Translation) SetTransform(t Transform) error {
	if err := checkSet(m.dim, t); err != nil {
		return err
	}
	m.t = t.Clone()
	return nil
}

// Fit sets the translation to the weighted mean displacement.
func (m *Translation) Fit(matches []*geom.PointMatch) error {
	ss, err := collect(matches, m.dim, m.MinNumMatches())
	if err != nil {
		return err
	}
	pc, qc, _ := centroids(ss, m.dim)
	v := make([]float64, m.dim)
	for d := range v {
		v[d] = qc[d] - pc[d]
	}
	m.t = TranslationTransform(v)
	return nil
}
