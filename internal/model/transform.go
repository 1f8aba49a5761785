package model

import (
	"fmt"
	"math"
)

// Transform is an affine map in D dimensions stored row-major as a
// D×(D+1) matrix [A | t], so that world = A·local + t.
type Transform struct {
	D int       `json:"dim"`
	M []float64 `json:"matrix"`
}

// Identity returns the identity transform of dimension d.
func Identity(d int) Transform {
	t := Transform{D: d, M: make([]float64, d*(d+1))}
	for i := 0; i < d; i++ {
		t.M[i*(d+1)+i] = 1
	}
	return t
}

// TranslationTransform returns a pure translation by v.
func TranslationTransform(v []float64) Transform {
	t := Identity(len(v))
	for i, x := range v {
		t.M[i*(t.D+1)+t.D] = x
	}
	return t
}

// At returns matrix entry (row, col); col == D addresses the translation.
func (t Transform) At(row, col int) float64 { return t.M[row*(t.D+1)+col] }

func (t *Transform) set(row, col int, v float64) { t.M[row*(t.D+1)+col] = v }

// Translation returns the translation column.
func (t Transform) Translation() []float64 {
	v := make([]float64, t.D)
	for i := range v {
		v[i] = t.At(i, t.D)
	}
	return v
}

// Validate checks the matrix shape.
func (t Transform) Validate() error {
	if t.D < 1 || len(t.M) != t.D*(t.D+1) {
		return fmt.Errorf("model: malformed transform (dim %d, %d entries)", t.D, len(t.M))
	}
	for _, v := range t.M {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite transform entry", ErrIllDefined)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t Transform) Clone() Transform {
	m := make([]float64, len(t.M))
	copy(m, t.M)
	return Transform{D: t.D, M: m}
}

// Apply maps a local coordinate to world coordinates.
func (t Transform) Apply(l []float64) []float64 {
	out := make([]float64, t.D)
	t.ApplyTo(out, l)
	return out
}

// ApplyTo writes the image of l into dst; dst and l must not alias.
func (t Transform) ApplyTo(dst, l []float64) {
	n := t.D + 1
	for i := 0; i < t.D; i++ {
		row := t.M[i*n : (i+1)*n]
		v := row[t.D]
		for j := 0; j < t.D; j++ {
			v += row[j] * l[j]
		}
		dst[i] = v
	}
}

// Interpolate returns (1-lambda)·t + lambda·o.
func (t Transform) Interpolate(o Transform, lambda float64) Transform {
	r := Transform{D: t.D, M: make([]float64, len(t.M))}
	for i := range t.M {
		r.M[i] = (1-lambda)*t.M[i] + lambda*o.M[i]
	}
	return r
}

// Damp moves t towards target by the given fraction: t + damp·(target − t).
func (t Transform) Damp(target Transform, damp float64) Transform {
	return t.Interpolate(target, damp)
}
