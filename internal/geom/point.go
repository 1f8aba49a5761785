package geom

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two coordinate vectors of
	// different dimensionality are combined.
	ErrDimensionMismatch = errors.New("geom: dimension mismatch")
	// ErrNonFinite is returned for NaN or infinite coordinates and weights.
	ErrNonFinite = errors.New("geom: non-finite value")
)

// Point is a location known in a tile's local frame (L) and, after the owning
// tile's transform has been applied, in the shared world frame (W).
//
// A Point is shared by the two directional matches created for one
// correspondence, so updating W through one tile is visible to the match
// held by its neighbour.
type Point struct {
	L []float64
	W []float64
}

// NewPoint returns a point whose world coordinates start equal to its local
// coordinates. The input slice is copied.
func NewPoint(local []float64) *Point {
	l := make([]float64, len(local))
	copy(l, local)
	w := make([]float64, len(local))
	copy(w, local)
	return &Point{L: l, W: w}
}

// Dim returns the dimensionality of the point.
func (p *Point) Dim() int { return len(p.L) }

// Distance returns the Euclidean distance between two coordinate vectors.
// Vectors of different length yield +Inf.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CheckDim verifies that all vectors have dimensionality d.
func CheckDim(d int, vs ...[]float64) error {
	for _, v := range vs {
		if len(v) != d {
			return fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, d, len(v))
		}
	}
	return nil
}

// CheckFinite verifies that no vector holds NaN or ±Inf.
func CheckFinite(vs ...[]float64) error {
	for _, v := range vs {
		for i, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: coordinate %d is %g", ErrNonFinite, i, x)
			}
		}
	}
	return nil
}
