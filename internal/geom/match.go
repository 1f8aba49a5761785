package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeWeight is returned when a match is created with a weight below zero.
var ErrNegativeWeight = errors.New("geom: negative match weight")

// PointMatch is a weighted correspondence: P1 belongs to the tile holding the
// match, P2 to the peer tile. A zero weight marks the match as absent for
// fitting purposes.
type PointMatch struct {
	P1     *Point
	P2     *Point
	Weight float64
}

// NewPointMatch builds a match, rejecting negative weights and mismatched
// dimensionality.
func NewPointMatch(p1, p2 *Point, weight float64) (*PointMatch, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return nil, fmt.Errorf("%w: weight %g", ErrNonFinite, weight)
	}
	if weight < 0 {
		return nil, ErrNegativeWeight
	}
	if err := CheckDim(p1.Dim(), p2.L); err != nil {
		return nil, err
	}
	return &PointMatch{P1: p1, P2: p2, Weight: weight}, nil
}

// Reversed returns the match seen from the peer tile. The points are shared,
// not copied.
func (m *PointMatch) Reversed() *PointMatch {
	return &PointMatch{P1: m.P2, P2: m.P1, Weight: m.Weight}
}

// Distance is the current residual: the world-space distance between the two
// matched points.
func (m *PointMatch) Distance() float64 {
	return Distance(m.P1.W, m.P2.W)
}

// Active reports whether the match contributes to fits.
func (m *PointMatch) Active() bool { return m.Weight > 0 }

// CountActive returns the number of matches with a positive weight.
func CountActive(matches []*PointMatch) int {
	n := 0
	for _, m := range matches {
		if m.Active() {
			n++
		}
	}
	return n
}
