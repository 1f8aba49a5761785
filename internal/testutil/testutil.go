// Package testutil provides shared test utilities and fixtures.
//
// The fixtures describe tile layouts as plain coordinates so that any
// package can turn them into its own input types without an import cycle.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Correspondence is one point pair between tiles A and B, each point in its
// own tile's local frame.
type Correspondence struct {
	A, B           int
	PointA, PointB []float64
}

// Grid is a rows×cols layout of 2D tiles with true origins spaced Spacing
// apart. Tile IDs run row-major from 0.
type Grid struct {
	Rows, Cols int
	Spacing    float64
}

// NewGrid returns a grid layout.
func NewGrid(rows, cols int, spacing float64) Grid {
	return Grid{Rows: rows, Cols: cols, Spacing: spacing}
}

// Len is the number of tiles.
func (g Grid) Len() int { return g.Rows * g.Cols }

// Origin is the true world position of a tile's local origin.
func (g Grid) Origin(id int) []float64 {
	return []float64{float64(id%g.Cols) * g.Spacing, float64(id/g.Cols) * g.Spacing}
}

// Correspondences returns perPair non-collinear point pairs for every pair of
// horizontally or vertically adjacent tiles. Points sit in the strip just
// past the second tile's origin. noise adds a deterministic offset of at most
// that size to each PointB.
func (g Grid) Correspondences(perPair int, noise float64) []Correspondence {
	var out []Correspondence
	for id := 0; id < g.Len(); id++ {
		if id%g.Cols+1 < g.Cols {
			out = append(out, g.pair(id, id+1, perPair, noise, true)...)
		}
		if id/g.Cols+1 < g.Rows {
			out = append(out, g.pair(id, id+g.Cols, perPair, noise, false)...)
		}
	}
	return out
}

func (g Grid) pair(a, b, n int, noise float64, horizontal bool) []Correspondence {
	oa, ob := g.Origin(a), g.Origin(b)
	out := make([]Correspondence, 0, n)
	for k := 0; k < n; k++ {
		across := 2 + float64(k%2)*4
		along := 10 + float64(k)*g.Spacing/float64(n+1)
		var w []float64
		if horizontal {
			w = []float64{ob[0] + across, oa[1] + along}
		} else {
			w = []float64{oa[0] + along, ob[1] + across}
		}
		jitter := noise * math.Sin(float64(a*31+b*17+k))
		out = append(out, Correspondence{
			A:      a,
			B:      b,
			PointA: []float64{w[0] - oa[0], w[1] - oa[1]},
			PointB: []float64{w[0] - ob[0] + jitter, w[1] - ob[1] - jitter},
		})
	}
	return out
}
