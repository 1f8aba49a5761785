package model

import (
	"math"
	"testing"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchesFor builds matches whose P2 world points are truth applied to the
// given local points.
func matchesFor(truth Transform, locals [][]float64) []*geom.PointMatch {
	out := make([]*geom.PointMatch, 0, len(locals))
	for _, l := range locals {
		p1 := geom.NewPoint(l)
		p2 := geom.NewPoint(truth.Apply(l))
		out = append(out, &geom.PointMatch{P1: p1, P2: p2, Weight: 1})
	}
	return out
}

func assertTransformNear(t *testing.T, want, got Transform, tol float64) {
	t.Helper()
	require.Equal(t, want.D, got.D)
	for i := range want.M {
		assert.InDelta(t, want.M[i], got.M[i], tol, "entry %d", i)
	}
}

func rotation2D(theta, scale, tx, ty float64) Transform {
	c, s := scale*math.Cos(theta), scale*math.Sin(theta)
	return Transform{D: 2, M: []float64{c, -s, tx, s, c, ty}}
}

func TestKindStringAndParse(t *testing.T) {
	for _, k := range []Kind{KindTranslation, KindSimilarity, KindAffine, KindInterpolated} {
		got, err := ParseKind(" " + k.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("rigid")
	assert.Error(t, err)
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestNew(t *testing.T) {
	m, err := New(KindAffine, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, m.MinNumMatches())

	_, err = New(KindAffine, 4)
	assert.ErrorIs(t, err, ErrUnsupportedDim)

	_, err = New(KindInterpolated, 2)
	assert.Error(t, err)
}

func TestMinNumMatches(t *testing.T) {
	tests := []struct {
		name string
		m    Model
		want int
	}{
		{"translation 2D", NewTranslation(2), 1},
		{"translation 3D", NewTranslation(3), 1},
		{"similarity 2D", NewSimilarity(2), 2},
		{"similarity 3D", NewSimilarity(3), 3},
		{"affine 2D", NewAffine(2), 3},
		{"affine 3D", NewAffine(3), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.MinNumMatches())
		})
	}

	blend, err := NewInterpolated(NewAffine(3), NewTranslation(3), 0.1)
	require.NoError(t, err)
	assert.Equal(t, 4, blend.MinNumMatches())
}

func TestTranslationFit_WeightedMean(t *testing.T) {
	a := &geom.PointMatch{P1: geom.NewPoint([]float64{0, 0}), P2: geom.NewPoint([]float64{1, 0}), Weight: 3}
	b := &geom.PointMatch{P1: geom.NewPoint([]float64{0, 0}), P2: geom.NewPoint([]float64{5, 0}), Weight: 1}
	ignored := &geom.PointMatch{P1: geom.NewPoint([]float64{0, 0}), P2: geom.NewPoint([]float64{100, 100}), Weight: 0}

	m := NewTranslation(2)
	require.NoError(t, m.Fit([]*geom.PointMatch{a, b, ignored}))
	assert.InDeltaSlice(t, []float64{2, 0}, m.Transform().Translation(), 1e-12)
}

func TestTranslationFit_NotEnoughData(t *testing.T) {
	zero := &geom.PointMatch{P1: geom.NewPoint([]float64{0, 0}), P2: geom.NewPoint([]float64{1, 0}), Weight: 0}
	err := NewTranslation(2).Fit([]*geom.PointMatch{zero})
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestAffineFit_RecoversTransform2D(t *testing.T) {
	truth := Transform{D: 2, M: []float64{1.1, 0.2, 5, -0.1, 0.9, -3}}
	matches := matchesFor(truth, [][]float64{{0, 0}, {10, 0}, {0, 10}, {7, 3}})

	m := NewAffine(2)
	require.NoError(t, m.Fit(matches))
	assertTransformNear(t, truth, m.Transform(), 1e-9)
}

func TestAffineFit_RecoversTransform3D(t *testing.T) {
	truth := Transform{D: 3, M: []float64{
		1.02, 0.01, 0.0, 100,
		-0.02, 0.98, 0.03, -50,
		0.0, 0.01, 1.0, 7,
	}}
	matches := matchesFor(truth, [][]float64{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}, {0, 0, 20}, {50, 40, 10}})

	m := NewAffine(3)
	require.NoError(t, m.Fit(matches))
	assertTransformNear(t, truth, m.Transform(), 1e-8)
}

func TestAffineFit_CoplanarIsIllDefined(t *testing.T) {
	truth := TranslationTransform([]float64{1, 2, 3})
	matches := matchesFor(truth, [][]float64{{0, 0, 5}, {10, 0, 5}, {0, 10, 5}, {10, 10, 5}})

	err := NewAffine(3).Fit(matches)
	assert.ErrorIs(t, err, ErrIllDefined)
}

func TestAffineFit_NotEnoughData(t *testing.T) {
	matches := matchesFor(Identity(3), [][]float64{{0, 0, 0}})
	err := NewAffine(3).Fit(matches)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestSimilarityFit_2D(t *testing.T) {
	truth := rotation2D(0.3, 1.5, 4, -2)
	matches := matchesFor(truth, [][]float64{{0, 0}, {3, 1}, {-2, 5}})

	m := NewSimilarity(2)
	require.NoError(t, m.Fit(matches))
	assertTransformNear(t, truth, m.Transform(), 1e-9)
}

func TestSimilarityFit_3D(t *testing.T) {
	// Rotation of 0.4 rad about z, scale 2, then a shift.
	c, s := math.Cos(0.4), math.Sin(0.4)
	truth := Transform{D: 3, M: []float64{
		2 * c, -2 * s, 0, 1,
		2 * s, 2 * c, 0, 2,
		0, 0, 2, 3,
	}}
	matches := matchesFor(truth, [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 2, 0}, {0, 0, 3}, {1, 1, 1}})

	m := NewSimilarity(3)
	require.NoError(t, m.Fit(matches))
	assertTransformNear(t, truth, m.Transform(), 1e-9)
}

func TestSimilarityFit_3DCoplanarStillSolves(t *testing.T) {
	truth := TranslationTransform([]float64{5, -5, 1})
	matches := matchesFor(truth, [][]float64{{0, 0, 2}, {10, 0, 2}, {0, 10, 2}, {10, 10, 2}})

	m := NewSimilarity(3)
	require.NoError(t, m.Fit(matches))
	assertTransformNear(t, truth, m.Transform(), 1e-9)
}

func TestSimilarityFit_SinglePointIsIllDefined(t *testing.T) {
	matches := matchesFor(Identity(2), [][]float64{{1, 1}, {1, 1}})
	err := NewSimilarity(2).Fit(matches)
	assert.ErrorIs(t, err, ErrIllDefined)
}

func TestInterpolatedFit_Blends(t *testing.T) {
	truth := rotation2D(0.2, 1, 3, 4)
	matches := matchesFor(truth, [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}})

	blend, err := NewRegularizedSimilarity(2, 0.25)
	require.NoError(t, err)
	require.NoError(t, blend.Fit(matches))

	// Centroid is the origin, so the regulariser is the pure shift (3, 4).
	want := truth.Interpolate(TranslationTransform([]float64{3, 4}), 0.25)
	assertTransformNear(t, want, blend.Transform(), 1e-9)
}

func TestInterpolatedFit_LambdaOneSkipsPrimary(t *testing.T) {
	// One match: a similarity cannot be fitted, the translation can.
	matches := matchesFor(TranslationTransform([]float64{2, 2}), [][]float64{{0, 0}})

	blend, err := NewRegularizedSimilarity(2, 0.1)
	require.NoError(t, err)
	assert.ErrorIs(t, blend.Fit(matches), ErrNotEnoughData)

	blend.SetLambda(1)
	require.NoError(t, blend.Fit(matches))
	assertTransformNear(t, TranslationTransform([]float64{2, 2}), blend.Transform(), 1e-12)
}

func TestNewInterpolated_Validation(t *testing.T) {
	_, err := NewInterpolated(NewAffine(2), NewTranslation(3), 0.1)
	assert.ErrorIs(t, err, geom.ErrDimensionMismatch)
	_, err = NewInterpolated(NewAffine(2), NewTranslation(2), 1.5)
	assert.Error(t, err)
}

func TestSameShape(t *testing.T) {
	a, _ := NewRegularizedSimilarity(3, 0.1)
	b, _ := NewRegularizedSimilarity(3, 0.1)
	c, _ := NewRegularizedSimilarity(3, 0.2)
	assert.True(t, SameShape(a, b))
	assert.False(t, SameShape(a, c))
	assert.False(t, SameShape(NewAffine(3), NewAffine(2)))
	assert.True(t, SameShape(NewTranslation(2), NewTranslation(2)))
}

func TestSetTransform_RejectsWrongDim(t *testing.T) {
	err := NewAffine(2).SetTransform(Identity(3))
	assert.ErrorIs(t, err, geom.ErrDimensionMismatch)

	bad := Identity(2)
	bad.M[0] = math.NaN()
	assert.ErrorIs(t, NewAffine(2).SetTransform(bad), ErrIllDefined)
}

func TestTransformDampAndApply(t *testing.T) {
	from := TranslationTransform([]float64{0, 0})
	to := TranslationTransform([]float64{10, -10})
	half := from.Damp(to, 0.9)
	assert.InDeltaSlice(t, []float64{9, -9}, half.Translation(), 1e-12)
	assert.InDeltaSlice(t, []float64{10, -8}, half.Apply([]float64{1, 1}), 1e-12)
}

func TestCheckAffineGeometry(t *testing.T) {
	xy := [][2]float64{{0, 0}, {500, 0}, {0, 500}, {500, 500}, {250, 100}, {100, 400}}
	slab := func(eps float64) []*geom.PointMatch {
		var out []*geom.PointMatch
		for k, v := range xy {
			p := geom.NewPoint([]float64{v[0], v[1], eps * float64(k%2)})
			m, err := geom.NewPointMatch(p, geom.NewPoint(p.L), 1)
			require.NoError(t, err)
			out = append(out, m)
		}
		return out
	}

	assert.NoError(t, CheckAffineGeometry(slab(1), 3))
	assert.ErrorIs(t, CheckAffineGeometry(slab(1e-4), 3), ErrIllDefined)
	assert.ErrorIs(t, CheckAffineGeometry(slab(1e-4)[:3], 3), ErrNotEnoughData)

	// Fit and the geometry check agree.
	assert.ErrorIs(t, NewAffine(3).Fit(slab(1e-4)), ErrIllDefined)
	assert.NoError(t, NewAffine(3).Fit(slab(1)))
}

func TestUsesAffineFit(t *testing.T) {
	assert.True(t, UsesAffineFit(NewAffine(2)))
	assert.False(t, UsesAffineFit(NewSimilarity(2)))
	assert.False(t, UsesAffineFit(NewTranslation(2)))

	blend, err := NewInterpolated(NewAffine(2), NewTranslation(2), 1)
	require.NoError(t, err)
	assert.True(t, UsesAffineFit(blend))
	reg, err := NewRegularizedSimilarity(2, 0.1)
	require.NoError(t, err)
	assert.False(t, UsesAffineFit(reg))
}
