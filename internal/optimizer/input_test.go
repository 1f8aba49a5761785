package optimizer

import (
	"math"
	"testing"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairRecord_PointsDirect(t *testing.T) {
	r := PairRecord{Tile1: 1, Tile2: 2, PointA: []float64{1, 2}, PointB: []float64{3, 4}}

	a, b, err := r.Points(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, a)
	assert.Equal(t, []float64{3, 4}, b)

	a[0] = 99
	assert.Equal(t, 1.0, r.PointA[0], "points are copies")
}

func TestPairRecord_PointsMidpoint(t *testing.T) {
	r := PairRecord{
		Tile1:   1,
		Tile2:   2,
		Region1: &geom.Box{Min: []float64{80, 0, 0}, Max: []float64{100, 40, 10}},
		Region2: &geom.Box{Min: []float64{0, 0, 0}, Max: []float64{20, 40, 10}},
		Shift:   []float64{1.5, -2, 0},
	}

	a, b, err := r.Points(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 20, 5}, a)
	// Region2.Min + (center − Region1.Min) − Shift
	assert.Equal(t, []float64{8.5, 22, 5}, b)
}

func TestPairRecord_PointsErrors(t *testing.T) {
	box := &geom.Box{Min: []float64{0, 0}, Max: []float64{1, 1}}
	tests := []struct {
		name string
		r    PairRecord
	}{
		{"no geometry", PairRecord{}},
		{"only one point", PairRecord{PointA: []float64{0, 0}}},
		{"missing shift", PairRecord{Region1: box, Region2: box}},
		{"inverted region", PairRecord{Region1: &geom.Box{Min: []float64{1, 1}, Max: []float64{0, 0}}, Region2: box, Shift: []float64{0, 0}}},
		{"shift dimension", PairRecord{Region1: box, Region2: box, Shift: []float64{0, 0, 0}}},
		{"non-finite point", PairRecord{PointA: []float64{math.NaN(), 0}, PointB: []float64{0, 0}}},
		{"non-finite shift", PairRecord{Region1: box, Region2: box, Shift: []float64{0, math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.r.Points(2)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPerturber_PerPair(t *testing.T) {
	p := newPerturber(PerturbOptions{Enabled: true, Seed: 3, Magnitude: 0.5}, 2)
	require.NotNil(t, p)

	a1, b1 := []float64{10, 10}, []float64{0, 0}
	p.apply(1, 2, a1, b1)
	a2, b2 := []float64{10, 10}, []float64{0, 0}
	p.apply(2, 1, a2, b2)

	assert.Equal(t, a1, a2, "one offset per tile pair regardless of order")
	assert.Equal(t, b1, b2)
	for d := range a1 {
		assert.InDelta(t, 10, a1[d], 0.5)
		assert.InDelta(t, a1[d]-10, b1[d], 1e-12, "both points move together")
	}
}

func TestPerturber_PerMatchAndSeed(t *testing.T) {
	opts := PerturbOptions{Enabled: true, Seed: 3, Magnitude: 0.5, PerMatch: true}
	p := newPerturber(opts, 2)

	a1, b1 := []float64{0, 0}, []float64{0, 0}
	p.apply(1, 2, a1, b1)
	a2, b2 := []float64{0, 0}, []float64{0, 0}
	p.apply(1, 2, a2, b2)
	assert.NotEqual(t, a1, a2)

	q := newPerturber(opts, 2)
	c1, d1 := []float64{0, 0}, []float64{0, 0}
	q.apply(1, 2, c1, d1)
	assert.Equal(t, a1, c1, "same seed, same draws")
}

func TestPerturber_Disabled(t *testing.T) {
	assert.Nil(t, newPerturber(PerturbOptions{}, 2))
	assert.Nil(t, newPerturber(PerturbOptions{Enabled: true}, 2))

	var p *perturber
	a, b := []float64{1, 2}, []float64{3, 4}
	p.apply(1, 2, a, b)
	assert.Equal(t, []float64{1, 2}, a)
	assert.Equal(t, []float64{3, 4}, b)
}

func TestOptions_FromConfigDefaults(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "affine", opts.DefaultModel)
	assert.Equal(t, 5000, opts.Iterations)
	assert.Equal(t, 5000, opts.PrealignIterations)
	assert.True(t, opts.Prealign)
	assert.Equal(t, 0.9, opts.Damping)
	assert.Equal(t, 1.0, opts.DampingTranslationOnly)
	assert.Equal(t, 0.1, opts.RegularizerLambda)
	assert.Equal(t, 1, opts.multiplicity())
	assert.False(t, opts.Perturb.Enabled)
	assert.NoError(t, opts.validate())
}

func TestOptions_NewModel(t *testing.T) {
	opts := DefaultOptions()

	m, err := opts.newModel("", 2)
	require.NoError(t, err)
	assert.Equal(t, "affine", describe(m))

	m, err = opts.newModel("Interpolated", 3)
	require.NoError(t, err)
	assert.Equal(t, "interpolated(affine, translation, 0.1)", describe(m))
	assert.Equal(t, 3, m.Dim())

	_, err = opts.newModel("spline", 2)
	assert.Error(t, err)
}
