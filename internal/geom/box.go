package geom

import "fmt"

// Box is an axis-aligned region in a tile's local frame. Max is exclusive in
// spirit but only the centre and origin are ever used.
type Box struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Dim returns the dimensionality of the box.
func (b Box) Dim() int { return len(b.Min) }

// Validate checks that Min and Max agree in length, are finite and are
// ordered.
func (b Box) Validate() error {
	if len(b.Min) == 0 || len(b.Min) != len(b.Max) {
		return fmt.Errorf("%w: box min %d, max %d", ErrDimensionMismatch, len(b.Min), len(b.Max))
	}
	if err := CheckFinite(b.Min, b.Max); err != nil {
		return fmt.Errorf("box bounds: %w", err)
	}
	for d := range b.Min {
		if b.Max[d] < b.Min[d] {
			return fmt.Errorf("geom: box inverted on axis %d (%g > %g)", d, b.Min[d], b.Max[d])
		}
	}
	return nil
}

// Center returns the midpoint of the box.
func (b Box) Center() []float64 {
	c := make([]float64, len(b.Min))
	for d := range c {
		c[d] = (b.Min[d] + b.Max[d]) / 2
	}
	return c
}

// Extent returns per-axis bounds of a set of vectors as a Box. An empty input
// yields a zero-dimensional box.
func Extent(vs [][]float64) Box {
	if len(vs) == 0 {
		return Box{}
	}
	d := len(vs[0])
	b := Box{Min: make([]float64, d), Max: make([]float64, d)}
	copy(b.Min, vs[0])
	copy(b.Max, vs[0])
	for _, v := range vs[1:] {
		for i := 0; i < d && i < len(v); i++ {
			if v[i] < b.Min[i] {
				b.Min[i] = v[i]
			}
			if v[i] > b.Max[i] {
				b.Max[i] = v[i]
			}
		}
	}
	return b
}

// MinSpan returns the smallest side length of the box.
func (b Box) MinSpan() float64 {
	if len(b.Min) == 0 {
		return 0
	}
	span := b.Max[0] - b.Min[0]
	for d := 1; d < len(b.Min); d++ {
		if s := b.Max[d] - b.Min[d]; s < span {
			span = s
		}
	}
	return span
}
