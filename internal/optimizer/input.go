package optimizer

import (
	"math"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// TileSpec declares one input tile.
type TileSpec struct {
	Ref tilegraph.Ref
	// Model names the transform family: translation, similarity, affine or
	// interpolated (affine regularised towards translation). Empty uses
	// Options.DefaultModel.
	Model string
	// Initial is the starting transform, e.g. from stage coordinates. Nil
	// means identity.
	Initial *model.Transform
}

// PairRecord is one correspondence produced by pairwise registration.
//
// Geometry comes either as a point pair (PointA in tile 1's frame, PointB in
// tile 2's) or, for subdivided overlaps, as the two overlapping sub-regions
// plus the measured Shift of region 2 relative to region 1. In the latter case
// a midpoint correspondence is synthesised:
//
//	pA = center(Region1)
//	pB = Region2.Min + (center(Region1) − Region1.Min) − Shift
type PairRecord struct {
	Tile1, Tile2 tilegraph.TileID
	Valid        bool
	Weight       float64

	PointA, PointB []float64

	Shift            []float64
	Region1, Region2 *geom.Box
}

// Problem is the complete input of one optimisation.
type Problem struct {
	Dim   int
	Tiles []TileSpec
	Pairs []PairRecord
}

// Points returns the correspondence of the record in each tile's local frame.
func (r PairRecord) Points(dim int) (a, b []float64, err error) {
	if r.PointA != nil || r.PointB != nil {
		if err := geom.CheckDim(dim, r.PointA, r.PointB); err != nil {
			return nil, nil, invalidf("pair %d-%d points: %v", r.Tile1, r.Tile2, err)
		}
		if err := geom.CheckFinite(r.PointA, r.PointB); err != nil {
			return nil, nil, invalidf("pair %d-%d points: %v", r.Tile1, r.Tile2, err)
		}
		return clone(r.PointA), clone(r.PointB), nil
	}
	if r.Region1 == nil || r.Region2 == nil || r.Shift == nil {
		return nil, nil, invalidf("pair %d-%d has neither a point pair nor shift and regions", r.Tile1, r.Tile2)
	}
	for _, box := range []*geom.Box{r.Region1, r.Region2} {
		if err := box.Validate(); err != nil {
			return nil, nil, invalidf("pair %d-%d region: %v", r.Tile1, r.Tile2, err)
		}
	}
	if err := geom.CheckDim(dim, r.Shift, r.Region1.Min, r.Region2.Min); err != nil {
		return nil, nil, invalidf("pair %d-%d shift/regions: %v", r.Tile1, r.Tile2, err)
	}
	if err := geom.CheckFinite(r.Shift); err != nil {
		return nil, nil, invalidf("pair %d-%d shift: %v", r.Tile1, r.Tile2, err)
	}

	a = r.Region1.Center()
	b = make([]float64, dim)
	for d := 0; d < dim; d++ {
		b[d] = r.Region2.Min[d] + (a[d] - r.Region1.Min[d]) - r.Shift[d]
	}
	return a, b, nil
}

// validate checks the problem shape before anything is built.
func (p Problem) validate() error {
	if p.Dim != 2 && p.Dim != 3 {
		return invalidf("dimensionality must be 2 or 3, got %d", p.Dim)
	}
	seen := make(map[tilegraph.TileID]struct{}, len(p.Tiles))
	for _, ts := range p.Tiles {
		if _, dup := seen[ts.Ref.ID]; dup {
			return invalidf("tile %d declared twice", ts.Ref.ID)
		}
		seen[ts.Ref.ID] = struct{}{}
		if ts.Initial != nil && ts.Initial.D != p.Dim {
			return invalidf("tile %d initial transform is %dD in a %dD problem", ts.Ref.ID, ts.Initial.D, p.Dim)
		}
	}
	for i, r := range p.Pairs {
		for _, id := range []tilegraph.TileID{r.Tile1, r.Tile2} {
			if _, ok := seen[id]; !ok {
				return invalidf("pair %d references undeclared tile %d", i, id)
			}
		}
		if r.Tile1 == r.Tile2 {
			return invalidf("pair %d matches tile %d with itself", i, r.Tile1)
		}
		if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
			return invalidf("pair %d has non-finite weight %g", i, r.Weight)
		}
		if r.Weight < 0 {
			return invalidf("pair %d has negative weight %g", i, r.Weight)
		}
	}
	return nil
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
