package optimizer

import (
	"errors"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/monitoring"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// replaceUnderconstrained swaps the model of every tile with fewer active
// matches than MinNumMatches×multiplicity for a translation of the same
// dimension. It returns the number of tiles replaced.
func replaceUnderconstrained(g *tilegraph.Graph, multiplicity int, logf monitoring.Logger) (int, error) {
	replaced := 0
	for _, t := range g.Tiles() {
		need := t.Model.MinNumMatches() * multiplicity
		have := geom.CountActive(t.Matches())
		if have >= need {
			continue
		}
		if model.IsTranslationOnly(t.Model) {
			// Already the lowest order; the fit will report the shortfall.
			continue
		}
		if _, err := g.Replace(t.ID(), model.NewTranslation(t.Model.Dim())); err != nil {
			return replaced, err
		}
		logf("%s: %d matches for %s (needs %d), falling back to translation", t.Ref, have, describe(t.Model), need)
		replaced++
	}
	return replaced, nil
}

// isDegenerate reports whether the tile's own match points collapse onto a
// line or plane: the extent along some axis is below tol, or, for models that
// fit an affine, the point scatter fails the affine conditioning test.
func isDegenerate(t *tilegraph.Tile, tol float64) bool {
	ext := geom.Extent(t.LocalPoints())
	if ext.Dim() == 0 {
		return false
	}
	if ext.MinSpan() < tol {
		return true
	}
	if !model.UsesAffineFit(t.Model) {
		return false
	}
	return errors.Is(model.CheckAffineGeometry(t.Matches(), t.Model.Dim()), model.ErrIllDefined)
}

// replaceDegenerate swaps higher-order models on tiles with collapsed match
// geometry for a similarity regularised towards translation. Tiles that
// already carry that exact substitute are left alone. It returns the number of
// tiles replaced.
func replaceDegenerate(g *tilegraph.Graph, tol, lambda float64, logf monitoring.Logger) (int, error) {
	replaced := 0
	for _, t := range g.Tiles() {
		if model.IsTranslationOnly(t.Model) || !isDegenerate(t, tol) {
			continue
		}
		sub, err := model.NewRegularizedSimilarity(t.Model.Dim(), lambda)
		if err != nil {
			return replaced, err
		}
		if model.SameShape(t.Model, sub) {
			continue
		}
		if _, err := g.Replace(t.ID(), sub); err != nil {
			return replaced, err
		}
		logf("%s: match points are coplanar, replacing %s with %s", t.Ref, describe(t.Model), describe(sub))
		replaced++
	}
	return replaced, nil
}
