package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrorStats summarises residuals after an iteration. Avg and Max aggregate
// per-tile weighted mean residuals; MaxPairwise is the single largest match
// residual.
type ErrorStats struct {
	Avg         float64
	Max         float64
	MaxPairwise float64
}

// Configuration is one relaxation session over the tiles of a graph.
type Configuration struct {
	g     *tilegraph.Graph
	fixed map[tilegraph.TileID]struct{}

	stats   ErrorStats
	history []float64
}

// NewConfiguration wraps every tile currently in g.
func NewConfiguration(g *tilegraph.Graph) *Configuration {
	return &Configuration{g: g, fixed: make(map[tilegraph.TileID]struct{})}
}

// Fix holds a tile's transform constant.
func (c *Configuration) Fix(id tilegraph.TileID) error {
	if _, ok := c.g.Tile(id); !ok {
		return fmt.Errorf("%w: %d", tilegraph.ErrUnknownTile, id)
	}
	c.fixed[id] = struct{}{}
	return nil
}

// FixFirstConnected fixes the first tile, in ID order, that has at least one
// neighbour and returns its ID.
func (c *Configuration) FixFirstConnected() (tilegraph.TileID, bool) {
	for _, t := range c.g.Tiles() {
		if t.Degree() > 0 {
			c.fixed[t.ID()] = struct{}{}
			return t.ID(), true
		}
	}
	return 0, false
}

// IsFixed reports whether the tile is held constant.
func (c *Configuration) IsFixed(id tilegraph.TileID) bool {
	_, ok := c.fixed[id]
	return ok
}

// TranslationOnly reports whether every tile carries a plain translation.
func (c *Configuration) TranslationOnly() bool {
	for _, t := range c.g.Tiles() {
		if !model.IsTranslationOnly(t.Model) {
			return false
		}
	}
	return true
}

// Stats returns the error statistics of the last iteration.
func (c *Configuration) Stats() ErrorStats { return c.stats }

// History returns the average error after each iteration of the last
// non-silent Relax call.
func (c *Configuration) History() []float64 { return c.history }

// Relax runs exactly iterations sweeps. In each sweep every non-fixed tile,
// in ID order, is refitted against its neighbours' current estimates and its
// transform moved towards the fit by damping; then residuals are refreshed.
// There is no plateau-based early exit. A fit failure or context
// cancellation aborts the call.
func (c *Configuration) Relax(ctx context.Context, iterations int, damping float64, silent bool) error {
	tiles := c.g.Tiles()
	c.g.ApplyAll()
	if !silent {
		c.history = make([]float64, 0, iterations)
	}

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w after %d iterations: %w", ErrInterrupted, i, err)
		}
		for _, t := range tiles {
			if c.IsFixed(t.ID()) {
				continue
			}
			prev := t.Model.Transform()
			if err := t.Fit(); err != nil {
				return classifyFitError(err)
			}
			if damping != 1 {
				if err := t.Model.SetTransform(prev.Damp(t.Model.Transform(), damping)); err != nil {
					return classifyFitError(fmt.Errorf("%s: %w", t.Ref, err))
				}
			}
			t.Apply()
		}
		c.updateErrors()
		if !silent {
			c.history = append(c.history, c.stats.Avg)
		}
	}
	c.updateErrors()
	return nil
}

// Prealign runs a translation-only relaxation to seed higher-order models.
// Interpolated models have their lambda forced to 1; other higher-order
// models are temporarily wrapped in a lambda-1 blend with a translation. Every
// model is restored afterwards, carrying the pre-aligned transform.
func (c *Configuration) Prealign(ctx context.Context, iterations int) error {
	var restores []func() error
	for _, t := range c.g.Tiles() {
		switch m := t.Model.(type) {
		case *model.Interpolated:
			lambda := m.Lambda
			m.SetLambda(1)
			restores = append(restores, func() error {
				m.SetLambda(lambda)
				return nil
			})
		case *model.Translation:
		default:
			view, err := model.NewInterpolated(m, model.NewTranslation(m.Dim()), 1)
			if err != nil {
				return err
			}
			if err := view.SetTransform(m.Transform()); err != nil {
				return err
			}
			tile := t
			tile.Model = view
			restores = append(restores, func() error {
				tile.Model = m
				return m.SetTransform(view.Transform())
			})
		}
	}

	err := c.Relax(ctx, iterations, 1.0, true)
	for _, restore := range restores {
		if rerr := restore(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

// updateErrors recomputes residual statistics over all tiles.
func (c *Configuration) updateErrors() {
	tiles := c.g.Tiles()
	if len(tiles) == 0 {
		c.stats = ErrorStats{}
		return
	}
	perTile := make([]float64, len(tiles))
	var pairwise float64
	for i, t := range tiles {
		perTile[i] = t.MeanDistance()
		for _, m := range t.Matches() {
			if m.Active() {
				pairwise = math.Max(pairwise, m.Distance())
			}
		}
	}
	c.stats = ErrorStats{
		Avg:         stat.Mean(perTile, nil),
		Max:         floats.Max(perTile),
		MaxPairwise: pairwise,
	}
}
