package optimizer

import (
	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// buildGraph inserts every valid, positively weighted record into a fresh
// graph. Only tiles touched by such a record become nodes. It returns the
// graph and the number of records added.
func buildGraph(p Problem, opts Options) (*tilegraph.Graph, int, error) {
	specs := make(map[tilegraph.TileID]TileSpec, len(p.Tiles))
	for _, ts := range p.Tiles {
		specs[ts.Ref.ID] = ts
	}

	g := tilegraph.New()
	ensure := func(id tilegraph.TileID) error {
		if _, ok := g.Tile(id); ok {
			return nil
		}
		spec := specs[id]
		m, err := opts.newModel(spec.Model, p.Dim)
		if err != nil {
			return invalidf("tile %d: %v", id, err)
		}
		if spec.Initial != nil {
			if err := m.SetTransform(*spec.Initial); err != nil {
				return invalidf("tile %d initial transform: %v", id, err)
			}
		}
		_, err = g.AddTile(spec.Ref, m)
		return err
	}

	jitter := newPerturber(opts.Perturb, p.Dim)
	added := 0
	for _, r := range p.Pairs {
		if !r.Valid || r.Weight == 0 {
			continue
		}
		a, b, err := r.Points(p.Dim)
		if err != nil {
			return nil, 0, err
		}
		jitter.apply(r.Tile1, r.Tile2, a, b)

		if err := ensure(r.Tile1); err != nil {
			return nil, 0, err
		}
		if err := ensure(r.Tile2); err != nil {
			return nil, 0, err
		}
		if err := g.Connect(r.Tile1, r.Tile2, geom.NewPoint(a), geom.NewPoint(b), r.Weight); err != nil {
			return nil, 0, err
		}
		added++
	}
	return g, added, nil
}

// countRemainingPairs counts valid, weighted records whose tiles both
// survived connectivity filtering.
func countRemainingPairs(g *tilegraph.Graph, pairs []PairRecord) int {
	n := 0
	for _, r := range pairs {
		if !r.Valid || r.Weight == 0 {
			continue
		}
		_, ok1 := g.Tile(r.Tile1)
		_, ok2 := g.Tile(r.Tile2)
		if ok1 && ok2 {
			n++
		}
	}
	return n
}
