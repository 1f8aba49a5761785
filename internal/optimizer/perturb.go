package optimizer

import (
	"math/rand/v2"

	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// perturber hands out bounded pseudo-random offsets from a fixed seed. Draws
// happen in input order, so identical input gives identical offsets.
type perturber struct {
	opts   PerturbOptions
	dim    int
	rng    *rand.Rand
	byPair map[[2]tilegraph.TileID][]float64
}

func newPerturber(opts PerturbOptions, dim int) *perturber {
	if !opts.Enabled || opts.Magnitude == 0 {
		return nil
	}
	return &perturber{
		opts:   opts,
		dim:    dim,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		byPair: make(map[[2]tilegraph.TileID][]float64),
	}
}

func (p *perturber) draw() []float64 {
	off := make([]float64, p.dim)
	for d := range off {
		off[d] = (2*p.rng.Float64() - 1) * p.opts.Magnitude
	}
	return off
}

// offset returns the jitter for a record between tiles a and b.
func (p *perturber) offset(a, b tilegraph.TileID) []float64 {
	if p.opts.PerMatch {
		return p.draw()
	}
	key := [2]tilegraph.TileID{min(a, b), max(a, b)}
	if off, ok := p.byPair[key]; ok {
		return off
	}
	off := p.draw()
	p.byPair[key] = off
	return off
}

// apply shifts both points of a correspondence by the same offset, which
// moves where the match sits in the overlap without changing the
// displacement it encodes.
func (p *perturber) apply(a, b tilegraph.TileID, pa, pb []float64) {
	if p == nil {
		return
	}
	off := p.offset(a, b)
	for d := range off {
		pa[d] += off[d]
		pb[d] += off[d]
	}
}
