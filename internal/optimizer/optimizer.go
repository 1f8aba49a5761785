package optimizer

import (
	"context"
	"slices"

	"github.com/banshee-data/tilestitch/internal/monitoring"
)

// Optimize solves one problem end to end. It is synchronous and CPU bound;
// ctx is polled between relaxation iterations. Fatal fit failures and
// cancellation return an error and no result. Input without a single valid,
// weighted correspondence yields a StatusNoSolution result and a nil error.
func Optimize(ctx context.Context, p Problem, opts Options) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logf := opts.Logf
	if logf == nil {
		logf = monitoring.Prefixed(nil, "[optimizer] ")
	}
	clock := opts.clock()

	g, added, err := buildGraph(p, opts)
	if err != nil {
		return nil, err
	}
	diag := Diagnostics{PairsTotal: len(p.Pairs), PairsAdded: added}
	logf("Pairs above the threshold: %d, pairs total = %d", added, len(p.Pairs))

	if added == 0 {
		logf("No valid pairs, nothing to optimize")
		diag.LostTiles = lostTiles(p.Tiles, g)
		return &Result{Status: StatusNoSolution, Diagnostics: diag}, nil
	}

	diag.GraphSizes = g.ComponentSizes()
	sizes := make([]int, 0, len(diag.GraphSizes))
	total := 0
	for size, n := range diag.GraphSizes {
		sizes = append(sizes, size)
		total += n
	}
	slices.Sort(sizes)
	slices.Reverse(sizes)
	logf("Number of tile graphs = %d", total)
	for _, size := range sizes {
		logf("  %d graph(s) of size %d", diag.GraphSizes[size], size)
	}

	dropped := g.RetainLargest()
	logf("Using the largest graph of size %d (%d tiles dropped)", g.Len(), len(dropped))
	diag.RemainingGraphSize = g.Len()
	diag.RemainingPairs = countRemainingPairs(g, p.Pairs)

	if diag.ReplacedTilesTranslation, err = replaceUnderconstrained(g, opts.multiplicity(), logf); err != nil {
		return nil, err
	}
	g.ApplyAll()
	if diag.ReplacedTilesSimilarity, err = replaceDegenerate(g, opts.DegeneracyTolerance, opts.RegularizerLambda, logf); err != nil {
		return nil, err
	}

	cfg := NewConfiguration(g)
	diag.FixedTile, _ = cfg.FixFirstConnected()
	diag.TranslationOnly = cfg.TranslationOnly()
	damping := opts.Damping
	if diag.TranslationOnly {
		damping = opts.DampingTranslationOnly
	}

	if opts.Prealign && !diag.TranslationOnly && opts.PrealignIterations > 0 {
		logf("Prealigning all tiles (%d iterations)", opts.PrealignIterations)
		if err := cfg.Prealign(ctx, opts.PrealignIterations); err != nil {
			return nil, err
		}
		diag.Prealigned = true
	}

	logf("Optimizing %d tiles, anchor tile %d, damping %g", g.Len(), diag.FixedTile, damping)
	start := clock.Now()
	if err := cfg.Relax(ctx, opts.Iterations, damping, false); err != nil {
		return nil, err
	}
	diag.Elapsed = clock.Since(start)
	diag.Iterations = opts.Iterations
	logf("Optimization round took %s", diag.Elapsed)

	stats := cfg.Stats()
	diag.AvgDisplacement = stats.Avg
	diag.MaxDisplacement = stats.Max
	diag.MaxPairwiseDisplacement = stats.MaxPairwise
	diag.ErrorHistory = cfg.History()
	logf("Max pairwise match displacement: %.2fpx", stats.MaxPairwise)
	logf("avg error: %.2fpx", stats.Avg)
	logf("max error: %.2fpx", stats.Max)

	diag.LostTiles = lostTiles(p.Tiles, g)
	logf("Tiles lost: %d", len(diag.LostTiles))

	return &Result{Status: StatusSolved, Tiles: solvedTiles(g), Diagnostics: diag}, nil
}
