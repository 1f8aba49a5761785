package optimizer

import (
	"slices"
	"time"

	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// Status tells a solved result from an explicit no-solution outcome.
type Status int

const (
	// StatusSolved means at least one valid correspondence was relaxed.
	StatusSolved Status = iota
	// StatusNoSolution means the input had no valid, weighted
	// correspondence. It is not an error.
	StatusNoSolution
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusNoSolution:
		return "no-solution"
	default:
		return "unknown"
	}
}

// SolvedTile is one tile of the final configuration.
type SolvedTile struct {
	Ref tilegraph.Ref
	// Model describes the model the tile ended with, e.g. "translation" or
	// "interpolated(similarity, translation, 0.1)".
	Model     string
	Kind      model.Kind
	Transform model.Transform
	// MeanResidual is the tile's weighted mean match residual.
	MeanResidual float64
}

// Diagnostics reports what happened during one optimisation.
type Diagnostics struct {
	PairsTotal int // records in the input
	PairsAdded int // valid records with positive weight

	// GraphSizes maps component size to the number of components of that
	// size, before connectivity filtering.
	GraphSizes         map[int]int
	RemainingGraphSize int
	RemainingPairs     int

	// Residuals in the tiles' native units. Avg and Max aggregate per-tile
	// weighted means; MaxPairwise is the largest single match residual.
	AvgDisplacement         float64
	MaxDisplacement         float64
	MaxPairwiseDisplacement float64

	ReplacedTilesTranslation int
	ReplacedTilesSimilarity  int

	// LostTiles are declared tiles absent from the result, ordered.
	LostTiles []tilegraph.Ref

	FixedTile       tilegraph.TileID
	TranslationOnly bool
	Prealigned      bool
	Iterations      int
	// ErrorHistory is the average error after each main iteration.
	ErrorHistory []float64
	Elapsed      time.Duration
}

// Result is the outcome of Optimize. Tiles are ordered by TileID.
type Result struct {
	Status      Status
	Tiles       []SolvedTile
	Diagnostics Diagnostics
}

// Tile looks up a solved tile by ID.
func (r *Result) Tile(id tilegraph.TileID) (SolvedTile, bool) {
	for _, t := range r.Tiles {
		if t.Ref.ID == id {
			return t, true
		}
	}
	return SolvedTile{}, false
}

func solvedTiles(g *tilegraph.Graph) []SolvedTile {
	tiles := g.Tiles()
	out := make([]SolvedTile, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, SolvedTile{
			Ref:          t.Ref,
			Model:        describe(t.Model),
			Kind:         t.Model.Kind(),
			Transform:    t.Model.Transform(),
			MeanResidual: t.MeanDistance(),
		})
	}
	return out
}

// lostTiles lists declared tiles that are not in g, ordered by Ref.
func lostTiles(declared []TileSpec, g *tilegraph.Graph) []tilegraph.Ref {
	var lost []tilegraph.Ref
	for _, ts := range declared {
		if _, ok := g.Tile(ts.Ref.ID); !ok {
			lost = append(lost, ts.Ref)
		}
	}
	slices.SortFunc(lost, func(a, b tilegraph.Ref) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return lost
}
