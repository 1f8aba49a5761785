package tileio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/tilestitch/internal/optimizer"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// SolvedTileFile is one solved tile.
type SolvedTileFile struct {
	tilegraph.Ref
	Model        string      `json:"model"`
	Transform    [][]float64 `json:"transform"`
	MeanResidual float64     `json:"mean_residual"`
}

// DiagnosticsFile mirrors optimizer.Diagnostics with stable JSON names.
type DiagnosticsFile struct {
	PairsTotal               int              `json:"pairs_total"`
	PairsAdded               int              `json:"pairs_added"`
	GraphSizes               map[int]int      `json:"graph_sizes,omitempty"`
	RemainingGraphSize       int              `json:"remaining_graph_size"`
	RemainingPairs           int              `json:"remaining_pairs"`
	AvgDisplacement          float64          `json:"avg_displacement"`
	MaxDisplacement          float64          `json:"max_displacement"`
	MaxPairwiseDisplacement  float64          `json:"max_pairwise_displacement"`
	ReplacedTilesTranslation int              `json:"replaced_tiles_translation"`
	ReplacedTilesSimilarity  int              `json:"replaced_tiles_similarity"`
	LostTiles                []tilegraph.Ref  `json:"lost_tiles"`
	FixedTile                tilegraph.TileID `json:"fixed_tile"`
	TranslationOnly          bool             `json:"translation_only"`
	Prealigned               bool             `json:"prealigned"`
	Iterations               int              `json:"iterations"`
	ElapsedMS                int64            `json:"elapsed_ms"`
}

// ResultFile is the on-disk result.
type ResultFile struct {
	Status      string           `json:"status"`
	Tiles       []SolvedTileFile `json:"tiles"`
	Diagnostics DiagnosticsFile  `json:"diagnostics"`
}

// NewResultFile converts an optimizer result. The error history is left out;
// it goes to the run store and plots.
func NewResultFile(res *optimizer.Result) ResultFile {
	d := res.Diagnostics
	rf := ResultFile{
		Status: res.Status.String(),
		Tiles:  make([]SolvedTileFile, 0, len(res.Tiles)),
		Diagnostics: DiagnosticsFile{
			PairsTotal:               d.PairsTotal,
			PairsAdded:               d.PairsAdded,
			GraphSizes:               d.GraphSizes,
			RemainingGraphSize:       d.RemainingGraphSize,
			RemainingPairs:           d.RemainingPairs,
			AvgDisplacement:          d.AvgDisplacement,
			MaxDisplacement:          d.MaxDisplacement,
			MaxPairwiseDisplacement:  d.MaxPairwiseDisplacement,
			ReplacedTilesTranslation: d.ReplacedTilesTranslation,
			ReplacedTilesSimilarity:  d.ReplacedTilesSimilarity,
			LostTiles:                d.LostTiles,
			FixedTile:                d.FixedTile,
			TranslationOnly:          d.TranslationOnly,
			Prealigned:               d.Prealigned,
			Iterations:               d.Iterations,
			ElapsedMS:                d.Elapsed.Milliseconds(),
		},
	}
	if rf.Diagnostics.LostTiles == nil {
		rf.Diagnostics.LostTiles = []tilegraph.Ref{}
	}
	for _, st := range res.Tiles {
		rf.Tiles = append(rf.Tiles, SolvedTileFile{
			Ref:          st.Ref,
			Model:        st.Model,
			Transform:    transformRows(st.Transform),
			MeanResidual: st.MeanResidual,
		})
	}
	return rf
}

// WriteResult encodes res as indented JSON.
func WriteResult(w io.Writer, res *optimizer.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewResultFile(res)); err != nil {
		return fmt.Errorf("failed to write result JSON: %w", err)
	}
	return nil
}
