package tileio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/banshee-data/tilestitch/internal/model"
	"github.com/banshee-data/tilestitch/internal/optimizer"
	"github.com/banshee-data/tilestitch/internal/tilegraph"
)

// MaxProblemSize caps problem files read by LoadProblem.
const MaxProblemSize = 256 * 1024 * 1024 // 256MB

// TileFile is one declared tile. Transform holds D rows of D+1 values.
type TileFile struct {
	tilegraph.Ref
	Model     string      `json:"model,omitempty"`
	Transform [][]float64 `json:"transform,omitempty"`
}

// PairFile is one correspondence record.
type PairFile struct {
	Tile1  tilegraph.TileID `json:"tile1"`
	Tile2  tilegraph.TileID `json:"tile2"`
	Valid  bool             `json:"valid"`
	Weight float64          `json:"weight"`

	PointA []float64 `json:"point_a,omitempty"`
	PointB []float64 `json:"point_b,omitempty"`

	Shift   []float64 `json:"shift,omitempty"`
	Region1 *geom.Box `json:"region1,omitempty"`
	Region2 *geom.Box `json:"region2,omitempty"`
}

// ProblemFile is the on-disk problem. A zero Dimensions leaves the choice to
// the caller.
type ProblemFile struct {
	Dimensions int        `json:"dimensions,omitempty"`
	Tiles      []TileFile `json:"tiles"`
	Pairs      []PairFile `json:"pairs"`
}

// LoadProblem reads a problem from a .json file.
func LoadProblem(path string) (optimizer.Problem, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return optimizer.Problem{}, fmt.Errorf("problem file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return optimizer.Problem{}, fmt.Errorf("failed to stat problem file: %w", err)
	}
	if fileInfo.Size() > MaxProblemSize {
		return optimizer.Problem{}, fmt.Errorf("problem file too large: %d bytes (max %d)", fileInfo.Size(), MaxProblemSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return optimizer.Problem{}, fmt.Errorf("failed to open problem file: %w", err)
	}
	defer f.Close()
	return DecodeProblem(f)
}

// DecodeProblem reads a problem from r.
func DecodeProblem(r io.Reader) (optimizer.Problem, error) {
	var pf ProblemFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pf); err != nil {
		return optimizer.Problem{}, fmt.Errorf("failed to parse problem JSON: %w", err)
	}
	return pf.Problem()
}

// Problem converts the file form into optimizer input.
func (pf ProblemFile) Problem() (optimizer.Problem, error) {
	p := optimizer.Problem{
		Dim:   pf.Dimensions,
		Tiles: make([]optimizer.TileSpec, 0, len(pf.Tiles)),
		Pairs: make([]optimizer.PairRecord, 0, len(pf.Pairs)),
	}
	for _, tf := range pf.Tiles {
		spec := optimizer.TileSpec{Ref: tf.Ref, Model: tf.Model}
		if tf.Transform != nil {
			tr, err := transformFromRows(tf.Transform)
			if err != nil {
				return optimizer.Problem{}, fmt.Errorf("tile %d: %w", tf.ID, err)
			}
			spec.Initial = &tr
		}
		p.Tiles = append(p.Tiles, spec)
	}
	for _, pr := range pf.Pairs {
		p.Pairs = append(p.Pairs, optimizer.PairRecord{
			Tile1:   pr.Tile1,
			Tile2:   pr.Tile2,
			Valid:   pr.Valid,
			Weight:  pr.Weight,
			PointA:  pr.PointA,
			PointB:  pr.PointB,
			Shift:   pr.Shift,
			Region1: pr.Region1,
			Region2: pr.Region2,
		})
	}
	return p, nil
}

// transformFromRows accepts D rows of D+1 values.
func transformFromRows(rows [][]float64) (model.Transform, error) {
	d := len(rows)
	t := model.Transform{D: d, M: make([]float64, 0, d*(d+1))}
	for i, row := range rows {
		if len(row) != d+1 {
			return model.Transform{}, fmt.Errorf("transform row %d has %d values, want %d", i, len(row), d+1)
		}
		t.M = append(t.M, row...)
	}
	if err := t.Validate(); err != nil {
		return model.Transform{}, err
	}
	return t, nil
}

// transformRows is the inverse of transformFromRows.
func transformRows(t model.Transform) [][]float64 {
	rows := make([][]float64, t.D)
	for i := range rows {
		rows[i] = append([]float64(nil), t.M[i*(t.D+1):(i+1)*(t.D+1)]...)
	}
	return rows
}
