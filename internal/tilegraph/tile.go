package tilegraph

import (
	"fmt"
	"slices"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/banshee-data/tilestitch/internal/model"
)

// TileID is the stable identity of a tile (image index).
type TileID int

// Ref is the descriptive identity of a tile carried into results.
type Ref struct {
	ID        TileID `json:"id"`
	TimePoint int    `json:"time_point"`
	Name      string `json:"name,omitempty"`
}

// Less orders refs by ID, then time point.
func (r Ref) Less(o Ref) bool {
	if r.ID != o.ID {
		return r.ID < o.ID
	}
	return r.TimePoint < o.TimePoint
}

func (r Ref) String() string {
	if r.Name != "" {
		return fmt.Sprintf("tile %d (%s, t=%d)", r.ID, r.Name, r.TimePoint)
	}
	return fmt.Sprintf("tile %d (t=%d)", r.ID, r.TimePoint)
}

// Tile is one node of the graph: a model, the matches it is fitted against and
// the set of tiles it shares matches with.
type Tile struct {
	Ref   Ref
	Model model.Model

	matches  []*geom.PointMatch
	adjacent map[TileID]struct{}
}

func newTile(ref Ref, m model.Model) *Tile {
	return &Tile{Ref: ref, Model: m, adjacent: make(map[TileID]struct{})}
}

// ID is shorthand for Ref.ID.
func (t *Tile) ID() TileID { return t.Ref.ID }

// Matches returns the tile's matches. The slice must not be modified.
func (t *Tile) Matches() []*geom.PointMatch { return t.matches }

// Degree is the number of adjacent tiles.
func (t *Tile) Degree() int { return len(t.adjacent) }

// Neighbors returns adjacent tile IDs in ascending order.
func (t *Tile) Neighbors() []TileID {
	out := make([]TileID, 0, len(t.adjacent))
	for id := range t.adjacent {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsAdjacent reports whether id is a neighbour.
func (t *Tile) IsAdjacent(id TileID) bool {
	_, ok := t.adjacent[id]
	return ok
}

// Apply writes the current model transform into the world coordinates of the
// tile's own points (P1 of each match). Because points are shared with the
// reverse matches, neighbours see the update immediately.
func (t *Tile) Apply() {
	tr := t.Model.Transform()
	for _, m := range t.matches {
		tr.ApplyTo(m.P1.W, m.P1.L)
	}
}

// Fit refits the tile's model to its matches.
func (t *Tile) Fit() error {
	if err := t.Model.Fit(t.matches); err != nil {
		return fmt.Errorf("%s: %w", t.Ref, err)
	}
	return nil
}

// MeanDistance is the weight-averaged residual of the tile's matches; tiles
// without active matches report 0.
func (t *Tile) MeanDistance() float64 {
	var sum, wsum float64
	for _, m := range t.matches {
		if !m.Active() {
			continue
		}
		sum += m.Weight * m.Distance()
		wsum += m.Weight
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// LocalPoints returns the local coordinates of the tile's own match points.
func (t *Tile) LocalPoints() [][]float64 {
	out := make([][]float64, 0, len(t.matches))
	for _, m := range t.matches {
		out = append(out, m.P1.L)
	}
	return out
}
