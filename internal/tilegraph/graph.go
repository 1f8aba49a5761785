package tilegraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/banshee-data/tilestitch/internal/geom"
	"github.com/banshee-data/tilestitch/internal/model"
)

var (
	// ErrUnknownTile is returned when an operation names a tile not in the graph.
	ErrUnknownTile = errors.New("tilegraph: unknown tile")
	// ErrDuplicateTile is returned when a tile ID is registered twice.
	ErrDuplicateTile = errors.New("tilegraph: duplicate tile")
	// ErrSelfMatch is returned when a match would connect a tile to itself.
	ErrSelfMatch = errors.New("tilegraph: tile matched to itself")
)

// Graph is the arena of tiles for one optimisation run.
type Graph struct {
	tiles map[TileID]*Tile
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{tiles: make(map[TileID]*Tile)}
}

// AddTile registers a tile with its initial model.
func (g *Graph) AddTile(ref Ref, m model.Model) (*Tile, error) {
	if _, ok := g.tiles[ref.ID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateTile, ref.ID)
	}
	t := newTile(ref, m)
	g.tiles[ref.ID] = t
	return t, nil
}

// Tile returns the tile with the given ID.
func (g *Graph) Tile(id TileID) (*Tile, bool) {
	t, ok := g.tiles[id]
	return t, ok
}

// Len is the number of tiles in the graph.
func (g *Graph) Len() int { return len(g.tiles) }

// IDs returns all tile IDs in ascending order.
func (g *Graph) IDs() []TileID {
	out := make([]TileID, 0, len(g.tiles))
	for id := range g.tiles {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Tiles returns all tiles ordered by ID.
func (g *Graph) Tiles() []*Tile {
	ids := g.IDs()
	out := make([]*Tile, len(ids))
	for i, id := range ids {
		out[i] = g.tiles[id]
	}
	return out
}

// Connect inserts one correspondence into both tiles: a receives (pa, pb) and
// b receives (pb, pa), sharing the two points. The tiles become adjacent.
func (g *Graph) Connect(a, b TileID, pa, pb *geom.Point, weight float64) error {
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfMatch, a)
	}
	ta, ok := g.tiles[a]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTile, a)
	}
	tb, ok := g.tiles[b]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTile, b)
	}
	m, err := geom.NewPointMatch(pa, pb, weight)
	if err != nil {
		return fmt.Errorf("match %d-%d: %w", a, b, err)
	}
	ta.matches = append(ta.matches, m)
	tb.matches = append(tb.matches, m.Reversed())
	ta.adjacent[b] = struct{}{}
	tb.adjacent[a] = struct{}{}
	return nil
}

// Replace swaps the tile for a fresh record carrying the new model. Identity
// and the full match list are preserved. Adjacency is keyed by ID, so the
// neighbours' edges already point at the replacement and only its own set
// is rebuilt. The new model starts from the old model's current transform.
func (g *Graph) Replace(id TileID, m model.Model) (*Tile, error) {
	old, ok := g.tiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTile, id)
	}
	if err := m.SetTransform(old.Model.Transform()); err != nil {
		return nil, fmt.Errorf("replace %s: %w", old.Ref, err)
	}

	repl := newTile(old.Ref, m)
	repl.matches = append(repl.matches, old.matches...)
	for nid := range old.adjacent {
		repl.adjacent[nid] = struct{}{}
	}
	g.tiles[id] = repl
	return repl, nil
}

// Retain drops every tile whose ID is not in keep. keep must be a union of
// connected components so no kept tile refers to a dropped one. Dropped tile
// records are returned untouched, ordered by ID.
func (g *Graph) Retain(keep []TileID) []*Tile {
	want := make(map[TileID]struct{}, len(keep))
	for _, id := range keep {
		want[id] = struct{}{}
	}
	var dropped []*Tile
	for _, id := range g.IDs() {
		if _, ok := want[id]; !ok {
			dropped = append(dropped, g.tiles[id])
			delete(g.tiles, id)
		}
	}
	return dropped
}

// ApplyAll applies every tile's transform to its points, in ID order.
func (g *Graph) ApplyAll() {
	for _, t := range g.Tiles() {
		t.Apply()
	}
}
