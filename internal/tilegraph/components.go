package tilegraph

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// undirected mirrors the adjacency sets as a gonum graph keyed by tile ID.
func (g *Graph) undirected() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for _, id := range g.IDs() {
		ug.AddNode(simple.Node(id))
	}
	for _, t := range g.Tiles() {
		for _, nid := range t.Neighbors() {
			if nid > t.ID() {
				ug.SetEdge(ug.NewEdge(simple.Node(t.ID()), simple.Node(nid)))
			}
		}
	}
	return ug
}

// Components partitions the graph into connected components. Each component
// lists its IDs in ascending order; components are ordered by size, largest
// first, and equal sizes by their smallest ID. The latter makes "first
// encountered" well defined: enumeration walks tiles in ascending ID order.
func (g *Graph) Components() [][]TileID {
	var comps [][]TileID
	for _, cc := range topo.ConnectedComponents(g.undirected()) {
		ids := make([]TileID, len(cc))
		for i, n := range cc {
			ids[i] = TileID(n.ID())
		}
		slices.Sort(ids)
		comps = append(comps, ids)
	}
	slices.SortFunc(comps, func(a, b []TileID) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return int(a[0]) - int(b[0])
	})
	return comps
}

// ComponentSizes returns a histogram: component size to number of components.
func (g *Graph) ComponentSizes() map[int]int {
	out := make(map[int]int)
	for _, c := range g.Components() {
		out[len(c)]++
	}
	return out
}

// RetainLargest keeps only the largest connected component and returns the
// tiles that were discarded.
func (g *Graph) RetainLargest() []*Tile {
	comps := g.Components()
	if len(comps) == 0 {
		return nil
	}
	return g.Retain(comps[0])
}

// Reachable returns every tile ID reachable from start, in ascending order.
func (g *Graph) Reachable(start TileID) []TileID {
	if _, ok := g.tiles[start]; !ok {
		return nil
	}
	var out []TileID
	var bf traverse.BreadthFirst
	bf.Walk(g.undirected(), simple.Node(start), func(n graph.Node, _ int) bool {
		out = append(out, TileID(n.ID()))
		return false
	})
	slices.Sort(out)
	return out
}
