// Package tilegraph owns the tile/match graph of one optimisation run.
//
// Tiles live in an arena keyed by a stable TileID; adjacency is a set of IDs
// rather than pointers, so the graph has no ownership cycles and every walk
// over it can be made deterministic by sorting IDs.
//
// Responsibilities: tile registration, bidirectional match insertion, model
// replacement that preserves matches and re-links neighbours, application of
// a tile's transform to its points, and connected-component analysis (gonum
// graph/topo) with largest-component retention.
//
// Dependency rule: tilegraph depends on geom and model only. Fallback policy
// and relaxation live in package optimizer.
package tilegraph
