// Package geom owns the geometric primitives of the tile optimizer.
//
// Responsibilities: points with separate local (tile-native) and world
// (current global estimate) coordinates, weighted point matches between two
// tiles, and axis-aligned boxes used to describe overlap sub-regions.
// Key types: Point, PointMatch, Box.
//
// Dependency rule: geom depends on nothing else in this module. It has no
// knowledge of models or tiles; world coordinates are written by whoever owns
// the transform (see package tilegraph).
package geom
