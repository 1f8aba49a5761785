// Package tileio reads optimisation problems from JSON files and writes
// results back out in the same vocabulary.
package tileio
