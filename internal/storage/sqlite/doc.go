// Package sqlite persists optimisation runs: diagnostics, solved transforms
// and the per-iteration error history. The schema is managed by embedded
// golang-migrate migrations applied on Open.
package sqlite
