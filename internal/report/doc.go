// Package report renders optimisation results for humans: a PNG of the
// relaxation error curve and an interactive HTML map of solved tile
// positions coloured by residual.
package report
