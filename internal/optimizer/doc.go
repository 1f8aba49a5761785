// Package optimizer fits one transform per tile so that all pairwise
// correspondences agree in a single world frame.
//
// Control flow of Optimize:
//
//	pair records → graph (valid, weighted pairs only)
//	  → largest connected component
//	  → fallback policy (too few matches → translation;
//	                     coplanar matches → regularised similarity)
//	  → optional translation pre-alignment
//	  → damped Gauss-Seidel relaxation for a fixed iteration budget
//	  → diagnostics and ordered result
//
// The relaxation refits tiles one after another in ascending TileID order, so
// each fit sees the neighbours' latest estimates; it is sequential by design
// and a Configuration must not be shared between goroutines.
//
// Progress lines go to Options.Logf, or to the monitoring package logger when
// that is nil.
package optimizer
