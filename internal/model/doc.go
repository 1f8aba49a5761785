// Package model implements the closed family of tile transforms used by the
// optimizer: Translation, Similarity, Affine and Interpolated (a fixed blend
// of a primary model with a regularising one).
//
// Every model stores its current estimate as an affine Transform and exposes
// a uniform Fit over weighted point matches. Fits solve weighted least
// squares with gonum/mat; the 3D similarity uses Horn's quaternion method via
// a symmetric eigendecomposition.
//
// Fit errors are ErrNotEnoughData (fewer active matches than MinNumMatches)
// and ErrIllDefined (singular or collapsed geometry).
package model
