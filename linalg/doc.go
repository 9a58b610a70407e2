// Package linalg implements the reconstruction pipeline's numerical core:
// mean-value Laplacian weights over a mesh's 1-ring neighborhoods, the
// stacked Laplacian+anchor operator L*, a least-squares conjugate-gradient
// solve of L*·S ≈ rhs performed column by column, and the per-frame
// translation offset applied to the expanded displacement tensor.
//
// The sparse operator (Sparse) is a row-major triplet list exposing only
// MulVec/MulTransVec, deliberately mirroring a minimal sparse-matrix
// interface sufficient for iterative solvers without ever materializing
// a dense or transposed copy. Dense matrices (weights' row sums aside)
// are gonum.org/v1/gonum/mat.Dense throughout.
package linalg
