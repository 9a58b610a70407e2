package linalg

import (
	"math"

	"github.com/tvmseq/tvmdecode/mesh"
)

// rowSumEpsilon is the threshold below which a weight matrix row is
// treated as vanishing (isolated or degenerate vertex): its Laplacian
// row becomes all-zero rather than divide-by-near-zero.
const rowSumEpsilon = 1e-8

// AnchorIndices deterministically chooses a equally-spaced vertex
// indices on [0, n-1]: A[i] = round(i*(n-1)/(a-1)) for i in [0,a). When
// a == 1 the formula degenerates and A[0] = 0 by convention. Returns nil
// for a <= 0.
func AnchorIndices(n, a int) []int {
	if a <= 0 {
		return nil
	}
	indices := make([]int, a)
	if a == 1 {
		indices[0] = 0
		return indices
	}
	for i := 0; i < a; i++ {
		indices[i] = int(math.Round(float64(i) * float64(n-1) / float64(a-1)))
	}
	return indices
}

// BuildLaplacian constructs the stacked operator L* = [L; A_mat] where
// L = I - D^-1*W is the row-normalized mean-value Laplacian and A_mat
// has a single 1 per row at the corresponding anchor column. Rows of W
// with a near-zero row sum get a zero Laplacian row (no normalization
// entry) rather than an inflated one.
func BuildLaplacian(m *mesh.Mesh, anchors []int) *Sparse {
	n := m.VertexCount()
	W := ComputeMeanValueWeights(m)

	rowSums := make([]float64, n)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	W.MulVec(rowSums, ones)

	L := NewSparse(n, n)
	// L = I - D^-1 W: build directly from W's entries plus the identity
	// diagonal, since W's structure already gives us (i, j, w_ij) triples.
	invRowSum := make([]float64, n)
	for i, sum := range rowSums {
		if sum > rowSumEpsilon {
			invRowSum[i] = 1 / sum
		}
	}
	for i := 0; i < n; i++ {
		if invRowSum[i] != 0 {
			L.Append(i, i, 1)
		}
	}
	for _, e := range W.entries {
		if invRowSum[e.row] == 0 {
			continue
		}
		L.Append(e.row, e.col, -invRowSum[e.row]*e.val)
	}

	A := NewSparse(len(anchors), n)
	for row, col := range anchors {
		if col >= 0 && col < n {
			A.Append(row, col, 1)
		}
	}

	return L.StackRows(A)
}
