package linalg

// entry is one non-zero (row, col, value) triple of a Sparse matrix.
type entry struct {
	row, col int
	val      float64
}

// Sparse is a row-major triplet-backed sparse matrix. It supports only
// the operations the reconstruction pipeline needs: appending entries,
// applying the operator and its transpose to a dense vector, and
// vertically stacking two operators. There is no random-access indexing
// and no attempt at compressed storage (CSR/CSC) — the iterative solver
// only ever needs MulVec/MulTransVec.
type Sparse struct {
	rows, cols int
	entries    []entry
}

// NewSparse returns an empty rows x cols sparse matrix.
func NewSparse(rows, cols int) *Sparse {
	return &Sparse{rows: rows, cols: cols}
}

// Dims returns the matrix shape.
func (s *Sparse) Dims() (rows, cols int) { return s.rows, s.cols }

// NNZ returns the number of stored (possibly duplicate) entries.
func (s *Sparse) NNZ() int { return len(s.entries) }

// Append records a non-zero entry at (row, col). Out-of-range indices
// panic, matching the fail-fast behavior of a programmer error rather
// than a data error (the caller controls row/col, never file input).
func (s *Sparse) Append(row, col int, val float64) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		panic("linalg: sparse index out of range")
	}
	s.entries = append(s.entries, entry{row, col, val})
}

// MulVec computes dst = S * x. len(x) must equal Cols(), len(dst) must
// equal Rows(); dst is fully overwritten (not accumulated into).
func (s *Sparse) MulVec(dst, x []float64) {
	if len(x) != s.cols || len(dst) != s.rows {
		panic("linalg: dimension mismatch in MulVec")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, e := range s.entries {
		dst[e.row] += e.val * x[e.col]
	}
}

// MulTransVec computes dst = S^T * x without ever materializing S^T.
// len(x) must equal Rows(), len(dst) must equal Cols().
func (s *Sparse) MulTransVec(dst, x []float64) {
	if len(x) != s.rows || len(dst) != s.cols {
		panic("linalg: dimension mismatch in MulTransVec")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, e := range s.entries {
		dst[e.col] += e.val * x[e.row]
	}
}

// StackRows returns a new (s.rows+other.rows) x s.cols sparse matrix
// consisting of s's rows followed by other's rows. Both operands must
// share the same column count.
func (s *Sparse) StackRows(other *Sparse) *Sparse {
	if s.cols != other.cols {
		panic("linalg: column mismatch in StackRows")
	}
	out := NewSparse(s.rows+other.rows, s.cols)
	out.entries = make([]entry, 0, len(s.entries)+len(other.entries))
	out.entries = append(out.entries, s.entries...)
	for _, e := range other.entries {
		out.entries = append(out.entries, entry{e.row + s.rows, e.col, e.val})
	}
	return out
}
