package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrSolverInitFailed is wrapped into a SolverError when a conjugate
// gradient step has zero or NaN curvature (p·AᵀAp), so no step length can
// be computed. A column whose starting residual Aᵀb is already zero is
// not an error: it is solved exactly by x = 0.
var ErrSolverInitFailed = errors.New("linalg: solver failed to initialize")

// ErrSolverDidNotConverge is wrapped into a SolverError when maxIter is
// exhausted without the relative residual dropping below tol.
var ErrSolverDidNotConverge = errors.New("linalg: solver did not converge")

// ColumnResidualLog records the per-iteration relative residual of the
// normal-equation solve for one column of a least-squares right-hand
// side, for developer-facing convergence diagnostics.
type ColumnResidualLog struct {
	Column    int
	Residuals []float64
}

// SolveLeastSquares solves for X (n x k) minimizing ||A*X - rhs||_F,
// column by column, via conjugate gradient on the normal equations
// (CGNR): each column solves A^T A x = A^T b iteratively using only
// A.MulVec/A.MulTransVec, without ever materializing A^T A. maxIter
// bounds the iteration count per column; tol is the relative-residual
// convergence threshold on the normal-equation residual A^T(b - A x).
//
// If any column fails to converge or hits a zero or NaN curvature step,
// the operation stops and returns a *SolverError naming that column. A
// column with a zero starting residual gets the zero solution.
func SolveLeastSquares(A *Sparse, rhs *mat.Dense, maxIter int, tol float64) (*mat.Dense, error) {
	X, _, err := solveColumns(A, rhs, maxIter, tol, false)
	return X, err
}

// SolveLeastSquaresWithHistory behaves exactly like SolveLeastSquares
// but additionally returns, for every column solved (including the one
// that ultimately fails, if any), its per-iteration relative-residual
// trace. This is strictly for the diagnostics package's convergence
// plot; the reconstruction pipeline itself never needs it.
func SolveLeastSquaresWithHistory(A *Sparse, rhs *mat.Dense, maxIter int, tol float64) (*mat.Dense, []ColumnResidualLog, error) {
	return solveColumns(A, rhs, maxIter, tol, true)
}

func solveColumns(A *Sparse, rhs *mat.Dense, maxIter int, tol float64, recordHistory bool) (*mat.Dense, []ColumnResidualLog, error) {
	m, n := A.Dims()
	rhsRows, k := rhs.Dims()
	if rhsRows != m {
		panic("linalg: rhs row count must match operator row count")
	}

	X := mat.NewDense(n, k, nil)
	col := make([]float64, m)
	var history []ColumnResidualLog
	for c := 0; c < k; c++ {
		for i := 0; i < m; i++ {
			col[i] = rhs.At(i, c)
		}
		var residuals *[]float64
		if recordHistory {
			residuals = new([]float64)
		}
		x, err := cgnr(A, col, maxIter, tol, residuals)
		if recordHistory {
			history = append(history, ColumnResidualLog{Column: c, Residuals: *residuals})
		}
		if err != nil {
			return nil, history, &SolverError{Column: c, Err: err}
		}
		for i := 0; i < n; i++ {
			X.Set(i, c, x[i])
		}
	}
	return X, history, nil
}

// cgnr runs conjugate gradient on the normal equations A^T A x = A^T b
// for a single dense right-hand side b, starting from x=0. When history
// is non-nil, the relative residual after each iteration is appended to
// it.
func cgnr(A *Sparse, b []float64, maxIter int, tol float64, history *[]float64) ([]float64, error) {
	m, n := A.Dims()
	x := make([]float64, n)

	r := make([]float64, n) // r = A^T b - A^T A x, starts as A^T b since x=0
	A.MulTransVec(r, b)
	r0Norm := floats.Norm(r, 2)
	if r0Norm == 0 {
		// b already lies in the null space of A^T; x=0 is exact.
		return x, nil
	}

	p := append([]float64(nil), r...)
	Ap := make([]float64, m)
	ATAp := make([]float64, n)

	rDot := floats.Dot(r, r)
	for iter := 0; iter < maxIter; iter++ {
		A.MulVec(Ap, p)
		A.MulTransVec(ATAp, Ap)

		denom := floats.Dot(p, ATAp)
		if denom == 0 || math.IsNaN(denom) {
			return nil, ErrSolverInitFailed
		}
		alpha := rDot / denom

		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ATAp)

		rDotNew := floats.Dot(r, r)
		relResidual := math.Sqrt(rDotNew) / r0Norm
		if history != nil {
			*history = append(*history, relResidual)
		}
		if relResidual < tol {
			return x, nil
		}

		beta := rDotNew / rDot
		for i := range p {
			p[i] = r[i] + beta*p[i]
		}
		rDot = rDotNew
	}
	return nil, ErrSolverDidNotConverge
}
