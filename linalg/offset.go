package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ApplyTMatrixOffset adds, for each frame t, the 3-vector T[0, 3t:3t+3]
// to every row's columns [3t, 3t+3) of S, returning a new matrix (S is
// not mutated). Preconditions: T has exactly 1 row, T.Cols() ==
// S.Cols(), and S.Cols() is a multiple of 3.
func ApplyTMatrixOffset(S, T *mat.Dense) (*mat.Dense, error) {
	rows, cols := S.Dims()
	tRows, tCols := T.Dims()
	if tRows != 1 {
		return nil, fmt.Errorf("linalg: T_matrix must have exactly 1 row, got %d", tRows)
	}
	if tCols != cols {
		return nil, fmt.Errorf("linalg: T_matrix column count %d does not match displacement column count %d", tCols, cols)
	}
	if cols%3 != 0 {
		return nil, fmt.Errorf("linalg: displacement column count %d is not a multiple of 3", cols)
	}

	out := mat.NewDense(rows, cols, nil)
	out.Copy(S)
	numFrames := cols / 3
	for frame := 0; frame < numFrames; frame++ {
		colStart := frame * 3
		ox, oy, oz := T.At(0, colStart), T.At(0, colStart+1), T.At(0, colStart+2)
		for v := 0; v < rows; v++ {
			out.Set(v, colStart+0, out.At(v, colStart+0)+ox)
			out.Set(v, colStart+1, out.At(v, colStart+1)+oy)
			out.Set(v, colStart+2, out.At(v, colStart+2)+oz)
		}
	}
	return out, nil
}
