package objio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Sanity bounds on the binary delta-trajectory header, matching the
// reference decoder's rejection thresholds.
const (
	maxDeltaCols = 1000
	maxDeltaRows = 1_000_000
)

// ErrEmptyMatrix is returned by LoadText when the input contains no
// numeric rows at all.
var ErrEmptyMatrix = errors.New("objio: no data rows in matrix text")

// ErrRaggedMatrix is returned by LoadText when rows have differing
// column counts.
var ErrRaggedMatrix = errors.New("objio: inconsistent column count")

// ErrBadDeltaHeader is returned by LoadDeltaTrajectories when the binary
// header's declared shape fails the sanity bounds.
var ErrBadDeltaHeader = errors.New("objio: invalid delta trajectory header")

// LoadText reads a whitespace-delimited dense matrix of doubles, one row
// per non-empty line ('\r' tolerated at end of line). All rows must have
// equal column count.
func LoadText(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows [][]float64
	cols := -1
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("objio: parsing %q: %w", tok, err)
			}
			row[i] = v
		}
		if cols < 0 {
			cols = len(row)
		} else if len(row) != cols {
			return nil, ErrRaggedMatrix
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("objio: scanning matrix text: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyMatrix
	}

	flat := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), cols, flat), nil
}

// deltaHeader is the fixed 8-byte header preceding the row-major payload
// of a delta_trajectories.bin file: two little-endian int32 dimensions.
type deltaHeader struct {
	NumRows int32
	NumCols int32
}

// LoadDeltaTrajectories reads the binary delta-trajectory matrix: a
// little-endian (numRows, numCols) int32 header followed by
// numRows*numCols little-endian float64 values in row-major order.
func LoadDeltaTrajectories(r io.Reader) (*mat.Dense, error) {
	var hdr deltaHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("objio: reading delta header: %w", err)
	}
	if hdr.NumRows <= 0 || hdr.NumCols <= 0 || hdr.NumCols > maxDeltaCols || hdr.NumRows > maxDeltaRows {
		return nil, fmt.Errorf("%w: %d x %d", ErrBadDeltaHeader, hdr.NumRows, hdr.NumCols)
	}

	total := int(hdr.NumRows) * int(hdr.NumCols)
	flat := make([]float64, total)
	if err := binary.Read(r, binary.LittleEndian, flat); err != nil {
		return nil, fmt.Errorf("objio: reading delta payload: %w", err)
	}
	return mat.NewDense(int(hdr.NumRows), int(hdr.NumCols), flat), nil
}
