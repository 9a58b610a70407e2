package tvmdecode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tvmseq/tvmdecode/internal/tvmlog"
	"github.com/tvmseq/tvmdecode/linalg"
	"github.com/tvmseq/tvmdecode/mesh"
	"github.com/tvmseq/tvmdecode/objio"
)

const (
	referenceMeshFile = "decoded_decimated_reference_mesh_subdivided.obj"
	deltaTrajFile     = "delta_trajectories.bin"
	bMatrixFile       = "B_matrix.txt"
	tMatrixFile       = "T_matrix.txt"

	solverMaxIter = 500
	solverTol     = 1e-6
)

// Decoder owns one subsequence's reference mesh and matrices, runs the
// reconstruction pipeline, and caches per-frame displacements. It moves
// through Empty -> Loaded -> Decoded -> Empty (via Clear).
type Decoder struct {
	name string
	log  *zap.Logger

	mesh *mesh.Mesh
	dHat *mat.Dense
	b    *mat.Dense
	t    *mat.Dense

	anchors []int
	frames  [][]r3.Vec // frames[t][i] is vertex i's displacement at frame t

	vertexCount int
	frameCount  int

	loaded  bool
	decoded bool
}

// NewDecoder returns an Empty decoder identified by name (used only for
// log fields; it plays no role in load/decode semantics).
func NewDecoder(name string) *Decoder {
	return &Decoder{name: name, log: tvmlog.L()}
}

// Load reads the four artifacts of a subsequence directory: the
// reference mesh, the binary delta trajectories, and the B and T
// matrices. On any I/O or shape failure, the decoder is left (or
// returned) to Empty and the error is returned. On success it
// transitions Empty -> Loaded.
func (d *Decoder) Load(dir string) error {
	if dir == "" {
		return EmptyPathError{}
	}

	m, err := readMesh(filepath.Join(dir, referenceMeshFile))
	if err != nil {
		d.reset()
		return err
	}
	m.ComputeAdjacency()

	dHat, err := readDeltaTrajectories(filepath.Join(dir, deltaTrajFile))
	if err != nil {
		d.reset()
		return err
	}

	b, err := readMatrix(filepath.Join(dir, bMatrixFile))
	if err != nil {
		d.reset()
		return err
	}

	t, err := readMatrix(filepath.Join(dir, tMatrixFile))
	if err != nil {
		d.reset()
		return err
	}

	d.mesh = m
	d.dHat = dHat
	d.b = b
	d.t = t
	d.vertexCount = m.VertexCount()
	d.loaded = true
	d.decoded = false
	d.log.Debug("decoder loaded", zap.String("decoder", d.name), zap.String("dir", dir), zap.Int("vertices", d.vertexCount))
	return nil
}

func readMesh(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	m, err := objio.ReadOBJ(f)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return m, nil
}

func readDeltaTrajectories(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	d, err := objio.LoadDeltaTrajectories(f)
	if err != nil {
		if errors.Is(err, objio.ErrBadDeltaHeader) {
			return nil, &ShapeError{Which: "delta_trajectories.bin header", Got: err.Error(), Expected: "0 < rows <= 1000000, 0 < cols <= 1000"}
		}
		return nil, &IOError{Path: path, Err: err}
	}
	return d, nil
}

func readMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	m, err := objio.LoadText(f)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return m, nil
}

// Decode runs the reconstruction pipeline: infers the anchor count from
// D_hat's row count, builds the anchor-augmented mean-value Laplacian,
// solves for the latent matrix S_hat, expands it through the basis B
// and offsets it by T, and caches per-frame displacements. Precondition
// Loaded; on success transitions Loaded -> Decoded. Any shape or solver
// failure aborts and returns the decoder to Empty.
func (d *Decoder) Decode() error {
	_, err := d.decode(false)
	return err
}

// DecodeWithHistory behaves exactly like Decode but additionally
// returns the solver's per-column relative-residual trace, for the
// diagnostics package's convergence plot. Ordinary playback never needs
// this; it exists for the CLI's optional -residual-plot pass.
func (d *Decoder) DecodeWithHistory() ([]linalg.ColumnResidualLog, error) {
	return d.decode(true)
}

func (d *Decoder) decode(recordHistory bool) ([]linalg.ColumnResidualLog, error) {
	if !d.loaded {
		return nil, NotReadyError{}
	}

	n := d.vertexCount
	dRows, k := d.dHat.Dims()
	a := dRows - n
	if a < 0 {
		err := &ShapeError{Which: "D_hat rows", Got: fmt.Sprintf("%d", dRows), Expected: fmt.Sprintf(">= %d", n)}
		d.reset()
		return nil, err
	}

	bRows, bCols := d.b.Dims()
	_, tCols := d.t.Dims()
	if bCols != tCols {
		err := &ShapeError{Which: "B/T columns", Got: fmt.Sprintf("%d/%d", bCols, tCols), Expected: "equal"}
		d.reset()
		return nil, err
	}
	if bCols%3 != 0 {
		err := &ShapeError{Which: "B columns", Got: fmt.Sprintf("%d", bCols), Expected: "multiple of 3"}
		d.reset()
		return nil, err
	}
	// B holds the low-rank basis: S_hat is n x k (k = cols(D_hat)) and
	// S_hat * B expands it through B, so B's row count must match k, not
	// the vertex count.
	if bRows != k {
		err := &ShapeError{Which: "B rows", Got: fmt.Sprintf("%d", bRows), Expected: fmt.Sprintf("%d", k)}
		d.reset()
		return nil, err
	}

	anchors := linalg.AnchorIndices(n, a)
	lStar := linalg.BuildLaplacian(d.mesh, anchors)

	var sHat *mat.Dense
	var history []linalg.ColumnResidualLog
	var err error
	if recordHistory {
		sHat, history, err = linalg.SolveLeastSquaresWithHistory(lStar, d.dHat, solverMaxIter, solverTol)
	} else {
		sHat, err = linalg.SolveLeastSquares(lStar, d.dHat, solverMaxIter, solverTol)
	}
	if err != nil {
		d.reset()
		return history, err
	}

	sHatB := mat.NewDense(n, bCols, nil)
	sHatB.Mul(sHat, d.b)

	tHat, err := linalg.ApplyTMatrixOffset(sHatB, d.t)
	if err != nil {
		d.reset()
		return history, &ShapeError{Which: "T_matrix", Got: err.Error(), Expected: "1 x cols(B)"}
	}

	frameCount := bCols / 3
	frames := make([][]r3.Vec, frameCount)
	for ft := 0; ft < frameCount; ft++ {
		row := make([]r3.Vec, n)
		col := ft * 3
		for i := 0; i < n; i++ {
			row[i] = r3.Vec{X: tHat.At(i, col), Y: tHat.At(i, col+1), Z: tHat.At(i, col+2)}
		}
		frames[ft] = row
	}

	d.anchors = anchors
	d.frames = frames
	d.frameCount = frameCount
	d.decoded = true
	d.log.Debug("decoder decoded", zap.String("decoder", d.name), zap.Int("frames", frameCount), zap.Int("anchors", a))
	return history, nil
}

// IsLoaded reports whether the decoder has reached at least the Loaded
// state (i.e. is Loaded or Decoded).
func (d *Decoder) IsLoaded() bool { return d.loaded }

// IsDecoded reports whether the decoder has reached the Decoded state.
func (d *Decoder) IsDecoded() bool { return d.decoded }

// FrameCount returns the number of frames available once Decoded (0
// before that).
func (d *Decoder) FrameCount() int { return d.frameCount }

// VertexCount returns the reference mesh's vertex count once Loaded (0
// before that).
func (d *Decoder) VertexCount() int { return d.vertexCount }

// ReferenceVertices returns the rest-pose vertex positions.
func (d *Decoder) ReferenceVertices() []r3.Vec {
	if d.mesh == nil {
		return nil
	}
	out := make([]r3.Vec, len(d.mesh.Vertices))
	copy(out, d.mesh.Vertices)
	return out
}

// TriangleIndicesFlat returns the reference mesh's triangle indices
// flattened as (a0,b0,c0, a1,b1,c1, ...).
func (d *Decoder) TriangleIndicesFlat() []int {
	if d.mesh == nil {
		return nil
	}
	return d.mesh.TriangleIndicesFlat()
}

// FrameVertices returns V_ref[i] + disp_t[i] for every vertex i.
// Precondition Decoded (else NotReadyError); 0 <= t < FrameCount (else
// OutOfRangeError). Pure; does not mutate decoder state.
func (d *Decoder) FrameVertices(t int) ([]r3.Vec, error) {
	if !d.decoded {
		return nil, NotReadyError{}
	}
	if t < 0 || t >= d.frameCount {
		return nil, &OutOfRangeError{Index: t, Len: d.frameCount}
	}
	out := make([]r3.Vec, d.vertexCount)
	disp := d.frames[t]
	for i := 0; i < d.vertexCount; i++ {
		out[i] = r3.Add(d.mesh.Vertices[i], disp[i])
	}
	return out, nil
}

// Clear releases all owned buffers and returns the decoder to Empty.
// Idempotent.
func (d *Decoder) Clear() {
	d.reset()
}

func (d *Decoder) reset() {
	d.mesh = nil
	d.dHat = nil
	d.b = nil
	d.t = nil
	d.anchors = nil
	d.frames = nil
	d.vertexCount = 0
	d.frameCount = 0
	d.loaded = false
	d.decoded = false
}
