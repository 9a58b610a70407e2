package tvmdecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tvmseq/tvmdecode/mesh"
	"github.com/tvmseq/tvmdecode/objio"
)

func tetrahedron() *mesh.Mesh {
	m := &mesh.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1},
		},
		Triangles: [][3]int{
			{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3},
		},
	}
	m.ComputeAdjacency()
	return m
}

// loadedDecoder builds a Decoder already in the Loaded state without
// touching the filesystem, for tests exercising Decode in isolation.
func loadedDecoder(m *mesh.Mesh, dHat, b, t *mat.Dense) *Decoder {
	d := NewDecoder("test")
	d.mesh = m
	d.dHat = dHat
	d.b = b
	d.t = t
	d.vertexCount = m.VertexCount()
	d.loaded = true
	return d
}

func TestDecodeIdentityMeshInvariant(t *testing.T) {
	m := tetrahedron()
	n := m.VertexCount()

	dHat := mat.NewDense(n, 2, nil) // all zero, a=0, k=2
	b := mat.NewDense(2, 6, []float64{
		1, 0, 0, 0, 1, 0,
		1, 0, 0, 0, 1, 0,
	})
	tMat := mat.NewDense(1, 6, []float64{5, 6, 7, -1, -2, -3})

	d := loadedDecoder(m, dHat, b, tMat)
	if err := d.Decode(); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for ft := 0; ft < 2; ft++ {
		verts, err := d.FrameVertices(ft)
		if err != nil {
			t.Fatalf("FrameVertices(%d): %v", ft, err)
		}
		off := r3.Vec{X: tMat.At(0, ft*3), Y: tMat.At(0, ft*3+1), Z: tMat.At(0, ft*3+2)}
		for i, v := range verts {
			want := r3.Add(m.Vertices[i], off)
			if r3.Norm(r3.Sub(v, want)) > 1e-9 {
				t.Fatalf("frame %d vertex %d = %v, want %v", ft, i, v, want)
			}
		}
	}
}

func TestDecodeWithHistoryReturnsPerColumnTrace(t *testing.T) {
	m := tetrahedron()
	n := m.VertexCount()

	dHat := mat.NewDense(n, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
		0, 0,
	})
	b := mat.NewDense(2, 3, []float64{1, 0, 0, 1, 0, 0})
	tMat := mat.NewDense(1, 3, []float64{0, 0, 0})

	d := loadedDecoder(m, dHat, b, tMat)
	history, err := d.DecodeWithHistory()
	if err != nil {
		t.Fatalf("DecodeWithHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2 (one entry per D_hat column)", len(history))
	}
	for _, col := range history {
		if len(col.Residuals) == 0 {
			t.Fatalf("column %d recorded no residuals", col.Column)
		}
	}
	if !d.IsDecoded() {
		t.Fatal("expected decoder to be Decoded after DecodeWithHistory")
	}
}

func TestDecodeDimensionalClosure(t *testing.T) {
	m := tetrahedron()
	n := m.VertexCount()
	dHat := mat.NewDense(n, 2, nil)
	b := mat.NewDense(2, 9, make([]float64, 2*9))
	tMat := mat.NewDense(1, 9, make([]float64, 9))

	d := loadedDecoder(m, dHat, b, tMat)
	if err := d.Decode(); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got, want := d.FrameCount(), 3; got != want {
		t.Fatalf("FrameCount() = %d, want %d", got, want)
	}
	if got, want := d.VertexCount(), n; got != want {
		t.Fatalf("VertexCount() = %d, want %d", got, want)
	}
	for ft := 0; ft < d.FrameCount(); ft++ {
		verts, err := d.FrameVertices(ft)
		if err != nil {
			t.Fatalf("FrameVertices(%d): %v", ft, err)
		}
		if len(verts) != d.VertexCount() {
			t.Fatalf("FrameVertices(%d) length = %d, want %d", ft, len(verts), d.VertexCount())
		}
	}
}

func TestDecodeRejectsBadBColumnCount(t *testing.T) {
	m := tetrahedron()
	n := m.VertexCount()
	dHat := mat.NewDense(n, 2, nil)
	b := mat.NewDense(2, 4, make([]float64, 2*4)) // 4 not a multiple of 3
	tMat := mat.NewDense(1, 4, make([]float64, 4))

	d := loadedDecoder(m, dHat, b, tMat)
	err := d.Decode()
	if err == nil {
		t.Fatal("expected an error")
	}
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *ShapeError, got %T: %v", err, err)
	}
	if d.loaded {
		t.Fatal("decoder should have returned to Empty after a shape error")
	}
}

func TestDecodeRejectsShortDeltaMatrix(t *testing.T) {
	m := tetrahedron()
	n := m.VertexCount()
	dHat := mat.NewDense(n-1, 2, nil) // fewer rows than vertices: a < 0
	b := mat.NewDense(2, 3, make([]float64, 2*3))
	tMat := mat.NewDense(1, 3, make([]float64, 3))

	d := loadedDecoder(m, dHat, b, tMat)
	err := d.Decode()
	if err == nil {
		t.Fatal("expected an error")
	}
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected *ShapeError, got %T: %v", err, err)
	}
}

func TestFrameVerticesStateErrors(t *testing.T) {
	m := tetrahedron()
	n := m.VertexCount()
	d := loadedDecoder(m, mat.NewDense(n, 2, nil), mat.NewDense(2, 3, make([]float64, 2*3)), mat.NewDense(1, 3, make([]float64, 3)))

	if _, err := d.FrameVertices(0); !errors.As(err, new(NotReadyError)) {
		t.Fatalf("expected NotReadyError before Decode, got %v", err)
	}

	if err := d.Decode(); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, err := d.FrameVertices(5); err == nil {
		t.Fatal("expected an out-of-range error")
	} else {
		var oobErr *OutOfRangeError
		if !errors.As(err, &oobErr) {
			t.Fatalf("expected *OutOfRangeError, got %T: %v", err, err)
		}
	}
}

func TestLoadEmptyPath(t *testing.T) {
	d := NewDecoder("test")
	err := d.Load("")
	if !errors.As(err, new(EmptyPathError)) {
		t.Fatalf("expected EmptyPathError, got %v", err)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	d := NewDecoder("test")
	err := d.Load(t.TempDir())
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T: %v", err, err)
	}
	if d.loaded {
		t.Fatal("decoder should remain Empty after a failed Load")
	}
}

func writeFixtureSubsequence(t *testing.T, dir string) {
	t.Helper()
	m := tetrahedron()

	objPath := filepath.Join(dir, referenceMeshFile)
	f, err := os.Create(objPath)
	if err != nil {
		t.Fatalf("creating fixture obj: %v", err)
	}
	if err := objio.WriteOBJ(f, m); err != nil {
		t.Fatalf("writing fixture obj: %v", err)
	}
	f.Close()

	n := m.VertexCount()
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(n))
	binary.Write(&buf, binary.LittleEndian, int32(2))
	binary.Write(&buf, binary.LittleEndian, make([]float64, n*2))
	if err := os.WriteFile(filepath.Join(dir, deltaTrajFile), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing fixture delta trajectories: %v", err)
	}

	bText := "1 0 0 0 1 0\n1 0 0 0 1 0\n" // 2 rows: B has k=2 rows (D_hat has 2 columns)
	if err := os.WriteFile(filepath.Join(dir, bMatrixFile), []byte(bText), 0o644); err != nil {
		t.Fatalf("writing fixture B matrix: %v", err)
	}
	tText := "1 2 3 4 5 6\n"
	if err := os.WriteFile(filepath.Join(dir, tMatrixFile), []byte(tText), 0o644); err != nil {
		t.Fatalf("writing fixture T matrix: %v", err)
	}
}

func TestLoadAndDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFixtureSubsequence(t, dir)

	d := NewDecoder("fixture")
	if err := d.Load(dir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !d.loaded {
		t.Fatal("expected decoder to be Loaded")
	}
	if err := d.Decode(); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got, want := d.FrameCount(), 2; got != want {
		t.Fatalf("FrameCount() = %d, want %d", got, want)
	}

	verts, err := d.FrameVertices(0)
	if err != nil {
		t.Fatalf("FrameVertices(0): %v", err)
	}
	want := r3.Vec{X: 1, Y: 2, Z: 3}
	for i, v := range verts {
		got := r3.Sub(v, d.ReferenceVertices()[i])
		if r3.Norm(r3.Sub(got, want)) > 1e-9 {
			t.Fatalf("vertex %d displacement = %v, want %v", i, got, want)
		}
	}

	if got, want := len(d.TriangleIndicesFlat()), 3*4; got != want {
		t.Fatalf("TriangleIndicesFlat() length = %d, want %d", got, want)
	}

	d.Clear()
	if d.loaded || d.decoded {
		t.Fatal("Clear did not return decoder to Empty")
	}
	if _, err := d.FrameVertices(0); !errors.As(err, new(NotReadyError)) {
		t.Fatalf("expected NotReadyError after Clear, got %v", err)
	}
}
