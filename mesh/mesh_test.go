package mesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func tetrahedron() *Mesh {
	return &Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Triangles: [][3]int{
			{0, 1, 2},
			{0, 1, 3},
			{0, 2, 3},
			{1, 2, 3},
		},
	}
}

func TestComputeAdjacencySymmetric(t *testing.T) {
	m := tetrahedron()
	m.ComputeAdjacency()

	if !m.HasAdjacency() {
		t.Fatal("expected adjacency to be populated")
	}
	for i := range m.Vertices {
		neighbors := m.Neighbors(i)
		if _, self := neighbors[i]; self {
			t.Fatalf("vertex %d lists itself as a neighbor", i)
		}
		for j := range neighbors {
			if _, ok := m.Neighbors(j)[i]; !ok {
				t.Fatalf("adjacency not symmetric: %d->%d but not %d->%d", i, j, j, i)
			}
		}
	}
	// Every vertex of a tetrahedron is adjacent to every other vertex.
	for i := range m.Vertices {
		if len(m.Neighbors(i)) != 3 {
			t.Fatalf("vertex %d: got %d neighbors, want 3", i, len(m.Neighbors(i)))
		}
	}
}

func TestRemoveDuplicateVertices(t *testing.T) {
	m := &Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1e-9, Y: 0, Z: 0}, // duplicate of vertex 0 within eps
			{X: 0, Y: 1, Z: 0},
		},
		Triangles: [][3]int{{0, 1, 3}, {2, 1, 3}},
	}
	m.RemoveDuplicateVertices(DefaultDedupEpsilon)

	if len(m.Vertices) != 3 {
		t.Fatalf("got %d unique vertices, want 3", len(m.Vertices))
	}
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(m.Vertices) {
				t.Fatalf("triangle index %d out of range after dedup", idx)
			}
		}
	}
	// both original triangles referenced vertex 0/2 which collapsed together
	if m.Triangles[0][0] != m.Triangles[1][0] {
		t.Fatalf("expected collapsed vertices to share an index")
	}
}

func TestSubdivideMidpointQuadruplesTriangles(t *testing.T) {
	m := tetrahedron()
	beforeTris := len(m.Triangles)
	m.SubdivideMidpoint()

	if len(m.Triangles) != 4*beforeTris {
		t.Fatalf("got %d triangles, want %d", len(m.Triangles), 4*beforeTris)
	}
	// Closed tetrahedron has 6 edges, so 4 original vertices + 6 midpoints.
	const edgeCount = 6
	if len(m.Vertices) != 4+edgeCount {
		t.Fatalf("got %d vertices, want %d", len(m.Vertices), 4+edgeCount)
	}
}

func TestSubdivideSharesMidpointsAcrossTriangles(t *testing.T) {
	// Two triangles sharing edge (0,1): subdividing must not duplicate
	// the midpoint of that shared edge.
	m := &Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 1, Y: 1, Z: 0},
		},
		Triangles: [][3]int{{0, 1, 2}, {1, 3, 0}},
	}
	m.SubdivideMidpoint()
	// original 4 vertices + 5 unique edges (01,12,20,13,30... 30==03 shared with 01's mirror)
	// edges: (0,1) shared, (1,2), (2,0), (1,3), (3,0) => 5 unique edges
	const uniqueEdges = 5
	if len(m.Vertices) != 4+uniqueEdges {
		t.Fatalf("got %d vertices, want %d (shared midpoint not deduped)", len(m.Vertices), 4+uniqueEdges)
	}
}
