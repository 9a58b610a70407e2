package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an ordered vertex list, an ordered triangle list, and the
// derived vertex-adjacency structure over those triangles.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int

	// adjacency[i] holds the set of vertex indices sharing a triangle
	// with vertex i. nil until ComputeAdjacency has run.
	adjacency []map[int]struct{}
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{}
}

// ComputeAdjacency (re)builds the adjacency structure from the current
// triangle list. Each triangle contributes three undirected edges;
// duplicate insertions are naturally idempotent since neighbors are
// stored as sets.
func (m *Mesh) ComputeAdjacency() {
	m.adjacency = make([]map[int]struct{}, len(m.Vertices))
	for i := range m.adjacency {
		m.adjacency[i] = make(map[int]struct{})
	}
	for _, tri := range m.Triangles {
		a, b, c := tri[0], tri[1], tri[2]
		m.link(a, b)
		m.link(a, c)
		m.link(b, c)
	}
}

func (m *Mesh) link(i, j int) {
	m.adjacency[i][j] = struct{}{}
	m.adjacency[j][i] = struct{}{}
}

// Neighbors returns the neighbor-index set of vertex i. The returned map
// must not be mutated by the caller. Panics if ComputeAdjacency has not
// been run since the last topology change.
func (m *Mesh) Neighbors(i int) map[int]struct{} {
	return m.adjacency[i]
}

// HasAdjacency reports whether ComputeAdjacency has produced a structure
// sized for the current vertex list.
func (m *Mesh) HasAdjacency() bool {
	return m.adjacency != nil && len(m.adjacency) == len(m.Vertices)
}

// NeighborOrder returns the neighbors of vertex i as a slice in ascending
// index order. The order depends only on the neighbor set, so repeated
// calls return the same order and the mean-value weights computed by
// package linalg are the same on every run. It is not an angularly
// sorted fan around the vertex.
func (m *Mesh) NeighborOrder(i int) []int {
	set := m.adjacency[i]
	out := make([]int, 0, len(set))
	for j := range set {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleIndicesFlat returns the triangle indices flattened in
// (a0,b0,c0, a1,b1,c1, ...) order, suitable for a host-callable buffer.
func (m *Mesh) TriangleIndicesFlat() []int {
	out := make([]int, 0, 3*len(m.Triangles))
	for _, tri := range m.Triangles {
		out = append(out, tri[0], tri[1], tri[2])
	}
	return out
}
