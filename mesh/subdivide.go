package mesh

import "gonum.org/v1/gonum/spatial/r3"

// edgeKey identifies an undirected edge by its two endpoint indices in
// canonical (low, high) order, so that adjacent triangles sharing an
// edge agree on its midpoint.
type edgeKey struct{ lo, hi int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// SubdivideMidpoint performs 1-to-4 midpoint subdivision: every triangle
// (v0,v1,v2) becomes (v0,m01,m20), (v1,m12,m01), (v2,m20,m12),
// (m01,m12,m20), with midpoints shared across adjacent triangles via the
// edge cache below. RemoveDuplicateVertices is run afterward to clean up
// any rounding-induced duplicate midpoints.
//
// Invalidates any existing adjacency structure.
func (m *Mesh) SubdivideMidpoint() {
	midpoints := make(map[edgeKey]int)
	newVertices := append([]r3.Vec(nil), m.Vertices...)
	newTriangles := make([][3]int, 0, 4*len(m.Triangles))

	midpoint := func(a, b int) int {
		key := newEdgeKey(a, b)
		if idx, ok := midpoints[key]; ok {
			return idx
		}
		mid := r3.Scale(0.5, r3.Add(newVertices[a], newVertices[b]))
		idx := len(newVertices)
		newVertices = append(newVertices, mid)
		midpoints[key] = idx
		return idx
	}

	for _, tri := range m.Triangles {
		v0, v1, v2 := tri[0], tri[1], tri[2]
		m01 := midpoint(v0, v1)
		m12 := midpoint(v1, v2)
		m20 := midpoint(v2, v0)
		newTriangles = append(newTriangles,
			[3]int{v0, m01, m20},
			[3]int{v1, m12, m01},
			[3]int{v2, m20, m12},
			[3]int{m01, m12, m20},
		)
	}

	m.Vertices = newVertices
	m.Triangles = newTriangles
	m.adjacency = nil
	m.RemoveDuplicateVertices(DefaultDedupEpsilon)
}
