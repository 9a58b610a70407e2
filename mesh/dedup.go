package mesh

import "gonum.org/v1/gonum/spatial/r3"

// DefaultDedupEpsilon is the default Euclidean distance under which two
// vertices are treated as duplicates by RemoveDuplicateVertices.
const DefaultDedupEpsilon = 1e-6

// RemoveDuplicateVertices canonicalizes the vertex list so that any two
// vertices within Euclidean distance eps collapse to the first one seen,
// preserving order of first occurrence, and remaps triangle indices
// accordingly. This is intentionally O(n^2): meshes reaching this stage
// are small (post-subdivision, decimated), and no spatial index is
// warranted for the sizes involved.
//
// Any existing adjacency structure is invalidated; callers must call
// ComputeAdjacency again afterward.
func (m *Mesh) RemoveDuplicateVertices(eps float64) {
	oldToNew := make([]int, len(m.Vertices))
	unique := make([]r3.Vec, 0, len(m.Vertices))

	for i, v := range m.Vertices {
		found := -1
		for j, u := range unique {
			if withinEps(v, u, eps) {
				found = j
				break
			}
		}
		if found < 0 {
			found = len(unique)
			unique = append(unique, v)
		}
		oldToNew[i] = found
	}

	for k, tri := range m.Triangles {
		m.Triangles[k] = [3]int{oldToNew[tri[0]], oldToNew[tri[1]], oldToNew[tri[2]]}
	}
	m.Vertices = unique
	m.adjacency = nil
}

func withinEps(a, b r3.Vec, eps float64) bool {
	return r3.Norm(r3.Sub(a, b)) < eps
}
