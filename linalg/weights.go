package linalg

import (
	"math"

	"github.com/tvmseq/tvmdecode/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ComputeMeanValueWeights builds the n x n mean-value weight matrix over
// m's 1-ring neighborhoods. For neighbor j_r of vertex i, with p and q
// its predecessor/successor in i's (implementation-defined but stable)
// neighbor order, the weight is
//
//	w_i,j_r = (tan(a1/2) + tan(a2/2)) / |V_j_r - V_i|
//
// where a1, a2 are the angles between (V_j_r - V_i) and (V_p - V_i),
// (V_q - V_i) respectively. Vertices with fewer than 2 neighbors
// contribute no entries; non-finite weights are dropped.
func ComputeMeanValueWeights(m *mesh.Mesh) *Sparse {
	n := m.VertexCount()
	W := NewSparse(n, n)

	for i := 0; i < n; i++ {
		neighbors := m.NeighborOrder(i)
		degree := len(neighbors)
		if degree < 2 {
			continue
		}
		vi := m.Vertices[i]
		for r, jr := range neighbors {
			p := neighbors[(r-1+degree)%degree]
			q := neighbors[(r+1)%degree]

			toJr := r3.Sub(m.Vertices[jr], vi)
			dist := r3.Norm(toJr)
			u := r3.Unit(toJr)
			u1 := r3.Unit(r3.Sub(m.Vertices[p], vi))
			u2 := r3.Unit(r3.Sub(m.Vertices[q], vi))

			a1 := math.Acos(clamp(r3.Dot(u, u1), -1, 1))
			a2 := math.Acos(clamp(r3.Dot(u, u2), -1, 1))
			w := (math.Tan(a1/2) + math.Tan(a2/2)) / dist

			if !math.IsInf(w, 0) && !math.IsNaN(w) {
				W.Append(i, jr, w)
			}
		}
	}
	return W
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
