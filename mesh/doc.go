// Package mesh implements the triangle mesh model used as the reference
// pose for a decoded frame: a vertex list, a triangle list, and a derived
// adjacency structure, plus the small set of topology operations the
// decoder needs (adjacency, vertex deduplication, midpoint subdivision).
//
// Vertices are gonum.org/v1/gonum/spatial/r3.Vec, the same 3D vector type
// used throughout the geometry code this package's conventions are drawn
// from. Adjacency is stored per vertex as an unordered set (a Go map);
// NeighborOrder gives a stable traversal order by returning the neighbors
// in ascending index order, which is not an angularly sorted ring.
package mesh
