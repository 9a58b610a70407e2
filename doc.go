// Package tvmdecode reconstructs per-frame vertex positions for a
// temporally-coherent volumetric mesh sequence from a compact
// representation: a reference mesh, anchor-augmented delta
// trajectories, a low-rank basis, and per-frame translations.
//
// Decoder is the central type. It owns exactly one subsequence's
// artifacts and moves through a small state machine: Empty, once
// constructed; Loaded, once its four artifact files have been read;
// Decoded, once the least-squares reconstruction has run and per-frame
// displacements are cached; and back to Empty after Clear. Load, Decode
// and Clear are the only operations that mutate this state;
// FrameVertices and the other accessors are pure reads.
package tvmdecode
