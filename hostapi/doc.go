// Package hostapi exposes the decoder and playback packages through a
// flat, name-keyed, host-language-neutral surface: a string-keyed
// decoder registry plus a single playback manager, with every vertex
// buffer written into caller-allocated float32 slices. This is the seam
// where a cgo or other FFI binding would attach; hostapi itself has no
// host-language dependency.
package hostapi
