// Package playback streams a directory of subsequences under a
// bounded-memory preload window, overlapping I/O load with decode and
// exposing a wrap-around playback cursor. Manager owns a rolling set of
// tvmdecode.Decoder instances; it does not spawn any goroutines of its
// own, matching the host-driven scheduling model its rolling window is
// designed for.
package playback
