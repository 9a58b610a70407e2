// Package objio implements the external file formats a decoded sequence
// is read from: the reference mesh (a small subset of the Wavefront OBJ
// grammar), the plain-text basis/translation matrices, and the binary
// delta-trajectory matrix.
//
// The binary reader follows the same io.Reader-based, encoding/binary
// LittleEndian header-then-payload shape used elsewhere in this module's
// ancestry for compact geometry payloads (a fixed header struct read with
// binary.Read, followed by a flat payload read in one shot).
package objio
