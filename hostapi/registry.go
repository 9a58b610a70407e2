package hostapi

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tvmseq/tvmdecode"
	"github.com/tvmseq/tvmdecode/internal/tvmlog"
	"github.com/tvmseq/tvmdecode/playback"
)

// Registry owns a name-keyed set of decoders and, once initialized, a
// single playback manager. It carries its own lock, independent of the
// manager's, so registry housekeeping never blocks on a manager
// operation and vice versa. This is an explicit, host-owned registry
// rather than a package-level singleton.
type Registry struct {
	mu       sync.Mutex
	decoders map[string]*tvmdecode.Decoder
	pm       *playback.Manager
	log      *zap.Logger
}

// NewRegistry returns an empty registry with no decoders and no
// playback manager.
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]*tvmdecode.Decoder),
		log:      tvmlog.L(),
	}
}

// CreateDecoder registers a new Empty decoder under name, replacing any
// existing decoder registered under that name.
func (r *Registry) CreateDecoder(name string) error {
	if name == "" {
		return fmt.Errorf("hostapi: decoder name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[name] = tvmdecode.NewDecoder(name)
	return nil
}

// LoadSequence loads and decodes the decoder registered under name from
// dir, reporting overall success as a bool: the host-visible surface
// collapses I/O, shape, and solver failures into one boolean, though the
// underlying error is logged with its full category.
func (r *Registry) LoadSequence(name, dir string) bool {
	r.mu.Lock()
	dec, ok := r.decoders[name]
	r.mu.Unlock()
	if !ok {
		r.log.Error("LoadSequence: unknown decoder", zap.String("name", name))
		return false
	}
	if err := dec.Load(dir); err != nil {
		r.log.Error("LoadSequence: load failed", zap.String("name", name), zap.Error(err))
		return false
	}
	if err := dec.Decode(); err != nil {
		r.log.Error("LoadSequence: decode failed", zap.String("name", name), zap.Error(err))
		return false
	}
	return true
}

func (r *Registry) lookup(name string) (*tvmdecode.Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.decoders[name]
	return d, ok
}

// GetTotalFrames returns the named decoder's frame count, or 0 if the
// name is unknown.
func (r *Registry) GetTotalFrames(name string) int {
	d, ok := r.lookup(name)
	if !ok {
		return 0
	}
	return d.FrameCount()
}

// GetVertexCount returns the named decoder's vertex count, or 0 if the
// name is unknown.
func (r *Registry) GetVertexCount(name string) int {
	d, ok := r.lookup(name)
	if !ok {
		return 0
	}
	return d.VertexCount()
}

// GetTriangleIndexCount returns the number of flattened triangle index
// entries (3 per triangle) for the named decoder, or 0 if unknown.
func (r *Registry) GetTriangleIndexCount(name string) int {
	d, ok := r.lookup(name)
	if !ok {
		return 0
	}
	return len(d.TriangleIndicesFlat())
}

// GetTriangleIndices writes the named decoder's flattened triangle
// indices into out, up to len(out), returning the count written.
func (r *Registry) GetTriangleIndices(name string, out []int32) int {
	d, ok := r.lookup(name)
	if !ok {
		return 0
	}
	flat := d.TriangleIndicesFlat()
	n := len(flat)
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = int32(flat[i])
	}
	return n
}

// GetReferenceVertices writes the named decoder's rest-pose vertex
// positions into out as tightly packed (x,y,z) float32 triples, up to
// len(out)/3 vertices, returning the count of float32 values written.
func (r *Registry) GetReferenceVertices(name string, out []float32) int {
	d, ok := r.lookup(name)
	if !ok {
		return 0
	}
	return packVertices(d.ReferenceVertices(), out)
}

// GetFrameDeformedVertices writes the named decoder's deformed vertices
// for frame t into out, same packing as GetReferenceVertices. Returns 0
// if the decoder is unknown, not decoded, or t is out of range.
func (r *Registry) GetFrameDeformedVertices(name string, t int, out []float32) int {
	d, ok := r.lookup(name)
	if !ok {
		return 0
	}
	verts, err := d.FrameVertices(t)
	if err != nil {
		r.log.Debug("GetFrameDeformedVertices failed", zap.String("name", name), zap.Int("frame", t), zap.Error(err))
		return 0
	}
	return packVertices(verts, out)
}

// packVertices writes verts into out as (x,y,z) float32 triples, up to
// len(out)/3 vertices, writing 0 in place of any non-finite component
// rather than propagating NaN/Inf into a host buffer.
func packVertices(verts []r3.Vec, out []float32) int {
	max := len(out) / 3
	if max > len(verts) {
		max = len(verts)
	}
	for i := 0; i < max; i++ {
		x, y, z := float32(verts[i].X), float32(verts[i].Y), float32(verts[i].Z)
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			x = 0
		}
		if math32.IsNaN(y) || math32.IsInf(y, 0) {
			y = 0
		}
		if math32.IsNaN(z) || math32.IsInf(z, 0) {
			z = 0
		}
		out[i*3+0] = x
		out[i*3+1] = y
		out[i*3+2] = z
	}
	return max * 3
}

// CleanDecoders removes every registered decoder whose name is not in
// protected.
func (r *Registry) CleanDecoders(protected []string) {
	keep := make(map[string]bool, len(protected))
	for _, name := range protected {
		keep[name] = true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.decoders {
		if !keep[name] {
			delete(r.decoders, name)
		}
	}
}

// InitializePlaybackManager constructs the registry's single playback
// manager. Calling it again replaces the previous manager; the previous
// one is simply dropped (its decoders are not otherwise referenced).
func (r *Registry) InitializePlaybackManager(root string, memLoad, decodeLoad int, logging bool) error {
	pm, err := playback.NewManager(root, memLoad, decodeLoad, logging)
	if err != nil {
		return fmt.Errorf("hostapi: initializing playback manager: %w", err)
	}
	r.mu.Lock()
	r.pm = pm
	r.mu.Unlock()
	return nil
}

// IsPlaybackManagerLoaded reports whether InitializePlaybackManager has
// succeeded.
func (r *Registry) IsPlaybackManagerLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pm != nil
}

func (r *Registry) manager() *playback.Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pm
}

// AdvanceSubSequence delegates to the playback manager, or returns
// false if no manager has been initialized.
func (r *Registry) AdvanceSubSequence() bool {
	pm := r.manager()
	if pm == nil {
		return false
	}
	return pm.Advance()
}

// LoadSubSequence delegates to the playback manager, if one exists.
func (r *Registry) LoadSubSequence(i int) {
	if pm := r.manager(); pm != nil {
		pm.LoadSubSequence(i)
	}
}

// DecodeSubSequence delegates to the playback manager, if one exists.
func (r *Registry) DecodeSubSequence(i int) {
	if pm := r.manager(); pm != nil {
		pm.DecodeSubSequence(i)
	}
}

// FetchFrame writes frame t of the current subsequence into out, same
// packing as GetReferenceVertices, returning 0 if no manager exists or
// the frame is not yet ready.
func (r *Registry) FetchFrame(t int, out []float32) int {
	pm := r.manager()
	if pm == nil {
		return 0
	}
	verts := pm.FetchFrame(t)
	if verts == nil {
		return 0
	}
	return packVertices(verts, out)
}

// GetCurrentDecoderTotalFrames delegates to the playback manager, or
// returns 0 if none exists.
func (r *Registry) GetCurrentDecoderTotalFrames() int {
	pm := r.manager()
	if pm == nil {
		return 0
	}
	return pm.CurrentDecoderTotalFrames()
}

// GetCurrentDecoderVertexCount delegates to the playback manager, or
// returns 0 if none exists.
func (r *Registry) GetCurrentDecoderVertexCount() int {
	pm := r.manager()
	if pm == nil {
		return 0
	}
	return pm.CurrentDecoderVertexCount()
}

// GetSubSequenceCount delegates to the playback manager, or returns 0
// if none exists.
func (r *Registry) GetSubSequenceCount() int {
	pm := r.manager()
	if pm == nil {
		return 0
	}
	return pm.SubSequenceCount()
}
