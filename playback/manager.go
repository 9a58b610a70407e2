package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tvmseq/tvmdecode"
	"github.com/tvmseq/tvmdecode/internal/tvmlog"
)

// slot pairs a 1-based subsequence index with the decoder currently
// holding it. A slot only exists in Manager.active while its decoder is
// at least Loaded; a decoder that fails to load or decode is dropped
// rather than kept in a stale state.
type slot struct {
	index   int
	decoder *tvmdecode.Decoder
}

// Manager streams subsequences of a directory laid out as
// subsequence_001/, subsequence_002/, ..., keeping at most preLoad of
// them resident and eagerly decoding the first decodeLoad of those.
type Manager struct {
	mu sync.Mutex

	rootDir            string
	subSequenceCount   int
	currentSubSequence int
	active             []*slot
	preLoad            int
	subSequenceLength  int
	log                *zap.Logger
}

// NewManager scans rootDir for immediate subdirectories to determine
// subSequenceCount, then preloads (and, up to decodeLoad, pre-decodes)
// subsequences 1..min(memLoad, subSequenceCount). decodeLoad greater
// than memLoad is clamped down to memLoad and logged. currentSubSequence
// starts at 1; subSequenceLength is taken from the first active decoder
// (0 if that decoder is loaded but not yet decoded).
func NewManager(rootDir string, memLoad, decodeLoad int, logging bool) (*Manager, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("playback: stat %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("playback: %s is not a directory", rootDir)
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("playback: reading %s: %w", rootDir, err)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			count++
		}
	}

	m := &Manager{
		rootDir:            rootDir,
		subSequenceCount:   count,
		currentSubSequence: 1,
		preLoad:            memLoad,
		log:                tvmlog.L(),
	}
	if !logging {
		m.log = zap.NewNop()
	}

	if decodeLoad > memLoad {
		m.log.Warn("decodeLoad exceeds memLoad, clamping", zap.Int("decodeLoad", decodeLoad), zap.Int("memLoad", memLoad))
		decodeLoad = memLoad
	}

	limit := memLoad
	if count < limit {
		limit = count
	}
	for i := 1; i <= limit; i++ {
		m.loadSubSequenceLocked(i)
		if i <= decodeLoad {
			m.decodeSubSequenceLocked(i)
		}
	}
	if len(m.active) == 0 {
		m.log.Warn("playback manager initialized with no active decoders", zap.String("root", rootDir))
	} else {
		m.subSequenceLength = m.active[0].decoder.FrameCount()
	}
	return m, nil
}

func (m *Manager) subsequencePath(i int) string {
	return filepath.Join(m.rootDir, fmt.Sprintf("subsequence_%03d", i))
}

func (m *Manager) findSlot(i int) *slot {
	for _, s := range m.active {
		if s.index == i {
			return s
		}
	}
	return nil
}

// loadSubSequenceLocked is idempotent: a no-op if i is already active or
// out of range. On load failure the attempt is logged and no slot is
// added, so a broken subsequence never corrupts the active set.
func (m *Manager) loadSubSequenceLocked(i int) {
	if i < 1 || i > m.subSequenceCount {
		m.log.Error("subsequence index out of range", zap.Int("index", i))
		return
	}
	if m.findSlot(i) != nil {
		return
	}
	dec := tvmdecode.NewDecoder(strconv.Itoa(i))
	path := m.subsequencePath(i)
	if err := dec.Load(path); err != nil {
		m.log.Error("failed to load subsequence", zap.Int("index", i), zap.String("path", path), zap.Error(err))
		return
	}
	m.active = append(m.active, &slot{index: i, decoder: dec})
	m.log.Debug("loaded subsequence", zap.Int("index", i))
}

// decodeSubSequenceLocked is idempotent: a no-op if i isn't loaded or is
// already decoded. On decode failure the slot is dropped, since its
// decoder has reset itself to Empty and no longer satisfies "active
// implies Loaded".
func (m *Manager) decodeSubSequenceLocked(i int) {
	s := m.findSlot(i)
	if s == nil {
		m.log.Error("trying to decode an unloaded subsequence", zap.Int("index", i))
		return
	}
	if s.decoder.IsDecoded() {
		return
	}
	if err := s.decoder.Decode(); err != nil {
		m.log.Error("failed to decode subsequence", zap.Int("index", i), zap.Error(err))
		m.removeSlotLocked(i)
		return
	}
	m.log.Debug("decoded subsequence", zap.Int("index", i))
}

func (m *Manager) removeSlotLocked(i int) {
	for k, s := range m.active {
		if s.index == i {
			m.active = append(m.active[:k], m.active[k+1:]...)
			return
		}
	}
}

// LoadSubSequence loads subsequence i into memory if it is not already
// active.
func (m *Manager) LoadSubSequence(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadSubSequenceLocked(i)
}

// DecodeSubSequence decodes subsequence i if it is loaded and not yet
// decoded.
func (m *Manager) DecodeSubSequence(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodeSubSequenceLocked(i)
}

// Advance moves currentSubSequence to the next subsequence (wrapping
// past subSequenceCount back to 1), then evicts every active decoder
// outside the new forward window. Returns false, leaving state
// unchanged, if the next subsequence has no active decoder yet or is
// loaded but not yet decoded: both are transient conditions the caller
// should retry, not fatal errors.
func (m *Manager) Advance() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) == 0 {
		m.log.Error("Advance called with no active decoders")
		return false
	}

	next := m.currentSubSequence + 1
	if next > m.subSequenceCount {
		next = 1
	}

	s := m.findSlot(next)
	if s == nil {
		m.log.Debug("next subsequence not found", zap.Int("next", next))
		return false
	}
	if !s.decoder.IsDecoded() {
		m.log.Debug("next subsequence not decoded yet", zap.Int("next", next))
		return false
	}

	m.currentSubSequence = next
	window := make(map[int]bool, m.preLoad)
	for y := 0; y < m.preLoad; y++ {
		idx := m.currentSubSequence + y
		if idx > m.subSequenceCount {
			idx -= m.subSequenceCount
		}
		window[idx] = true
	}
	kept := m.active[:0]
	for _, s := range m.active {
		if window[s.index] {
			kept = append(kept, s)
		} else {
			m.log.Debug("evicting subsequence outside preload window", zap.Int("index", s.index))
		}
	}
	m.active = kept
	return true
}

// FetchFrame returns the deformed vertices for frame t of the current
// subsequence, or nil if the current subsequence has no active,
// decoded decoder yet — the caller should treat nil as "not ready", not
// as an error.
func (m *Manager) FetchFrame(t int) []r3.Vec {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.findSlot(m.currentSubSequence)
	if s == nil || !s.decoder.IsDecoded() {
		return nil
	}
	verts, err := s.decoder.FrameVertices(t)
	if err != nil {
		m.log.Error("FetchFrame failed", zap.Int("frame", t), zap.Error(err))
		return nil
	}
	return verts
}

// CurrentSubSequence returns the 1-based index of the subsequence
// currently selected for playback.
func (m *Manager) CurrentSubSequence() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentSubSequence
}

// SubSequenceCount returns the total number of subsequences discovered
// under the root directory.
func (m *Manager) SubSequenceCount() int {
	return m.subSequenceCount
}

// ActiveIndices returns the sorted-by-insertion indices of currently
// active (at least Loaded) subsequences.
func (m *Manager) ActiveIndices() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.active))
	for i, s := range m.active {
		out[i] = s.index
	}
	return out
}

// CurrentDecoderTotalFrames returns the current subsequence's frame
// count, or 0 if it has no active decoder.
func (m *Manager) CurrentDecoderTotalFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.findSlot(m.currentSubSequence)
	if s == nil {
		return 0
	}
	return s.decoder.FrameCount()
}

// CurrentDecoderVertexCount returns the current subsequence's vertex
// count, or 0 if it has no active decoder.
func (m *Manager) CurrentDecoderVertexCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.findSlot(m.currentSubSequence)
	if s == nil {
		return 0
	}
	return s.decoder.VertexCount()
}
