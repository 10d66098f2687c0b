package tuicore

import (
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ErrEmptyGrapheme is returned by Intern for a zero-length byte sequence.
var ErrEmptyGrapheme = errors.New("tuicore: cannot intern an empty grapheme cluster")

const (
	// asciiBase is the first id in the reserved ASCII range: a
	// single-byte cluster b interns to asciiBase+uint32(b) without
	// touching the hash table at all, which also keeps id 0 permanently
	// invalid.
	asciiBase   uint32 = 1
	asciiCount  uint32 = 128
	dynamicBase        = asciiBase + asciiCount
)

type graphemeEntry struct {
	bytes []byte
	width uint8
}

// GraphemePool is an append-only interning table mapping grapheme-cluster
// byte sequences to stable, non-zero 32-bit ids. It is the sole owner of
// the bytes it stores; a Buffer referencing a pool's ids must not outlive
// the pool (see Buffer's ownership note). Width is computed once at
// intern time and cached per id.
type GraphemePool struct {
	mu      sync.RWMutex
	byBytes map[string]uint32
	entries []graphemeEntry
}

// NewGraphemePool creates an empty pool.
func NewGraphemePool() *GraphemePool {
	return &GraphemePool{
		byBytes: make(map[string]uint32),
	}
}

// Intern returns the stable id for the given grapheme-cluster bytes,
// interning it if this is the first time the pool has seen it. Identical
// byte sequences always produce equal ids within a pool, independent of
// call order.
func (p *GraphemePool) Intern(b []byte) (uint32, error) {
	if len(b) == 0 {
		return 0, ErrEmptyGrapheme
	}
	if len(b) == 1 && b[0] < 128 {
		return asciiBase + uint32(b[0]), nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := string(b)
	if id, ok := p.byBytes[key]; ok {
		return id, nil
	}

	width := clusterWidth(b)
	id := dynamicBase + uint32(len(p.entries))
	stored := make([]byte, len(b))
	copy(stored, b)
	p.entries = append(p.entries, graphemeEntry{bytes: stored, width: width})
	p.byBytes[key] = id
	return id, nil
}

// InternString is a convenience wrapper around Intern for string input.
func (p *GraphemePool) InternString(s string) (uint32, error) {
	return p.Intern([]byte(s))
}

// clusterWidth computes the terminal column width (0, 1 or 2) of a
// single grapheme cluster. A cluster that turns out to be exactly one
// rune (the overwhelming majority of non-ASCII input: accented Latin,
// CJK, box-drawing) takes go-runewidth's single-rune table directly; a
// true multi-rune cluster (emoji ZWJ sequences, combining marks stacked
// on a base) falls back to uniseg's full grapheme-aware width
// algorithm, which runewidth does not attempt.
func clusterWidth(b []byte) uint8 {
	if r, size := utf8.DecodeRune(b); size == len(b) {
		return uint8(runewidth.RuneWidth(r))
	}
	w := uniseg.StringWidth(string(b))
	if w < 0 {
		return 0
	}
	if w > 2 {
		return 2
	}
	return uint8(w)
}

// Bytes returns the original bytes for id, and whether id is known to
// this pool.
func (p *GraphemePool) Bytes(id uint32) ([]byte, bool) {
	if id == 0 {
		return nil, false
	}
	if id < dynamicBase {
		if id < asciiBase || id >= dynamicBase {
			return nil, false
		}
		return []byte{byte(id - asciiBase)}, true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := id - dynamicBase
	if int(idx) >= len(p.entries) {
		return nil, false
	}
	return p.entries[idx].bytes, true
}

// Width returns the display column width (0, 1 or 2) of id, and whether
// id is known to this pool.
func (p *GraphemePool) Width(id uint32) (int, bool) {
	if id == 0 {
		return 0, false
	}
	if id < dynamicBase {
		if id < asciiBase {
			return 0, false
		}
		return 1, true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := id - dynamicBase
	if int(idx) >= len(p.entries) {
		return 0, false
	}
	return int(p.entries[idx].width), true
}

// IsASCII reports whether id falls in the reserved single-byte-ASCII
// range, the fast path that bypasses hash lookup entirely.
func (p *GraphemePool) IsASCII(id uint32) bool {
	return id >= asciiBase && id < dynamicBase
}

// Len returns the number of distinct non-ASCII clusters interned so far.
func (p *GraphemePool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Clear discards all interned clusters. The caller is responsible for
// ensuring no live Buffer still references ids from this pool; Clear does
// not and cannot verify that itself.
func (p *GraphemePool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byBytes = make(map[string]uint32)
	p.entries = p.entries[:0]
}
