package tuicore

import (
	"sort"

	"tuicore/internal/tlog"
)

// spanCapacity bounds how many distinct dirty spans one row tracks
// before the row is promoted to fully dirty.
const spanCapacity = 8

// Span is an inclusive column range [X0, X1] within one row.
type Span struct {
	X0, X1 int
}

// RowDirtyState classifies a row's dirty tracking state.
type RowDirtyState uint8

const (
	RowClean RowDirtyState = iota
	RowFull
	RowSpans
)

type rowDirty struct {
	full  bool
	spans []Span
}

// DirtySpanStats reports dirty-tracking pressure, used by tests and
// benchmarks to observe span-capacity overflow behavior.
type DirtySpanStats struct {
	MaxSpansInRow   int
	OverflowRows    int
	TotalDirtyCells int
}

// Buffer is a rectangular grid of Cells with per-row dirty-span tracking.
// It borrows a GraphemePool and must not outlive it. Cells are stored in
// row-major order; the dirty set is always a superset of the cells
// actually changed since the last ClearDirty, so a diff driven by it can
// over-scan but never miss a change.
type Buffer struct {
	width, height int
	cells         []Cell
	pool          *GraphemePool
	dirty         []rowDirty
	overflowRows  int
}

// NewBuffer creates a width x height buffer of Empty cells with default
// style, backed by pool for any interned grapheme content.
func NewBuffer(width, height int, pool *GraphemePool) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	b := &Buffer{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		pool:   pool,
		dirty:  make([]rowDirty, height),
	}
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
	return b
}

// Width returns the buffer width.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height.
func (b *Buffer) Height() int { return b.height }

// Size returns (width, height).
func (b *Buffer) Size() (int, int) { return b.width, b.height }

// Pool returns the grapheme pool this buffer was constructed with.
func (b *Buffer) Pool() *GraphemePool { return b.pool }

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

func (b *Buffer) index(x, y int) int { return y*b.width + x }

// At returns the cell at (x, y), or an OutOfBounds error if the
// coordinates lie outside the grid.
func (b *Buffer) At(x, y int) (Cell, error) {
	if !b.inBounds(x, y) {
		return Cell{}, newError("Buffer.At", ErrOutOfBounds, nil)
	}
	return b.cells[b.index(x, y)], nil
}

// Get is a convenience accessor returning EmptyCell for out-of-bounds
// coordinates instead of an error, useful in hot drawing loops that
// already clip against the buffer's own Size().
func (b *Buffer) Get(x, y int) Cell {
	if !b.inBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// SetRaw writes a cell without normalizing wide-pair integrity; the
// caller accepts responsibility for keeping Grapheme/Continuation pairs
// consistent. Out-of-bounds writes are a no-op.
func (b *Buffer) SetRaw(x, y int, c Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[b.index(x, y)] = c
	b.markDirty(y, x, x)
}

// breakPairAt clears a cell that is the Continuation half of a pair whose
// left half sits at x-1, or the left half of a pair whose right half sits
// at x+1 (when removing or overwriting one half of a wide cluster, the
// other half must not dangle).
func (b *Buffer) breakPairAt(x, y int) {
	if !b.inBounds(x, y) {
		return
	}
	idx := b.index(x, y)
	switch b.cells[idx].Kind {
	case ContentContinuation:
		if x > 0 {
			left := b.index(x-1, y)
			if b.cells[left].Kind == ContentGrapheme || b.cells[left].Kind == ContentChar {
				style := b.cells[left].Style
				b.cells[left] = Cell{Kind: ContentEmpty, Style: style}
				b.markDirty(y, x-1, x-1)
			}
		}
	case ContentGrapheme:
		if width, ok := b.pool.Width(b.cells[idx].GraphemeID); ok && width == 2 {
			if x+1 < b.width && b.cells[b.index(x+1, y)].Kind == ContentContinuation {
				b.cells[b.index(x+1, y)] = Cell{Kind: ContentEmpty, Style: b.cells[idx].Style}
				b.markDirty(y, x+1, x+1)
			}
		}
	}
}

// PutGrapheme places an interned cluster at (x, y). If the cluster is
// width 2, x+1 is marked Continuation; any neighbour pair broken by this
// write (e.g. the right half of a pre-existing pair at x-1, or the left
// half of a pair this write now overlaps) is cleared to Empty so the
// wide-pair invariant always holds. A width-2 cluster with no room for
// its right half truncates to a single-width '?' placeholder.
func (b *Buffer) PutGrapheme(x, y int, id uint32, style Style) {
	if !b.inBounds(x, y) {
		return
	}
	width, ok := b.pool.Width(id)
	if !ok {
		tlog.Warn("%s: buffer write at (%d,%d) referenced unknown grapheme id %d", ErrPoolMismatch, x, y, id)
		width = 1
	}

	b.breakPairAt(x, y)
	b.cells[b.index(x, y)] = NewGraphemeCell(id, style)
	b.markDirty(y, x, x)

	if width == 2 {
		if x+1 >= b.width {
			b.cells[b.index(x, y)] = NewCharCell('?', style)
			return
		}
		b.breakPairAt(x+1, y)
		b.cells[b.index(x+1, y)] = continuationCell(style)
		b.markDirty(y, x+1, x+1)
	}
}

// Set writes a single-scalar cell, clearing any wide pair it breaks.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.breakPairAt(x, y)
	if x+1 < b.width {
		right := b.index(x+1, y)
		if b.cells[right].Kind == ContentContinuation {
			cur := b.cells[b.index(x, y)]
			if cur.Kind == ContentGrapheme {
				if w, ok := b.pool.Width(cur.GraphemeID); ok && w == 2 {
					b.cells[right] = Cell{Kind: ContentEmpty, Style: cur.Style}
					b.markDirty(y, x+1, x+1)
				}
			}
		}
	}
	b.cells[b.index(x, y)] = c
	b.markDirty(y, x, x)
}

// Fill overwrites the intersection of rect with the grid. Wide pairs
// straddling the fill boundary are broken cleanly: the half left outside
// the rect is cleared rather than left dangling.
func (b *Buffer) Fill(rect Rect, c Cell) {
	area := rect.Intersect(Rect{X: 0, Y: 0, Width: uint16(b.width), Height: uint16(b.height)})
	if area.Empty() {
		return
	}
	for y := int(area.Y); y < int(area.Bottom()); y++ {
		b.breakPairAt(int(area.X), y)
		b.breakPairAt(int(area.Right())-1, y)
		row := y * b.width
		for x := int(area.X); x < int(area.Right()); x++ {
			b.cells[row+x] = c
		}
		b.markDirty(y, int(area.X), int(area.Right())-1)
	}
}

// Resize reallocates the grid to new dimensions, preserving the overlap
// with the previous contents and marking every row of the new grid fully
// dirty, so the frame after a resize always repaints completely.
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width == b.width && height == b.height {
		return
	}
	newCells := make([]Cell, width*height)
	empty := EmptyCell()
	for i := range newCells {
		newCells[i] = empty
	}
	ow, oh := b.width, b.height
	for y := 0; y < height && y < oh; y++ {
		for x := 0; x < width && x < ow; x++ {
			newCells[y*width+x] = b.cells[y*ow+x]
		}
	}
	b.cells = newCells
	b.width = width
	b.height = height
	b.dirty = make([]rowDirty, height)
	b.overflowRows = 0
	b.MarkAllDirty()
}

// ClearDirty marks every row clean; called before a frame begins.
func (b *Buffer) ClearDirty() {
	for i := range b.dirty {
		b.dirty[i] = rowDirty{}
	}
	b.overflowRows = 0
}

// MarkAllDirty promotes every row to RowFull.
func (b *Buffer) MarkAllDirty() {
	for i := range b.dirty {
		b.dirty[i] = rowDirty{full: true}
	}
}

// IsRowDirty reports whether row y has any recorded changes since the
// last ClearDirty.
func (b *Buffer) IsRowDirty(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	r := b.dirty[y]
	return r.full || len(r.spans) > 0
}

// RowSpans returns the dirty state of row y and, when RowSpans, the
// compacted list of (x0, x1) inclusive spans.
func (b *Buffer) RowSpans(y int) (RowDirtyState, []Span) {
	if y < 0 || y >= b.height {
		return RowClean, nil
	}
	r := b.dirty[y]
	if r.full {
		return RowFull, nil
	}
	if len(r.spans) == 0 {
		return RowClean, nil
	}
	return RowSpans, r.spans
}

// DirtySpanStats reports tracking pressure across the whole buffer.
func (b *Buffer) DirtySpanStats() DirtySpanStats {
	var stats DirtySpanStats
	for _, r := range b.dirty {
		if r.full {
			stats.TotalDirtyCells += b.width
			continue
		}
		if len(r.spans) > stats.MaxSpansInRow {
			stats.MaxSpansInRow = len(r.spans)
		}
		for _, s := range r.spans {
			stats.TotalDirtyCells += s.X1 - s.X0 + 1
		}
	}
	stats.OverflowRows = b.overflowRows
	return stats
}

// markDirty records that columns [x0, x1] of row y changed, merging into
// or inserting a bounded span. Once the Kth+1 span would be needed the
// row promotes to RowFull and further span inserts are no-ops (the full
// row already diffs as a single span spanning the whole row).
func (b *Buffer) markDirty(y, x0, x1 int) {
	if y < 0 || y >= b.height {
		return
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= b.width {
		x1 = b.width - 1
	}
	if x0 > x1 {
		return
	}

	row := &b.dirty[y]
	if row.full {
		return
	}

	row.spans = append(row.spans, Span{X0: x0, X1: x1})
	row.spans = compactSpans(row.spans)

	if len(row.spans) > spanCapacity {
		row.full = true
		row.spans = nil
		b.overflowRows++
		tlog.Warn("row %d: dirty spans exceeded capacity %d, promoted to full", y, spanCapacity)
	}
}

// compactSpans sorts and merges overlapping or adjacent spans.
func compactSpans(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].X0 < spans[j].X0 })
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.X0 <= last.X1+1 {
			if s.X1 > last.X1 {
				last.X1 = s.X1
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
