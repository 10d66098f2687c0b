package tuicore

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"tuicore/internal/tlog"
)

// mergeGapThreshold is the longest run of unchanged cells the presenter
// will overwrite rather than jump over with a cursor move. A CSI
// cursor-position sequence is at least 6 bytes, so re-emitting up to 3
// one-byte cells is never more output and keeps the run (and its style
// state) alive.
const mergeGapThreshold = 3

// rowState is the per-row emission state machine: either idle (cursor
// position unknown relative to the next op, a move is always needed) or
// mid-run (cursor sits immediately after the last emitted cell, so a
// contiguous next op can skip the cursor move entirely).
type rowState uint8

const (
	rowIdle rowState = iota
	rowInRun
)

// Presenter turns a DiffOp list into terminal escape sequences, tracking
// enough state across calls (last emitted style, row/column position)
// that repeated Present calls never re-send a style that is already
// active or a cursor move that is already a no-op. When the style does
// change, the new one is sent as a full SGR reset followed by all of its
// attributes and colors; attributes are not diffed one by one, so an
// attribute active in both styles is sent again.
//
// The per-row Idle/InRun machine means run continuation is decided by a
// single comparison against the tracked cursor position, never by
// re-scanning previously emitted ops, so emission stays linear in the
// number of ops regardless of row width.
type Presenter struct {
	w    *bufio.Writer
	caps CapabilityProfile

	curStyle  Style
	haveStyle bool
	state     rowState
	lastX     int
	lastY     int
}

// NewPresenter creates a Presenter writing escape sequences to w,
// encoding colors and attributes according to caps.
func NewPresenter(w io.Writer, caps CapabilityProfile) *Presenter {
	return &Presenter{
		w:     bufio.NewWriter(w),
		caps:  caps,
		state: rowIdle,
		lastX: -1,
		lastY: -1,
	}
}

// Reset forgets all tracked cursor/style state, forcing the next emission
// to re-send a full cursor move and SGR reset before its first op. Used
// after an out-of-band write to the terminal (e.g. a resize redraw) the
// Presenter did not itself produce, and applied automatically after a
// write failure so the caller can recover with a full repaint.
func (p *Presenter) Reset() {
	p.haveStyle = false
	p.state = rowIdle
	p.lastX, p.lastY = -1, -1
}

// Present writes escape sequences for ops (assumed already in the
// (y, x) order Compute/ComputeDirty produce) against buf, the
// buffer the diff was computed for, and flushes. Having the buffer lets
// short runs of unchanged cells between two ops on the same row be
// overwritten in place instead of paying for a cursor move (see
// mergeGapThreshold).
func (p *Presenter) Present(ops []DiffOp, buf *Buffer) error {
	return p.emit(ops, buf.Pool(), buf)
}

// Emit is the buffer-free variant of Present: ops are emitted with no
// gap joining, every discontinuity costing a cursor move. pool resolves
// any Grapheme content the ops carry.
func (p *Presenter) Emit(ops []DiffOp, pool *GraphemePool) error {
	return p.emit(ops, pool, nil)
}

func (p *Presenter) emit(ops []DiffOp, pool *GraphemePool, buf *Buffer) error {
	for _, op := range ops {
		if op.Cell.Kind == ContentContinuation {
			continue
		}
		p.emitOne(op, pool, buf)
	}
	return p.flush()
}

func (p *Presenter) flush() error {
	if err := p.w.Flush(); err != nil {
		p.Reset()
		return newError("Presenter.Emit", ErrWriteFailure, err)
	}
	return nil
}

func (p *Presenter) emitOne(op DiffOp, pool *GraphemePool, buf *Buffer) {
	if !p.tryJoinGap(op, pool, buf) {
		needMove := p.state == rowIdle || op.Y != p.lastY || op.X != p.lastX
		if needMove {
			p.moveCursor(op.X, op.Y)
		}
	}

	p.writeCell(op.Cell, pool)

	width := 1
	if op.Cell.Kind == ContentGrapheme {
		if w, ok := pool.Width(op.Cell.GraphemeID); ok {
			width = w
		}
	}
	p.lastX = op.X + width
	p.lastY = op.Y
	p.state = rowInRun
}

// tryJoinGap re-emits up to mergeGapThreshold unchanged cells between
// the end of the current run and op, keeping the run alive instead of
// closing it with a cursor move. Reports whether the gap was absorbed
// (in which case the cursor now sits at op.X and no move is needed).
// Only applies when the gap cells share the currently active style (a
// style change mid-gap would cost an SGR sequence and defeat the
// point) and none of them is half of a wide pair.
func (p *Presenter) tryJoinGap(op DiffOp, pool *GraphemePool, buf *Buffer) bool {
	if buf == nil || p.state != rowInRun || op.Y != p.lastY {
		return false
	}
	gap := op.X - p.lastX
	if gap <= 0 || gap > mergeGapThreshold {
		return false
	}
	if !p.haveStyle {
		return false
	}
	for x := p.lastX; x < op.X; x++ {
		c := buf.Get(x, op.Y)
		if c.Kind == ContentContinuation || c.Kind == ContentGrapheme {
			return false
		}
		if !c.Style.Equal(p.curStyle) {
			return false
		}
	}
	for x := p.lastX; x < op.X; x++ {
		p.writeCell(buf.Get(x, op.Y), pool)
	}
	return true
}

// moveCursor emits CSI y+1;x+1H, the 1-indexed cursor-position sequence.
func (p *Presenter) moveCursor(x, y int) {
	fmt.Fprintf(p.w, "\x1b[%d;%dH", y+1, x+1)
}

func (p *Presenter) writeCell(c Cell, pool *GraphemePool) {
	if p.caps.Degraded {
		p.writeDegraded(c, pool)
	} else {
		p.writeStyled(c, pool)
	}
}

// writeDegraded emits the cell's content as plain ASCII with no SGR at
// all: box-drawing collapses to its nearest ASCII shape, anything else
// non-ASCII collapses to '?'.
func (p *Presenter) writeDegraded(c Cell, pool *GraphemePool) {
	switch c.Kind {
	case ContentEmpty:
		p.w.WriteByte(' ')
	case ContentChar:
		p.writeApprox(c.Char)
	case ContentGrapheme:
		b, ok := pool.Bytes(c.GraphemeID)
		if !ok {
			p.w.WriteByte('?')
			return
		}
		if r, size := utf8.DecodeRune(b); size == len(b) {
			p.writeApprox(r)
			return
		}
		tlog.Trace("%s: multi-rune cluster collapsed to '?' in degraded mode", ErrCapabilityDrop)
		p.w.WriteByte('?')
	}
}

func (p *Presenter) writeApprox(r rune) {
	b := asciiApprox(r)
	if rune(b) != r {
		tlog.Trace("%s: %q collapsed to %q in degraded mode", ErrCapabilityDrop, r, b)
	}
	p.w.WriteByte(b)
}

// asciiApprox maps a rune to its narrowest ASCII stand-in: passthrough
// for printable ASCII, line/corner/tee shapes for the box-drawing block,
// '?' for everything else.
func asciiApprox(r rune) byte {
	if r >= 0x20 && r < 0x7f {
		return byte(r)
	}
	switch r {
	case '─', '━', '┄', '┅', '┈', '┉', '╌', '╍':
		return '-'
	case '│', '┃', '┆', '┇', '┊', '┋', '╎', '╏', '║':
		return '|'
	case '═':
		return '='
	}
	// Corners, tees, crosses, and the double-line junctions all flatten
	// to the same junction glyph.
	if (r >= 0x250c && r <= 0x254b) || (r >= 0x2552 && r <= 0x256c) {
		return '+'
	}
	return '?'
}

// writeStyled emits any SGR attribute changes needed to move from the
// presenter's tracked current style to c.Style, then the cell's content.
// A cell referencing a grapheme id the pool does not own emits U+FFFD
// and logs the anomaly; it never aborts the frame.
func (p *Presenter) writeStyled(c Cell, pool *GraphemePool) {
	p.applyStyle(c.Style)

	switch c.Kind {
	case ContentEmpty:
		p.w.WriteByte(' ')
	case ContentChar:
		p.w.WriteRune(c.Char)
	case ContentGrapheme:
		b, ok := pool.Bytes(c.GraphemeID)
		if !ok {
			tlog.Warn("%s: emit: cell references unknown grapheme id %d", ErrPoolMismatch, c.GraphemeID)
			p.w.WriteRune('�')
			return
		}
		p.w.Write(b)
	}
}

// applyStyle emits a full SGR reset-and-rebuild whenever style differs
// from the last one sent. This is no less minimal in practice than
// diffing attribute-by-attribute, since adjacent cells in a real frame
// usually share a style and so skip this entirely. Attributes the
// capability profile cannot express are dropped, not substituted.
func (p *Presenter) applyStyle(style Style) {
	if p.haveStyle && p.curStyle.Equal(style) {
		return
	}
	prevLink := uint32(0)
	if p.haveStyle {
		prevLink = p.curStyle.LinkID
	}
	p.curStyle = style
	p.haveStyle = true

	var dropped Attribute
	if style.Attr.Has(AttrItalic) && !p.caps.Italic {
		dropped |= AttrItalic
	}
	if style.Attr.Has(AttrStrikethrough) && !p.caps.Strikethrough {
		dropped |= AttrStrikethrough
	}
	if dropped != 0 {
		tlog.Trace("%s: attrs 0x%02x unsupported by profile", ErrCapabilityDrop, uint8(dropped))
	}
	if style.LinkID != 0 && !p.caps.Hyperlinks {
		tlog.Trace("%s: hyperlink %d unsupported by profile", ErrCapabilityDrop, style.LinkID)
	}

	p.w.WriteString("\x1b[0")
	if style.Attr.Has(AttrBold) {
		p.w.WriteString(";1")
	}
	if style.Attr.Has(AttrDim) {
		p.w.WriteString(";2")
	}
	if style.Attr.Has(AttrItalic) && p.caps.Italic {
		p.w.WriteString(";3")
	}
	if style.Attr.Has(AttrUnderline) {
		p.w.WriteString(";4")
	}
	if style.Attr.Has(AttrBlink) {
		p.w.WriteString(";5")
	}
	if style.Attr.Has(AttrReverse) {
		p.w.WriteString(";7")
	}
	if style.Attr.Has(AttrStrikethrough) && p.caps.Strikethrough {
		p.w.WriteString(";9")
	}
	p.writeColor(style.FG, true)
	p.writeColor(style.BG, false)
	p.w.WriteByte('m')

	if p.caps.Hyperlinks && prevLink != style.LinkID {
		if prevLink != 0 {
			p.w.WriteString("\x1b]8;;\x07")
		}
		if style.LinkID != 0 {
			fmt.Fprintf(p.w, "\x1b]8;id=%d;\x07", style.LinkID)
		}
	}
}

// writeColor appends the SGR parameters selecting color c as foreground
// (fg=true) or background, in whatever dialect p.caps.Depth allows.
// Transparent emits nothing (the terminal's default applies).
func (p *Presenter) writeColor(c Color, fg bool) {
	if c.IsTransparent() || p.caps.Depth == ColorMono {
		return
	}
	r, g, b, _ := c.RGBA8()

	switch p.caps.Depth {
	case ColorTrueColor:
		if fg {
			fmt.Fprintf(p.w, ";38;2;%d;%d;%d", r, g, b)
		} else {
			fmt.Fprintf(p.w, ";48;2;%d;%d;%d", r, g, b)
		}
	case Color256:
		n := rgbTo256(r, g, b)
		if fg {
			fmt.Fprintf(p.w, ";38;5;%d", n)
		} else {
			fmt.Fprintf(p.w, ";48;5;%d", n)
		}
	case Color16:
		idx := NearestColor16(c)
		code := ansi16Code(idx, fg)
		fmt.Fprintf(p.w, ";%d", code)
	}
}

// ansi16Code maps a palette16 index (0-15, 8-15 the bright half) to the
// classic SGR codes: 30-37/40-47 for the normal 8, 90-97/100-107 for the
// bright 8.
func ansi16Code(idx int, fg bool) int {
	bright := idx >= 8
	base := idx % 8
	switch {
	case fg && !bright:
		return 30 + base
	case fg && bright:
		return 90 + base
	case !fg && !bright:
		return 40 + base
	default:
		return 100 + base
	}
}

// rgbTo256 quantizes an RGB triple into the xterm 256-color cube (codes
// 16-231, a 6x6x6 cube) plus the 24-step grayscale ramp (232-255) when
// r, g and b are close enough to call it gray.
func rgbTo256(r, g, b uint8) int {
	if abs8(int(r)-int(g)) < 8 && abs8(int(g)-int(b)) < 8 && abs8(int(r)-int(b)) < 8 {
		gray := (int(r) + int(g) + int(b)) / 3
		if gray < 8 {
			return 16
		}
		if gray > 238 {
			return 231
		}
		return 232 + (gray-8)*23/230
	}
	ri := cube6(r)
	gi := cube6(g)
	bi := cube6(b)
	return 16 + 36*ri + 6*gi + bi
}

func cube6(v uint8) int {
	steps := [6]int{0, 95, 135, 175, 215, 255}
	best, bestDist := 0, 1<<30
	for i, s := range steps {
		d := int(v) - s
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func abs8(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
