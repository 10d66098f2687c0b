package tuicore

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"unicode/utf8"
)

// TracePayloadKind tags what a trace record's payload represents.
type TracePayloadKind string

const (
	// PayloadFullBuffer means the payload file is a complete encoded
	// buffer for the frame.
	PayloadFullBuffer TracePayloadKind = "full_buffer_v1"
	// PayloadDiffRuns means the payload file holds only the frame's
	// change runs, to be applied over the previous frame's state.
	PayloadDiffRuns TracePayloadKind = "diff_runs_v1"
	// PayloadNone means the frame changed nothing; the record exists
	// solely to keep frame indices and checksums contiguous.
	PayloadNone TracePayloadKind = "none"
)

// TraceRecord is one line of a render trace: enough to either replay a
// frame byte-for-byte or verify an independently-produced buffer matches
// what was recorded, without needing the payload itself for the latter.
type TraceRecord struct {
	FrameIdx    int              `json:"frame_idx"`
	Cols        int              `json:"cols"`
	Rows        int              `json:"rows"`
	PayloadKind TracePayloadKind `json:"payload_kind"`
	PayloadPath string           `json:"payload_path,omitempty"`
	Checksum    uint64           `json:"checksum"`
}

// TraceWriter appends TraceRecords as JSON Lines, one record per frame.
type TraceWriter struct {
	w *bufio.Writer
}

// NewTraceWriter wraps w for JSONL trace output.
func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{w: bufio.NewWriter(w)}
}

// Write appends one record and flushes (traces are meant to survive a
// crash of the process being traced, so each line is durable on return).
func (t *TraceWriter) Write(rec TraceRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return newError("TraceWriter.Write", ErrWriteFailure, err)
	}
	if _, err := t.w.Write(b); err != nil {
		return newError("TraceWriter.Write", ErrWriteFailure, err)
	}
	if err := t.w.WriteByte('\n'); err != nil {
		return newError("TraceWriter.Write", ErrWriteFailure, err)
	}
	return t.w.Flush()
}

// ReadTrace parses every JSONL record from r in order.
func ReadTrace(r io.Reader) ([]TraceRecord, error) {
	dec := json.NewDecoder(r)
	var out []TraceRecord
	for dec.More() {
		var rec TraceRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, newError("ReadTrace", ErrWriteFailure, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Payload wire format, all integers little-endian.
//
// Both payload kinds open with a u16 width, u16 height header that must
// match the frame's dimensions. full_buffer_v1 follows with width*height
// cells in row-major order. diff_runs_v1 follows with a u32 run count,
// then per run a u16 y, u16 x0, u16 x1 (inclusive) and the run's
// x1-x0+1 cells left to right.
//
// A cell is: u8 content kind; for Char a u32 code point; for Grapheme a
// u16 byte length then the cluster bytes; Empty and Continuation carry
// no content. Then u32 fg, u32 bg, u32 attrs, u32 link id. This is the
// exact byte sequence ChecksumBuffer hashes, so a decoded payload always
// checksums to the same value the producer recorded.

const maxGraphemeWireLen = 4096

func encodeCell(w io.Writer, c Cell, pool *GraphemePool) {
	var tmp [4]byte
	putU16 := func(v uint16) {
		binary.LittleEndian.PutUint16(tmp[:2], v)
		w.Write(tmp[:2])
	}
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:4], v)
		w.Write(tmp[:4])
	}

	w.Write([]byte{byte(c.Kind)})
	switch c.Kind {
	case ContentChar:
		putU32(uint32(c.Char))
	case ContentGrapheme:
		b, ok := pool.Bytes(c.GraphemeID)
		if !ok {
			b = []byte("�")
		}
		putU16(uint16(len(b)))
		w.Write(b)
	}
	putU32(uint32(c.Style.FG))
	putU32(uint32(c.Style.BG))
	putU32(uint32(c.Style.Attr))
	putU32(c.Style.LinkID)
}

func encodeHeader(w io.Writer, buf *Buffer) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(buf.width))
	w.Write(tmp[:])
	binary.LittleEndian.PutUint16(tmp[:], uint16(buf.height))
	w.Write(tmp[:])
}

// EncodeFullBuffer serializes buf's entire grid as a full_buffer_v1
// payload.
func EncodeFullBuffer(buf *Buffer) []byte {
	var out bytes.Buffer
	out.Grow(4 + buf.width*buf.height*16)
	encodeHeader(&out, buf)
	for y := 0; y < buf.height; y++ {
		for x := 0; x < buf.width; x++ {
			encodeCell(&out, buf.Get(x, y), buf.pool)
		}
	}
	return out.Bytes()
}

// EncodeDiffRuns serializes the frame's changes as a diff_runs_v1
// payload: ops (the order Compute/ComputeDirty produce) are coalesced
// into runs, and each run's cells are read back from buf.
func EncodeDiffRuns(buf *Buffer, ops []DiffOp) []byte {
	runs := Spans(ops)
	var out bytes.Buffer
	encodeHeader(&out, buf)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(runs)))
	out.Write(tmp[:])
	for _, run := range runs {
		binary.LittleEndian.PutUint16(tmp[:2], uint16(run.Y))
		out.Write(tmp[:2])
		binary.LittleEndian.PutUint16(tmp[:2], uint16(run.X0))
		out.Write(tmp[:2])
		binary.LittleEndian.PutUint16(tmp[:2], uint16(run.X1))
		out.Write(tmp[:2])
		for x := run.X0; x <= run.X1; x++ {
			encodeCell(&out, buf.Get(x, run.Y), buf.pool)
		}
	}
	return out.Bytes()
}

type payloadReader struct {
	r *bytes.Reader
}

func (p *payloadReader) u8() (uint8, error) {
	return p.r.ReadByte()
}

func (p *payloadReader) u16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(p.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (p *payloadReader) u32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(p.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (p *payloadReader) cell(pool *GraphemePool) (Cell, error) {
	kind, err := p.u8()
	if err != nil {
		return Cell{}, err
	}
	var c Cell
	switch ContentKind(kind) {
	case ContentEmpty, ContentContinuation:
		c.Kind = ContentKind(kind)
	case ContentChar:
		cp, err := p.u32()
		if err != nil {
			return Cell{}, err
		}
		if !utf8.ValidRune(rune(cp)) {
			return Cell{}, fmt.Errorf("invalid char code point %d", cp)
		}
		c.Kind = ContentChar
		c.Char = rune(cp)
	case ContentGrapheme:
		n, err := p.u16()
		if err != nil {
			return Cell{}, err
		}
		if n == 0 || n > maxGraphemeWireLen {
			return Cell{}, fmt.Errorf("grapheme length %d out of range", n)
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(p.r, b); err != nil {
			return Cell{}, err
		}
		id, err := pool.Intern(b)
		if err != nil {
			return Cell{}, err
		}
		c.Kind = ContentGrapheme
		c.GraphemeID = id
	default:
		return Cell{}, fmt.Errorf("invalid content kind %d", kind)
	}
	fg, err := p.u32()
	if err != nil {
		return Cell{}, err
	}
	bg, err := p.u32()
	if err != nil {
		return Cell{}, err
	}
	attrs, err := p.u32()
	if err != nil {
		return Cell{}, err
	}
	link, err := p.u32()
	if err != nil {
		return Cell{}, err
	}
	c.Style = Style{FG: Color(fg), BG: Color(bg), Attr: Attribute(attrs), LinkID: link}
	return c, nil
}

func (p *payloadReader) header(buf *Buffer) error {
	w, err := p.u16()
	if err != nil {
		return err
	}
	h, err := p.u16()
	if err != nil {
		return err
	}
	if int(w) != buf.width || int(h) != buf.height {
		return newError("trace payload", ErrDimensionMismatch, nil)
	}
	return nil
}

func (p *payloadReader) expectEnd() error {
	if p.r.Len() != 0 {
		return errors.New("payload has trailing bytes")
	}
	return nil
}

// ApplyFullBuffer decodes a full_buffer_v1 payload into buf, overwriting
// every cell. The payload's dimensions must match buf's.
func ApplyFullBuffer(buf *Buffer, payload []byte) error {
	p := &payloadReader{r: bytes.NewReader(payload)}
	if err := p.header(buf); err != nil {
		return fmt.Errorf("tuicore: apply full buffer: %w", err)
	}
	for y := 0; y < buf.height; y++ {
		for x := 0; x < buf.width; x++ {
			c, err := p.cell(buf.pool)
			if err != nil {
				return fmt.Errorf("tuicore: apply full buffer at (%d,%d): %w", x, y, err)
			}
			buf.SetRaw(x, y, c)
		}
	}
	if err := p.expectEnd(); err != nil {
		return fmt.Errorf("tuicore: apply full buffer: %w", err)
	}
	return nil
}

// ApplyDiffRuns decodes a diff_runs_v1 payload into buf, overwriting
// only the recorded runs. The payload's dimensions must match buf's.
func ApplyDiffRuns(buf *Buffer, payload []byte) error {
	p := &payloadReader{r: bytes.NewReader(payload)}
	if err := p.header(buf); err != nil {
		return fmt.Errorf("tuicore: apply diff runs: %w", err)
	}
	runCount, err := p.u32()
	if err != nil {
		return fmt.Errorf("tuicore: apply diff runs: %w", err)
	}
	for i := uint32(0); i < runCount; i++ {
		y, err := p.u16()
		if err != nil {
			return fmt.Errorf("tuicore: apply diff runs: run %d: %w", i, err)
		}
		x0, err := p.u16()
		if err != nil {
			return fmt.Errorf("tuicore: apply diff runs: run %d: %w", i, err)
		}
		x1, err := p.u16()
		if err != nil {
			return fmt.Errorf("tuicore: apply diff runs: run %d: %w", i, err)
		}
		if x1 < x0 || int(y) >= buf.height || int(x1) >= buf.width {
			return fmt.Errorf("tuicore: apply diff runs: run %d out of bounds (y=%d x0=%d x1=%d)", i, y, x0, x1)
		}
		for x := int(x0); x <= int(x1); x++ {
			c, err := p.cell(buf.pool)
			if err != nil {
				return fmt.Errorf("tuicore: apply diff runs at (%d,%d): %w", x, y, err)
			}
			buf.SetRaw(x, int(y), c)
		}
	}
	if err := p.expectEnd(); err != nil {
		return fmt.Errorf("tuicore: apply diff runs: %w", err)
	}
	return nil
}

// ChecksumBuffer computes a deterministic FNV-1a checksum over buf's
// visible content: a u16 width/height header followed by every cell in
// row-major order, hashed in the exact wire encoding EncodeFullBuffer
// produces. Two buffers with the same dimensions and cell contents
// always checksum equal regardless of the history of writes that
// produced them (dirty tracking and pool internals are not part of the
// hash), and a buffer reconstructed by replaying payloads checksums
// equal to the one that recorded them.
func ChecksumBuffer(buf *Buffer) uint64 {
	h := fnv.New64a()
	encodeHeader(h, buf)
	for y := 0; y < buf.height; y++ {
		for x := 0; x < buf.width; x++ {
			encodeCell(h, buf.Get(x, y), buf.pool)
		}
	}
	return h.Sum64()
}
