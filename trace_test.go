package tuicore

import (
	"bytes"
	"testing"
)

func TestChecksumBufferDeterministic(t *testing.T) {
	pool := NewGraphemePool()
	a := NewBuffer(4, 4, pool)
	a.Set(1, 1, NewCharCell('x', DefaultStyle().Foreground(Red)))

	b := NewBuffer(4, 4, pool)
	b.Set(1, 1, NewCharCell('x', DefaultStyle().Foreground(Red)))

	if ChecksumBuffer(a) != ChecksumBuffer(b) {
		t.Error("two buffers with identical content should checksum equal")
	}
}

func TestChecksumBufferDiffersOnContentChange(t *testing.T) {
	pool := NewGraphemePool()
	a := NewBuffer(4, 4, pool)
	a.Set(1, 1, NewCharCell('x', DefaultStyle()))

	b := NewBuffer(4, 4, pool)
	b.Set(1, 1, NewCharCell('y', DefaultStyle()))

	if ChecksumBuffer(a) == ChecksumBuffer(b) {
		t.Error("buffers with different content should checksum differently")
	}
}

func TestChecksumBufferIgnoresDirtyTrackingHistory(t *testing.T) {
	pool := NewGraphemePool()
	a := NewBuffer(4, 4, pool)
	a.Set(0, 0, NewCharCell('x', DefaultStyle()))
	a.ClearDirty()

	b := NewBuffer(4, 4, pool)
	b.Set(0, 0, NewCharCell('x', DefaultStyle()))
	// b never had ClearDirty called: dirty-span history differs but
	// visible content is identical.

	if ChecksumBuffer(a) != ChecksumBuffer(b) {
		t.Error("checksum should depend only on visible content, not dirty-tracking state")
	}
}

func TestEncodeApplyFullBufferRoundTrip(t *testing.T) {
	pool := NewGraphemePool()
	src := NewBuffer(6, 3, pool)
	wide, _ := pool.InternString("界")
	src.Set(0, 0, NewCharCell('a', DefaultStyle().Foreground(Red).Bold()))
	src.PutGrapheme(2, 0, wide, DefaultStyle().Background(Blue))
	src.Set(4, 2, NewCharCell('z', DefaultStyle().Hyperlink(9)))

	payload := EncodeFullBuffer(src)

	// Replay into a buffer backed by a different pool: grapheme content
	// travels as bytes, not ids, so the pools need not match.
	replayPool := NewGraphemePool()
	dst := NewBuffer(6, 3, replayPool)
	if err := ApplyFullBuffer(dst, payload); err != nil {
		t.Fatalf("ApplyFullBuffer: %v", err)
	}

	if ChecksumBuffer(dst) != ChecksumBuffer(src) {
		t.Error("replayed buffer should checksum equal to the recorded one")
	}
}

func TestEncodeApplyDiffRunsRoundTrip(t *testing.T) {
	pool := NewGraphemePool()
	old := NewBuffer(10, 4, pool)
	newBuf := NewBuffer(10, 4, pool)
	newBuf.ClearDirty()
	for x := 2; x <= 5; x++ {
		newBuf.Set(x, 1, NewCharCell('x', DefaultStyle().Foreground(Green)))
	}
	newBuf.Set(8, 3, NewCharCell('y', DefaultStyle()))

	var bd BufferDiff
	ops, err := bd.ComputeDirty(old, newBuf)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}
	payload := EncodeDiffRuns(newBuf, ops)

	// Start the replay from the previous frame's state and apply only
	// the recorded runs.
	replay := NewBuffer(10, 4, pool)
	if err := ApplyDiffRuns(replay, payload); err != nil {
		t.Fatalf("ApplyDiffRuns: %v", err)
	}

	if ChecksumBuffer(replay) != ChecksumBuffer(newBuf) {
		t.Error("applying the diff runs over the old frame should reproduce the new one")
	}
}

func TestApplyFullBufferRejectsDimensionMismatch(t *testing.T) {
	pool := NewGraphemePool()
	src := NewBuffer(4, 4, pool)
	payload := EncodeFullBuffer(src)

	dst := NewBuffer(5, 4, pool)
	if err := ApplyFullBuffer(dst, payload); err == nil {
		t.Error("payload with mismatched dimensions should be rejected")
	}
}

func TestApplyDiffRunsRejectsTrailingBytes(t *testing.T) {
	pool := NewGraphemePool()
	buf := NewBuffer(4, 1, pool)
	buf.ClearDirty()
	buf.Set(1, 0, NewCharCell('q', DefaultStyle()))

	var bd BufferDiff
	ops, err := bd.ComputeDirty(NewBuffer(4, 1, pool), buf)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}
	payload := append(EncodeDiffRuns(buf, ops), 0xff)

	replay := NewBuffer(4, 1, pool)
	if err := ApplyDiffRuns(replay, payload); err == nil {
		t.Error("payload with trailing bytes should be rejected")
	}
}

func TestTraceWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewTraceWriter(&buf)

	recs := []TraceRecord{
		{FrameIdx: 0, Cols: 80, Rows: 24, PayloadKind: PayloadFullBuffer, PayloadPath: "f0.bin", Checksum: 111},
		{FrameIdx: 1, Cols: 80, Rows: 24, PayloadKind: PayloadDiffRuns, PayloadPath: "f1.bin", Checksum: 222},
	}
	for _, r := range recs {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	got, err := ReadTrace(&buf)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("ReadTrace returned %d records, want %d", len(got), len(recs))
	}
	for i := range recs {
		if got[i] != recs[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], recs[i])
		}
	}
}
