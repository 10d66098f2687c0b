package tuicore

import (
	"math/rand"
	"testing"
)

func TestDiffDimensionMismatch(t *testing.T) {
	pool := NewGraphemePool()
	a := NewBuffer(5, 5, pool)
	b := NewBuffer(6, 5, pool)
	var bd BufferDiff
	if _, err := bd.Compute(a, b); err == nil {
		t.Error("Compute with mismatched dimensions should error")
	}
	if _, err := bd.ComputeDirty(a, b); err == nil {
		t.Error("ComputeDirty with mismatched dimensions should error")
	}
}

func TestDiffNoChangesIsEmpty(t *testing.T) {
	pool := NewGraphemePool()
	a := NewBuffer(10, 10, pool)
	b := NewBuffer(10, 10, pool)
	b.ClearDirty()
	var bd BufferDiff

	full, err := bd.Compute(a, b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(full) != 0 {
		t.Errorf("Compute of two identical buffers = %v, want empty", full)
	}
	dirty, err := bd.ComputeDirty(a, b)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}
	if len(dirty) != 0 {
		t.Errorf("ComputeDirty with nothing marked dirty = %v, want empty", dirty)
	}
}

// Compute and ComputeDirty must agree under adversarial, overlapping span
// boundaries, including the case where a row overflows into RowFull.
func TestDiffComputeAndComputeDirtyAgreeUnderAdversarialWrites(t *testing.T) {
	pool := NewGraphemePool()
	rnd := rand.New(rand.NewSource(42))
	const width, height = 23, 7

	old := NewBuffer(width, height, pool)
	newBuf := NewBuffer(width, height, pool)
	newBuf.ClearDirty()

	// Scatter enough overlapping single-cell and range writes that some
	// rows stay span-tracked and others overflow to RowFull.
	for i := 0; i < 200; i++ {
		x := rnd.Intn(width)
		y := rnd.Intn(height)
		r := byte('a' + rnd.Intn(26))
		newBuf.Set(x, y, NewCharCell(rune(r), DefaultStyle()))
	}

	var bd BufferDiff
	full, err := bd.Compute(old, newBuf)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	dirty, err := bd.ComputeDirty(old, newBuf)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}

	if len(full) != len(dirty) {
		t.Fatalf("Compute found %d ops, ComputeDirty found %d; must agree", len(full), len(dirty))
	}
	for i := range full {
		if full[i] != dirty[i] {
			t.Errorf("op %d differs: Compute=%+v ComputeDirty=%+v", i, full[i], dirty[i])
		}
	}
}

func TestSpansCoalesceContiguousOps(t *testing.T) {
	pool := NewGraphemePool()
	old := NewBuffer(10, 3, pool)
	newBuf := NewBuffer(10, 3, pool)
	newBuf.ClearDirty()
	// One contiguous run on row 0, a separated cell on the same row, and
	// a single cell on row 2.
	for x := 1; x <= 3; x++ {
		newBuf.Set(x, 0, NewCharCell('a', DefaultStyle()))
	}
	newBuf.Set(7, 0, NewCharCell('b', DefaultStyle()))
	newBuf.Set(5, 2, NewCharCell('c', DefaultStyle()))

	var bd BufferDiff
	ops, err := bd.ComputeDirty(old, newBuf)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}
	got := Spans(ops)
	want := []RowSpan{{Y: 0, X0: 1, X1: 3}, {Y: 0, X0: 7, X1: 7}, {Y: 2, X0: 5, X1: 5}}
	if len(got) != len(want) {
		t.Fatalf("Spans = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSpansSingleCellWriteMatchesExpectedTriple(t *testing.T) {
	pool := NewGraphemePool()
	old := NewBuffer(10, 10, pool)
	newBuf := NewBuffer(10, 10, pool)
	newBuf.ClearDirty()
	newBuf.Set(5, 5, NewCharCell('X', DefaultStyle().Foreground(White)))

	var bd BufferDiff
	ops, err := bd.ComputeDirty(old, newBuf)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}
	spans := Spans(ops)
	if len(spans) != 1 || spans[0] != (RowSpan{Y: 5, X0: 5, X1: 5}) {
		t.Errorf("Spans = %v, want [{5 5 5}]", spans)
	}
}

func TestDiffMaxWidthSingleRowLastColumn(t *testing.T) {
	pool := NewGraphemePool()
	const width = 2000 // stand-in for u16::MAX, sized for test speed
	old := NewBuffer(width, 1, pool)
	newBuf := NewBuffer(width, 1, pool)
	newBuf.ClearDirty()
	newBuf.Set(width-1, 0, NewCharCell('Z', DefaultStyle()))

	var bd BufferDiff
	full, err := bd.Compute(old, newBuf)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	dirty, err := bd.ComputeDirty(old, newBuf)
	if err != nil {
		t.Fatalf("ComputeDirty: %v", err)
	}
	if len(full) != 1 || len(dirty) != 1 {
		t.Fatalf("expected exactly one op from each, got %d and %d", len(full), len(dirty))
	}
	if full[0].X != width-1 || dirty[0].X != width-1 {
		t.Errorf("op column = %d / %d, want %d", full[0].X, dirty[0].X, width-1)
	}
}
