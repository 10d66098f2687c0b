package tuicore

// DiffOp is one instruction in the render diff: "put this cell at this
// position." The presenter turns a run of same-row, contiguous DiffOps
// into a single cursor-move-plus-run rather than replaying them one cell
// at a time.
type DiffOp struct {
	X, Y int
	Cell Cell
}

// RowSpan is one row's contiguous run of changed cells, X1 inclusive.
type RowSpan struct {
	Y, X0, X1 int
}

// Spans coalesces an ordered op list (the order Compute/ComputeDirty
// produce) into per-row inclusive column runs: contiguous differences
// join into one span, a gap of unchanged cells closes the current span.
func Spans(ops []DiffOp) []RowSpan {
	var out []RowSpan
	for _, op := range ops {
		if n := len(out); n > 0 && out[n-1].Y == op.Y && out[n-1].X1+1 == op.X {
			out[n-1].X1 = op.X
			continue
		}
		out = append(out, RowSpan{Y: op.Y, X0: op.X, X1: op.X})
	}
	return out
}

// BufferDiff computes the minimal set of cell writes needed to turn an
// old Buffer into a new one, either by comparing every cell (Compute) or
// by trusting the new buffer's own dirty-span bookkeeping (ComputeDirty).
// The two must agree on any pair of buffers the dirty tracking is
// consistent for, which diff_test.go checks under adversarial overlapping
// writes.
type BufferDiff struct{}

// Compute performs a full old-vs-new cell comparison, ignoring dirty
// tracking entirely. Returns ErrDimensionMismatch if old and new differ
// in size.
func (BufferDiff) Compute(oldBuf, newBuf *Buffer) ([]DiffOp, error) {
	if oldBuf.width != newBuf.width || oldBuf.height != newBuf.height {
		return nil, newError("BufferDiff.Compute", ErrDimensionMismatch, nil)
	}
	var ops []DiffOp
	for y := 0; y < newBuf.height; y++ {
		for x := 0; x < newBuf.width; x++ {
			oc := oldBuf.Get(x, y)
			nc := newBuf.Get(x, y)
			if !oc.Equal(nc) {
				ops = append(ops, DiffOp{X: x, Y: y, Cell: nc})
			}
		}
	}
	return ops, nil
}

// ComputeDirty walks only the rows/spans newBuf's dirty tracking marked
// since the last ClearDirty, re-comparing cell-by-cell within those
// spans. A span can contain unchanged cells, e.g. from two overlapping
// writes to the same region, so it still compares rather than blindly
// emitting the whole span. Returns ErrDimensionMismatch if old and new
// differ in size.
func (BufferDiff) ComputeDirty(oldBuf, newBuf *Buffer) ([]DiffOp, error) {
	if oldBuf.width != newBuf.width || oldBuf.height != newBuf.height {
		return nil, newError("BufferDiff.ComputeDirty", ErrDimensionMismatch, nil)
	}
	var ops []DiffOp
	for y := 0; y < newBuf.height; y++ {
		state, spans := newBuf.RowSpans(y)
		switch state {
		case RowClean:
			continue
		case RowFull:
			for x := 0; x < newBuf.width; x++ {
				oc := oldBuf.Get(x, y)
				nc := newBuf.Get(x, y)
				if !oc.Equal(nc) {
					ops = append(ops, DiffOp{X: x, Y: y, Cell: nc})
				}
			}
		case RowSpans:
			for _, sp := range spans {
				for x := sp.X0; x <= sp.X1; x++ {
					oc := oldBuf.Get(x, y)
					nc := newBuf.Get(x, y)
					if !oc.Equal(nc) {
						ops = append(ops, DiffOp{X: x, Y: y, Cell: nc})
					}
				}
			}
		}
	}
	return ops, nil
}
