package tuicore

import "testing"

func TestInternASCIIFastPath(t *testing.T) {
	p := NewGraphemePool()
	id, err := p.Intern([]byte("a"))
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if !p.IsASCII(id) {
		t.Error("single ASCII byte should intern to the fast-path range")
	}
	if p.Len() != 0 {
		t.Errorf("ASCII intern should not grow the dynamic table, Len() = %d", p.Len())
	}
}

func TestInternStableAndIdempotent(t *testing.T) {
	p := NewGraphemePool()
	id1, err := p.InternString("é")
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	id2, err := p.InternString("é")
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if id1 != id2 {
		t.Errorf("interning the same bytes twice produced different ids: %d vs %d", id1, id2)
	}
}

func TestInternBytesRoundTrip(t *testing.T) {
	p := NewGraphemePool()
	id, err := p.InternString("界")
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	b, ok := p.Bytes(id)
	if !ok {
		t.Fatal("Bytes: id not found")
	}
	if string(b) != "界" {
		t.Errorf("Bytes = %q, want 界", b)
	}
}

func TestInternEmptyRejected(t *testing.T) {
	p := NewGraphemePool()
	if _, err := p.Intern(nil); err != ErrEmptyGrapheme {
		t.Errorf("Intern(nil) error = %v, want ErrEmptyGrapheme", err)
	}
}

func TestWidthASCIIAndWide(t *testing.T) {
	p := NewGraphemePool()
	asciiID, _ := p.InternString("a")
	wideID, _ := p.InternString("界")

	if w, ok := p.Width(asciiID); !ok || w != 1 {
		t.Errorf("Width(ascii) = %d,%v, want 1,true", w, ok)
	}
	if w, ok := p.Width(wideID); !ok || w != 2 {
		t.Errorf("Width(界) = %d,%v, want 2,true", w, ok)
	}
}

func TestWidthUnknownID(t *testing.T) {
	p := NewGraphemePool()
	if _, ok := p.Width(999999); ok {
		t.Error("Width should report false for an unknown id")
	}
	if _, ok := p.Width(0); ok {
		t.Error("Width(0) should report false; 0 is never a valid id")
	}
}

func TestClearDropsDynamicEntries(t *testing.T) {
	p := NewGraphemePool()
	p.InternString("界")
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", p.Len())
	}
}

func TestInternDistinctBytesDistinctIDs(t *testing.T) {
	p := NewGraphemePool()
	id1, _ := p.InternString("界")
	id2, _ := p.InternString("国")
	if id1 == id2 {
		t.Error("distinct clusters must not collide to the same id")
	}
}
