package history

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/testing/testdata"
)

// maps returns n distinct maps, each one pixel larger than the last.
func maps(t *testing.T, n int) []*fog.Map {
	t.Helper()
	out := make([]*fog.Map, n)
	m := fog.Empty()
	for i := range out {
		p := testdata.Pixel(412, 229, 0, 0, i%64, i/64)
		var err error
		m, err = testdata.DrawSegments(m, testdata.Segment{p, p})
		if err != nil {
			t.Fatal(err)
		}
		out[i] = m
	}
	return out
}

func region(i int) orb.Bound {
	f := float64(i)
	return orb.Bound{Min: orb.Point{f, f}, Max: orb.Point{f + 1, f + 1}}
}

func TestInitialState(t *testing.T) {
	h := New(fog.Empty(), 0)
	if h.Len() != 1 || h.Pos() != 0 {
		t.Errorf("len %d pos %d", h.Len(), h.Pos())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("fresh history should not undo or redo")
	}
	if m, _, ok := h.Undo(); ok || m != fog.Empty() {
		t.Error("undo at start should be refused")
	}
	if _, _, ok := h.Redo(); ok {
		t.Error("redo at start should be refused")
	}
}

func TestUndoRedoRegions(t *testing.T) {
	ms := maps(t, 3)
	h := New(fog.Empty(), params.MaxHistorySize)
	for i, m := range ms {
		h.Append(m, region(i))
	}
	if h.Pos() != 3 || h.Current() != ms[2] {
		t.Fatalf("pos %d", h.Pos())
	}

	m, r, ok := h.Undo()
	if !ok || m != ms[1] || r != region(2) {
		t.Errorf("undo should return the previous map and the left entry's region: %v", r)
	}
	m, r, ok = h.Redo()
	if !ok || m != ms[2] || r != region(2) {
		t.Errorf("redo should return the entered entry's region: %v", r)
	}
	if h.CanRedo() {
		t.Error("nothing left to redo")
	}

	// Appending after an undo drops the redoable tail.
	h.Undo()
	h.Undo()
	other := maps(t, 5)[4]
	h.Append(other, region(9))
	if h.Len() != 3 || h.CanRedo() || h.Current() != other {
		t.Errorf("len %d canRedo %v", h.Len(), h.CanRedo())
	}
	m, _, _ = h.Undo()
	if m != ms[0] {
		t.Error("undo after truncating append should land on the kept entry")
	}
}

func TestBoundedOverflow(t *testing.T) {
	const k = 7
	ms := maps(t, params.MaxHistorySize+k)
	h := New(fog.Empty(), params.MaxHistorySize)
	for i, m := range ms {
		h.Append(m, region(i))
		if h.Len() > params.MaxHistorySize {
			t.Fatalf("append %d: len %d exceeds max", i, h.Len())
		}
		if h.Pos() != h.Len()-1 || h.Current() != m {
			t.Fatalf("append %d: newest entry is not current", i)
		}
	}

	for i := 0; i < params.MaxHistorySize-1; i++ {
		if _, _, ok := h.Undo(); !ok {
			t.Fatalf("undo %d refused", i)
		}
	}
	if h.CanUndo() {
		t.Error("should be at the oldest retained entry")
	}
	oldest := ms[len(ms)-params.MaxHistorySize]
	if h.Current() != oldest {
		t.Error("oldest retained entry is not current")
	}
	if h.Current().IsEmpty() {
		t.Error("the initial empty map should have been evicted")
	}
}
