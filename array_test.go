package waterworks

import "testing"

func TestBroadcastShapesTrailing(t *testing.T) {
	shape, err := BroadcastShapes([]int{3, 1}, []int{4})
	if err != nil {
		t.Fatalf("BroadcastShapes: %v", err)
	}
	want := []int{3, 4}
	if len(shape) != len(want) || shape[0] != want[0] || shape[1] != want[1] {
		t.Fatalf("got %v, want %v", shape, want)
	}
}

func TestBroadcastToExpandsScalar(t *testing.T) {
	scalar := NewScalar(DtypeFloat64, 7.0)
	out, err := scalar.BroadcastTo([]int{3})
	if err != nil {
		t.Fatalf("BroadcastTo: %v", err)
	}
	for i, v := range out.Data {
		if v.(float64) != 7.0 {
			t.Fatalf("index %d: got %v, want 7.0", i, v)
		}
	}
}

func TestTransposeRoundTrip(t *testing.T) {
	a, err := NewArray([]int{2, 3}, DtypeInt64, []any{
		int64(1), int64(2), int64(3),
		int64(4), int64(5), int64(6),
	})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	transposed, err := a.Transpose([]int{1, 0})
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	back, err := transposed.Transpose([]int{1, 0})
	if err != nil {
		t.Fatalf("Transpose back: %v", err)
	}
	if !back.Equal(a) {
		t.Fatalf("double transpose did not round trip: got %v, want %v", back, a)
	}
}

func TestConcatenateSplitRoundTrip(t *testing.T) {
	a, _ := NewArray([]int{2}, DtypeInt64, []any{int64(1), int64(2)})
	b, _ := NewArray([]int{3}, DtypeInt64, []any{int64(3), int64(4), int64(5)})

	joined, err := Concatenate([]*Array{a, b}, 0)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	pieces, err := Split(joined, 0, []int{2, 3})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !pieces[0].Equal(a) || !pieces[1].Equal(b) {
		t.Fatalf("split did not reconstruct originals: got %v, %v", pieces[0], pieces[1])
	}
}

func TestArrayEqualHandlesNaT(t *testing.T) {
	a, _ := NewArray([]int{1}, DtypeDatetime, []any{Datetime{IsNaT: true}})
	b, _ := NewArray([]int{1}, DtypeDatetime, []any{Datetime{IsNaT: true}})
	if !a.Equal(b) {
		t.Fatal("two NaT arrays should be equal")
	}
}
