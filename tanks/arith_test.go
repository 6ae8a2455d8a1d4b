package tanks

import (
	"testing"

	ww "github.com/CRSilkworth/waterworks"
)

func mkArr(t *testing.T, shape []int, dtype ww.ValDtype, data []any) *ww.Array {
	t.Helper()
	a, err := ww.NewArray(shape, dtype, data)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	return a
}

func TestDivWorkedExample(t *testing.T) {
	w := ww.New("div_example")
	a := mkArr(t, []int{2}, ww.DtypeFloat64, []any{7.0, 8.0})
	b := mkArr(t, []int{2}, ww.DtypeFloat64, []any{2.0, 3.0})

	tk, err := Div(w, ww.Open, ww.Open)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}

	outs, err := w.Pour(map[any]ww.Value{
		tk.Slots["a"]: ww.ArrayVal(a),
		tk.Slots["b"]: ww.ArrayVal(b),
	}, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}

	target, _ := outs[tk.Tubes["target"]].Raw.(*ww.Array)
	if target.Data[0] != 3.0 || target.Data[1] != 2.0 {
		t.Fatalf("expected target=[3,2], got %v", target.Data)
	}
	remainder, _ := outs[tk.Tubes["remainder"]].Raw.(*ww.Array)
	if remainder.Data[0] != 1.0 || remainder.Data[1] != 2.0 {
		t.Fatalf("expected remainder=[1,2], got %v", remainder.Data)
	}
	missing, _ := outs[tk.Tubes["missing_vals"]].Raw.(*ww.Array)
	for i, v := range missing.Data {
		if v.(float64) != 0 {
			t.Fatalf("expected missing_vals to be all zero (no zero divisors), index %d got %v", i, v)
		}
	}

	ins, err := w.Pump(outs, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	gotA, _ := ins[tk.Slots["a"]].Raw.(*ww.Array)
	gotB, _ := ins[tk.Slots["b"]].Raw.(*ww.Array)
	if !gotA.Equal(a) || !gotB.Equal(b) {
		t.Fatalf("pump did not reconstruct inputs: a=%v b=%v", gotA, gotB)
	}
}

func TestDivByZeroUsesMissingVals(t *testing.T) {
	w := ww.New("div_zero")
	a := mkArr(t, []int{2}, ww.DtypeFloat64, []any{5.0, 9.0})
	b := mkArr(t, []int{2}, ww.DtypeFloat64, []any{0.0, 3.0})

	tk, err := Div(w, ww.Open, ww.Open)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	outs, err := w.Pour(map[any]ww.Value{
		tk.Slots["a"]: ww.ArrayVal(a),
		tk.Slots["b"]: ww.ArrayVal(b),
	}, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	ins, err := w.Pump(outs, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	gotA, _ := ins[tk.Slots["a"]].Raw.(*ww.Array)
	gotB, _ := ins[tk.Slots["b"]].Raw.(*ww.Array)
	if !gotA.Equal(a) || !gotB.Equal(b) {
		t.Fatalf("pump did not reconstruct inputs across a zero divisor: a=%v b=%v", gotA, gotB)
	}
}

func TestAddBroadcastRoundTrip(t *testing.T) {
	w := ww.New("add_broadcast")
	a := mkArr(t, []int{2, 2}, ww.DtypeFloat64, []any{1.0, 2.0, 3.0, 4.0})
	b := mkArr(t, []int{1}, ww.DtypeFloat64, []any{10.0})

	tk, err := Add(w, ww.Open, ww.Open)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	outs, err := w.Pour(map[any]ww.Value{
		tk.Slots["a"]: ww.ArrayVal(a),
		tk.Slots["b"]: ww.ArrayVal(b),
	}, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	target, _ := outs[tk.Tubes["target"]].Raw.(*ww.Array)
	want := []float64{11, 12, 13, 14}
	for i, v := range want {
		if target.Data[i].(float64) != v {
			t.Fatalf("index %d: got %v, want %v", i, target.Data[i], v)
		}
	}

	ins, err := w.Pump(outs, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	gotA, _ := ins[tk.Slots["a"]].Raw.(*ww.Array)
	gotB, _ := ins[tk.Slots["b"]].Raw.(*ww.Array)
	if !gotA.Equal(a) || !gotB.Equal(b) {
		t.Fatalf("pump did not reconstruct broadcast inputs: a=%v b=%v", gotA, gotB)
	}
}

func TestMulZeroUsesMissingVals(t *testing.T) {
	w := ww.New("mul_zero")
	a := mkArr(t, []int{3}, ww.DtypeFloat64, []any{2.0, 0.0, 4.0})
	b := mkArr(t, []int{3}, ww.DtypeFloat64, []any{5.0, 7.0, 0.0})

	tk, err := Mul(w, ww.Open, ww.Open)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	outs, err := w.Pour(map[any]ww.Value{
		tk.Slots["a"]: ww.ArrayVal(a),
		tk.Slots["b"]: ww.ArrayVal(b),
	}, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	ins, err := w.Pump(outs, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	gotA, _ := ins[tk.Slots["a"]].Raw.(*ww.Array)
	gotB, _ := ins[tk.Slots["b"]].Raw.(*ww.Array)
	if !gotA.Equal(a) || !gotB.Equal(b) {
		t.Fatalf("pump did not reconstruct inputs when an operand is zero: a=%v b=%v", gotA, gotB)
	}
}
