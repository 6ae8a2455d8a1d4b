package tanks

import (
	"testing"

	ww "github.com/CRSilkworth/waterworks"
)

func TestReplaceRoundTrip(t *testing.T) {
	w := ww.New("replace")
	a := mkArr(t, []int{3}, ww.DtypeFloat64, []any{1.0, 2.0, 3.0})
	mask := mkArr(t, []int{3}, ww.DtypeBool, []any{false, true, false})
	replaceWith := mkArr(t, []int{1}, ww.DtypeFloat64, []any{99.0})

	tk, err := Replace(w, ww.Open, ww.Open, ww.Open)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	outs, err := w.Pour(map[any]ww.Value{
		tk.Slots["a"]:            ww.ArrayVal(a),
		tk.Slots["mask"]:         ww.ArrayVal(mask),
		tk.Slots["replace_with"]: ww.ArrayVal(replaceWith),
	}, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	target, _ := outs[tk.Tubes["target"]].Raw.(*ww.Array)
	if target.Data[0] != 1.0 || target.Data[1] != 99.0 || target.Data[2] != 3.0 {
		t.Fatalf("unexpected replacement: %v", target.Data)
	}

	ins, err := w.Pump(outs, ww.KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	got, _ := ins[tk.Slots["a"]].Raw.(*ww.Array)
	if !got.Equal(a) {
		t.Fatalf("pump did not restore the masked-out original: got %v, want %v", got, a)
	}
}
