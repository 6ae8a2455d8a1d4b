package graphdebug

import (
	"errors"
	"testing"

	ww "github.com/CRSilkworth/waterworks"
)

func TestHookRecordsTankError(t *testing.T) {
	hook := New(NewSilentHandler())
	w := ww.New("failing", ww.WithHook(hook))

	d := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeFloat64}
	failErr := errors.New("boom")
	tk, err := ww.NewTank(w, "always_fails",
		map[string]ww.Descriptor{"a": d},
		map[string]ww.Descriptor{"target": d},
		func(ins map[string]ww.Value) (map[string]ww.Value, error) { return nil, failErr },
		func(outs map[string]ww.Value) (map[string]ww.Value, error) { return map[string]ww.Value{"a": outs["target"]}, nil },
	)
	if err != nil {
		t.Fatalf("NewTank: %v", err)
	}
	if err := tk.Bind("a", ww.Open); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	a, err := ww.NewArray([]int{1}, ww.DtypeFloat64, []any{1.0})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	_, err = w.Pour(map[any]ww.Value{tk.Slots["a"]: ww.ArrayVal(a)}, ww.KeyModeObj)
	if err == nil {
		t.Fatal("expected the pour to fail")
	}

	if _, ok := hook.failed[tk]; !ok {
		t.Fatal("expected the hook to record the failing tank")
	}
}

func TestHookFormatsDependencyOrder(t *testing.T) {
	hook := New(NewSilentHandler())
	w := ww.New("chain")
	d := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeFloat64}
	identity := func(ins map[string]ww.Value) (map[string]ww.Value, error) { return map[string]ww.Value{"target": ins["a"]}, nil }
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) { return map[string]ww.Value{"a": outs["target"]}, nil }

	first, err := ww.NewTank(w, "identity", map[string]ww.Descriptor{"a": d}, map[string]ww.Descriptor{"target": d}, identity, pump, ww.WithName("first"))
	if err != nil {
		t.Fatalf("NewTank first: %v", err)
	}
	if err := first.Bind("a", ww.Open); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	second, err := ww.NewTank(w, "identity", map[string]ww.Descriptor{"a": d}, map[string]ww.Descriptor{"target": d}, identity, pump, ww.WithName("second"))
	if err != nil {
		t.Fatalf("NewTank second: %v", err)
	}
	if err := second.Bind("a", first.Tubes["target"]); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	order := []*ww.Tank{first, second}
	out := hook.formatOrder(order, second, errors.New("boom"), "pour")
	if out == "" {
		t.Fatal("expected a non-empty rendered order")
	}
}
