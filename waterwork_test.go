package waterworks

import "testing"

func arr(t *testing.T, shape []int, dtype ValDtype, data []any) *Array {
	t.Helper()
	a, err := NewArray(shape, dtype, data)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	return a
}

func newAddTank(t *testing.T, w *Waterwork) *Tank {
	t.Helper()
	descA := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	descB := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	target := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	tk, err := NewTank(w, "add",
		map[string]Descriptor{"a": descA, "b": descB},
		map[string]Descriptor{"target": target, "smaller_size_array": target, "a_is_smaller": {Type: ValTypeScalarBool}},
		func(ins map[string]Value) (map[string]Value, error) {
			aa, _ := ins["a"].Raw.(*Array)
			ba, _ := ins["b"].Raw.(*Array)
			data := make([]any, aa.Len())
			for i := range data {
				data[i] = aa.Data[i].(float64) + ba.Data[i].(float64)
			}
			out, _ := NewArray(aa.Shape, DtypeFloat64, data)
			return map[string]Value{
				"target":             ArrayVal(out),
				"smaller_size_array": ArrayVal(ba),
				"a_is_smaller":       Bool(false),
			}, nil
		},
		func(outs map[string]Value) (map[string]Value, error) {
			target, _ := outs["target"].Raw.(*Array)
			b, _ := outs["smaller_size_array"].Raw.(*Array)
			data := make([]any, target.Len())
			for i := range data {
				data[i] = target.Data[i].(float64) - b.Data[i].(float64)
			}
			a, _ := NewArray(target.Shape, DtypeFloat64, data)
			return map[string]Value{"a": ArrayVal(a), "b": outs["smaller_size_array"]}, nil
		},
		WithName("sum"),
	)
	if err != nil {
		t.Fatalf("NewTank: %v", err)
	}
	if err := tk.Bind("a", Open); err != nil {
		t.Fatalf("Bind a: %v", err)
	}
	if err := tk.Bind("b", Open); err != nil {
		t.Fatalf("Bind b: %v", err)
	}
	return tk
}

func TestPourPumpRoundTrip(t *testing.T) {
	w := New("sums")
	tk := newAddTank(t, w)

	a := arr(t, []int{2}, DtypeFloat64, []any{1.0, 2.0})
	b := arr(t, []int{2}, DtypeFloat64, []any{10.0, 20.0})

	outs, err := w.Pour(map[any]Value{
		tk.Slots["a"]: ArrayVal(a),
		tk.Slots["b"]: ArrayVal(b),
	}, KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	target, _ := outs[tk.Tubes["target"]].Raw.(*Array)
	if target.Data[0] != 11.0 || target.Data[1] != 22.0 {
		t.Fatalf("unexpected sum: %v", target.Data)
	}

	ins, err := w.Pump(outs, KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	gotA, _ := ins[tk.Slots["a"]].Raw.(*Array)
	gotB, _ := ins[tk.Slots["b"]].Raw.(*Array)
	if !gotA.Equal(a) || !gotB.Equal(b) {
		t.Fatalf("pump did not reconstruct inputs: a=%v b=%v", gotA, gotB)
	}
}

func TestPourMissingFunnel(t *testing.T) {
	w := New("sums")
	tk := newAddTank(t, w)
	a := arr(t, []int{2}, DtypeFloat64, []any{1.0, 2.0})

	_, err := w.Pour(map[any]Value{tk.Slots["a"]: ArrayVal(a)}, KeyModeObj)
	if err == nil {
		t.Fatal("expected an error for a missing funnel, got nil")
	}
	if _, ok := err.(*MissingInputError); !ok {
		t.Fatalf("expected *MissingInputError, got %T: %v", err, err)
	}
}

func TestDebugReversalCatchesBrokenPump(t *testing.T) {
	w := New("broken", WithDebugReversal(true))
	target := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	tk, err := NewTank(w, "broken_add",
		map[string]Descriptor{"a": target},
		map[string]Descriptor{"target": target},
		func(ins map[string]Value) (map[string]Value, error) {
			aa, _ := ins["a"].Raw.(*Array)
			data := make([]any, aa.Len())
			for i, v := range aa.Data {
				data[i] = v.(float64) * 2
			}
			out, _ := NewArray(aa.Shape, DtypeFloat64, data)
			return map[string]Value{"target": ArrayVal(out)}, nil
		},
		// Deliberately wrong inverse: forgets to divide by 2.
		func(outs map[string]Value) (map[string]Value, error) {
			return map[string]Value{"a": outs["target"]}, nil
		},
	)
	if err != nil {
		t.Fatalf("NewTank: %v", err)
	}
	if err := tk.Bind("a", Open); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	a := arr(t, []int{1}, DtypeFloat64, []any{3.0})
	_, err = w.Pour(map[any]Value{tk.Slots["a"]: ArrayVal(a)}, KeyModeObj)
	if err == nil {
		t.Fatal("expected a reversal violation, got nil")
	}
	if _, ok := err.(*ReversalViolationError); !ok {
		t.Fatalf("expected *ReversalViolationError, got %T: %v", err, err)
	}
}

func TestScopeEnterExitConflict(t *testing.T) {
	a := New("a")
	b := New("b")
	if err := a.Enter(); err != nil {
		t.Fatalf("a.Enter: %v", err)
	}
	defer a.Exit()

	if err := b.Enter(); err == nil {
		t.Fatal("expected a ScopeConflictError entering b while a is active")
	} else if _, ok := err.(*ScopeConflictError); !ok {
		t.Fatalf("expected *ScopeConflictError, got %T", err)
	}

	if err := b.Exit(); err == nil {
		t.Fatal("expected a ScopeConflictError exiting b, which was never active")
	}
}

func TestNameCollision(t *testing.T) {
	w := New("dup")
	target := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	pour := func(ins map[string]Value) (map[string]Value, error) { return map[string]Value{"target": ins["a"]}, nil }
	pump := func(outs map[string]Value) (map[string]Value, error) { return map[string]Value{"a": outs["target"]}, nil }

	if _, err := NewTank(w, "identity", map[string]Descriptor{"a": target}, map[string]Descriptor{"target": target}, pour, pump, WithName("dup")); err != nil {
		t.Fatalf("first NewTank: %v", err)
	}
	if _, err := NewTank(w, "identity", map[string]Descriptor{"a": target}, map[string]Descriptor{"target": target}, pour, pump, WithName("dup")); err == nil {
		t.Fatal("expected a NameCollisionError for the second tank named \"dup\"")
	} else if _, ok := err.(*NameCollisionError); !ok {
		t.Fatalf("expected *NameCollisionError, got %T", err)
	}
}
