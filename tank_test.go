package waterworks

import "testing"

func TestWithTypeOverrideChangesTubeDescriptor(t *testing.T) {
	w := New("override")
	d := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	override := Descriptor{Type: ValTypeArray, Dtype: DtypeInt64}

	tk, err := NewTank(w, "identity",
		map[string]Descriptor{"a": d},
		map[string]Descriptor{"target": d},
		func(ins map[string]Value) (map[string]Value, error) { return map[string]Value{"target": ins["a"]}, nil },
		func(outs map[string]Value) (map[string]Value, error) { return map[string]Value{"a": outs["target"]}, nil },
		WithTypeOverride("target", override),
	)
	if err != nil {
		t.Fatalf("NewTank: %v", err)
	}
	if tk.Tubes["target"].Descriptor.Dtype != DtypeInt64 {
		t.Fatalf("expected the override to take effect, got dtype %v", tk.Tubes["target"].Descriptor.Dtype)
	}
}

func TestBindRawValueCreatesPlaceholder(t *testing.T) {
	w := New("bind_raw")
	tk := identityTank(t, w, "const_fed")
	preBound := len(w.placeholders)

	in := arr(t, []int{1}, DtypeFloat64, []any{42.0})
	if err := tk.Bind("a", ArrayVal(in)); err != nil {
		t.Fatalf("Bind raw value: %v", err)
	}
	if len(w.placeholders) != preBound+1 {
		t.Fatalf("expected Bind to mint exactly one new placeholder, had %d now have %d", preBound, len(w.placeholders))
	}

	funnels := w.Funnels()
	if len(funnels) != 1 {
		t.Fatalf("expected exactly one funnel, got %d", len(funnels))
	}
	outs, err := w.Pour(map[any]Value{funnels[0]: ArrayVal(in)}, KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	got, _ := outs[tk.Tubes["target"]].Raw.(*Array)
	if !got.Equal(in) {
		t.Fatalf("expected the placeholder-fed identity tank to pass the value through: got %v, want %v", got, in)
	}
}

func TestBindPlaceholderConnectsTube(t *testing.T) {
	w := New("bind_placeholder")
	d := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	ph, err := NewPlaceholder(w, d, "fed")
	if err != nil {
		t.Fatalf("NewPlaceholder: %v", err)
	}
	tk := identityTank(t, w, "consumer")
	if err := tk.Bind("a", ph); err != nil {
		t.Fatalf("Bind placeholder: %v", err)
	}

	in := arr(t, []int{2}, DtypeFloat64, []any{1.0, 2.0})
	outs, err := w.Pour(map[any]Value{ph: ArrayVal(in)}, KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}
	got, _ := outs[tk.Tubes["target"]].Raw.(*Array)
	if !got.Equal(in) {
		t.Fatalf("expected placeholder-bound tank to pass the value through: got %v, want %v", got, in)
	}
}

func TestPumpReconstructsPlaceholderFunnel(t *testing.T) {
	w := New("pump_placeholder_funnel")
	d := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	ph, err := NewPlaceholder(w, d, "fed")
	if err != nil {
		t.Fatalf("NewPlaceholder: %v", err)
	}
	tk := identityTank(t, w, "consumer")
	if err := tk.Bind("a", ph); err != nil {
		t.Fatalf("Bind placeholder: %v", err)
	}

	in := arr(t, []int{2}, DtypeFloat64, []any{1.0, 2.0})
	outs, err := w.Pour(map[any]Value{ph: ArrayVal(in)}, KeyModeObj)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}

	ins, err := w.Pump(outs, KeyModeObj)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	got, ok := ins[ph]
	if !ok {
		t.Fatal("expected Pump's result to include the placeholder funnel")
	}
	gotArr, _ := got.Raw.(*Array)
	if !gotArr.Equal(in) {
		t.Fatalf("expected Pump to reconstruct the placeholder's value from the tank's pump output: got %v, want %v", gotArr, in)
	}
}

func TestBindTypeMismatchError(t *testing.T) {
	w := New("bind_mismatch")
	tk := identityTank(t, w, "strict")
	mismatched, err := NewPlaceholder(w, Descriptor{Type: ValTypeArray, Dtype: DtypeString}, "wrong_dtype")
	if err != nil {
		t.Fatalf("NewPlaceholder: %v", err)
	}
	if err := tk.Bind("a", mismatched); err == nil {
		t.Fatal("expected a TypeMismatchError binding a string placeholder to a float64 slot")
	} else if _, ok := err.(*TypeMismatchError); !ok {
		t.Fatalf("expected *TypeMismatchError, got %T", err)
	}
}
