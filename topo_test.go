package waterworks

import "testing"

func identityTank(t *testing.T, w *Waterwork, name string) *Tank {
	t.Helper()
	d := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	tk, err := NewTank(w, "identity",
		map[string]Descriptor{"a": d},
		map[string]Descriptor{"target": d},
		func(ins map[string]Value) (map[string]Value, error) { return map[string]Value{"target": ins["a"]}, nil },
		func(outs map[string]Value) (map[string]Value, error) { return map[string]Value{"a": outs["target"]}, nil },
		WithName(name),
	)
	if err != nil {
		t.Fatalf("NewTank %s: %v", name, err)
	}
	return tk
}

func TestTopoSortDeterministicTieBreak(t *testing.T) {
	w := New("independent")
	c := identityTank(t, w, "c")
	a := identityTank(t, w, "a")
	b := identityTank(t, w, "b")
	for _, tk := range []*Tank{a, b, c} {
		if err := tk.Bind("a", Open); err != nil {
			t.Fatalf("Bind: %v", err)
		}
	}

	order, err := topoSort([]*Tank{c, a, b}, (*Tank).PourDependencies)
	if err != nil {
		t.Fatalf("topoSort: %v", err)
	}
	if len(order) != 3 || order[0].Name != a.Name || order[1].Name != b.Name || order[2].Name != c.Name {
		names := make([]string, len(order))
		for i, tk := range order {
			names[i] = tk.Name
		}
		t.Fatalf("expected lexicographic order [a b c] for mutually independent tanks, got %v", names)
	}
}

func TestTopoSortRespectsDependencies(t *testing.T) {
	w := New("chain")
	first := identityTank(t, w, "first")
	if err := first.Bind("a", Open); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	second := identityTank(t, w, "second")
	if err := second.Bind("a", first.Tubes["target"]); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	order, err := topoSort([]*Tank{second, first}, (*Tank).PourDependencies)
	if err != nil {
		t.Fatalf("topoSort: %v", err)
	}
	if order[0].Name != first.Name || order[1].Name != second.Name {
		t.Fatalf("expected [first second], got [%s %s]", order[0].Name, order[1].Name)
	}
}

func TestTopoSortDetectsCycle(t *testing.T) {
	w := New("cyclic")
	d := Descriptor{Type: ValTypeArray, Dtype: DtypeFloat64}
	a, err := NewTank(w, "identity",
		map[string]Descriptor{"a": d}, map[string]Descriptor{"target": d},
		func(ins map[string]Value) (map[string]Value, error) { return map[string]Value{"target": ins["a"]}, nil },
		func(outs map[string]Value) (map[string]Value, error) { return map[string]Value{"a": outs["target"]}, nil },
		WithName("a"),
	)
	if err != nil {
		t.Fatalf("NewTank a: %v", err)
	}
	b, err := NewTank(w, "identity",
		map[string]Descriptor{"a": d}, map[string]Descriptor{"target": d},
		func(ins map[string]Value) (map[string]Value, error) { return map[string]Value{"target": ins["a"]}, nil },
		func(outs map[string]Value) (map[string]Value, error) { return map[string]Value{"a": outs["target"]}, nil },
		WithName("b"),
	)
	if err != nil {
		t.Fatalf("NewTank b: %v", err)
	}
	// Manually wire a false cycle into the dependency function (the
	// engine itself can't construct one via connect, since Tubes only
	// ever feed forward) to exercise topoSort's own cycle detection.
	depsOf := func(t *Tank) []*Tank {
		if t == a {
			return []*Tank{b}
		}
		return []*Tank{a}
	}
	if _, err := topoSort([]*Tank{a, b}, depsOf); err == nil {
		t.Fatal("expected a CycleDetectedError")
	} else if _, ok := err.(*CycleDetectedError); !ok {
		t.Fatalf("expected *CycleDetectedError, got %T", err)
	}
}
