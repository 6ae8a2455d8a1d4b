package waterworks

import "fmt"

// newCloneTank builds a Clone tank that copies the value on tube's slot
// 'a' through a second tube 'b', so tube can be connected to a second
// consumer: the engine invariant that every tube feeds at most one slot
// otherwise holds everywhere else. connect() inserts one of these
// whenever a tube would be asked to feed a second slot.
func (ww *Waterwork) newCloneTank(tube *Tube) (*Tank, error) {
	d := tube.Descriptor
	pour := func(ins map[string]Value) (map[string]Value, error) {
		return map[string]Value{"a": ins["a"], "b": ins["a"]}, nil
	}
	pump := func(outs map[string]Value) (map[string]Value, error) {
		a, b := outs["a"], outs["b"]
		if !valuesEqual(a, b) {
			return nil, fmt.Errorf("waterworks: clone tank received mismatched copies on pump")
		}
		return map[string]Value{"a": a}, nil
	}
	return NewTank(ww, "clone",
		map[string]Descriptor{"a": d},
		map[string]Descriptor{"a": d, "b": d},
		pour, pump,
	)
}

// Clone explicitly builds a two-output clone tank for a, the same tank
// connect() inserts automatically on tube fanout. Most callers never
// need this directly; it's exposed for symmetry with the rest of the
// catalog (original_source/.../tank_defs.py's clone()).
func Clone(w *Waterwork, a any, opts ...TankOption) (*Tank, error) {
	d, err := func() (Descriptor, error) {
		switch v := a.(type) {
		case *Tube:
			return v.Descriptor, nil
		case *Placeholder:
			return v.Descriptor, nil
		default:
			val, err := Infer(v)
			if err != nil {
				return Descriptor{}, err
			}
			return val.Descriptor, nil
		}
	}()
	if err != nil {
		return nil, err
	}
	resolved, err := resolveWaterwork(w)
	if err != nil {
		return nil, err
	}
	pour := func(ins map[string]Value) (map[string]Value, error) {
		return map[string]Value{"a": ins["a"], "b": ins["a"]}, nil
	}
	pump := func(outs map[string]Value) (map[string]Value, error) {
		av, bv := outs["a"], outs["b"]
		if !valuesEqual(av, bv) {
			return nil, fmt.Errorf("waterworks: clone tank received mismatched copies on pump")
		}
		return map[string]Value{"a": av}, nil
	}
	t, err := NewTank(resolved, "clone",
		map[string]Descriptor{"a": d},
		map[string]Descriptor{"a": d, "b": d},
		pour, pump, opts...,
	)
	if err != nil {
		return nil, err
	}
	if err := t.Bind("a", a); err != nil {
		return nil, err
	}
	return t, nil
}
