// Package tanks is the catalog of concrete reversible operations:
// clone, arithmetic, casting, categorical encoding, shape ops, string
// ops, datetime conversion and the boolean/reduce tank families. Every
// constructor attaches a new Tank to a Waterwork (explicit, or the
// active one) and binds its slots to the given arguments, mirroring
// original_source/reversible_transforms/tanks/tank_defs.py one kind at
// a time.
package tanks

import (
	"fmt"

	ww "github.com/CRSilkworth/waterworks"
)

// describe resolves the Descriptor an argument to a tank constructor
// will carry once bound: a *Tube or *Placeholder's own descriptor, or
// the descriptor waterworks.Infer would give a raw value. waterworks.Open
// describes as an array of unspecified dtype; tanks then take the dtype
// from the array that arrives at run time.
func describe(arg any) (ww.Descriptor, error) {
	if arg == ww.Open {
		return ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeNone}, nil
	}
	switch v := arg.(type) {
	case *ww.Tube:
		return v.Descriptor, nil
	case *ww.Placeholder:
		return v.Descriptor, nil
	default:
		val, err := ww.Infer(v)
		if err != nil {
			return ww.Descriptor{}, err
		}
		return val.Descriptor, nil
	}
}

// build constructs a tank of the given kind and binds each entry of
// args (slot key -> raw value/*Tube/*Placeholder/waterworks.Open) to
// its slot.
func build(
	w *ww.Waterwork,
	kind string,
	slotDescs map[string]ww.Descriptor,
	tubeDescs map[string]ww.Descriptor,
	args map[string]any,
	pour ww.PourFunc,
	pump ww.PumpFunc,
	opts ...ww.TankOption,
) (*ww.Tank, error) {
	t, err := ww.NewTank(w, kind, slotDescs, tubeDescs, pour, pump, opts...)
	if err != nil {
		return nil, err
	}
	for key, arg := range args {
		if err := t.Bind(key, arg); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func arrayOf(v ww.Value) (*ww.Array, error) {
	a, ok := v.Raw.(*ww.Array)
	if !ok {
		return nil, fmt.Errorf("waterworks/tanks: expected an array value, got %T", v.Raw)
	}
	return a, nil
}

func decideDtype(a, b ww.ValDtype) ww.ValDtype {
	if a == ww.DtypeFloat64 || b == ww.DtypeFloat64 {
		return ww.DtypeFloat64
	}
	if a == ww.DtypeInt64 || b == ww.DtypeInt64 {
		return ww.DtypeInt64
	}
	return a
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func fromDtype(dtype ww.ValDtype, f float64) any {
	if dtype == ww.DtypeInt64 {
		return int64(f)
	}
	return f
}

// broadcastPair expands a and b to their common broadcast shape.
func broadcastPair(a, b *ww.Array) (*ww.Array, *ww.Array, []int, error) {
	shape, err := ww.BroadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, nil, nil, err
	}
	ba, err := a.BroadcastTo(shape)
	if err != nil {
		return nil, nil, nil, err
	}
	bb, err := b.BroadcastTo(shape)
	if err != nil {
		return nil, nil, nil, err
	}
	return ba, bb, shape, nil
}

// shapeSmaller reports whether a's original shape is smaller (fewer
// elements) than the broadcast result shape, i.e. a needed expanding.
func shapeSmaller(orig, result []int) bool {
	return shapeLen(orig) < shapeLen(result)
}

func shapeLen(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func boolArray(shape []int, v bool) (*ww.Array, error) {
	data := make([]any, shapeLen(shape))
	for i := range data {
		data[i] = v
	}
	return ww.NewArray(shape, ww.DtypeBool, data)
}
