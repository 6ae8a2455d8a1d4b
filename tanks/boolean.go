package tanks

import (
	ww "github.com/CRSilkworth/waterworks"
)

// LogicalNot builds a tank negating a bool array. Negation is its own
// inverse, so no auxiliary tube is needed for exact reversal.
func LogicalNot(w *ww.Waterwork, a any, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	if da.Type == ww.ValTypeArray && da.Dtype != ww.DtypeBool && da.Dtype != ww.DtypeNone {
		return nil, &ww.TypeMismatchError{Where: "logical_not.a", Want: ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeBool}, Got: da}
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeBool}
	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		out, err := arr.MapElements(ww.DtypeBool, func(v any) (any, error) {
			b, _ := v.(bool)
			return !b, nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(out)}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		out, err := arr.MapElements(ww.DtypeBool, func(v any) (any, error) {
			b, _ := v.(bool)
			return !b, nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"a": ww.ArrayVal(out)}, nil
	}
	return build(w, "logical_not",
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}

// BoolFn1 is a single-array element predicate (isnan, isnat, ...).
type BoolFn1 func(v any) bool

// BoolFn2 is a pairwise element predicate (equal, greater, ...).
type BoolFn2 func(x, y any) bool

// NewBooleanTank1 builds the family of tanks testing one element-wise
// predicate over a (isnan, isnat). The predicate is inherently lossy
// (the original value can't be recovered from a single bool), so the
// tank carries the full original array in an "orig" tube purely to let
// pump restore it exactly — see DESIGN.md's Open Question decision on
// boolean/reduce tank reversibility. This mirrors the Python original's
// create_one_arg_bool_tank metaclass-style generator
// (original_source/.../tank_defs.py) using a Go closure instead.
func NewBooleanTank1(w *ww.Waterwork, kind string, a any, fn BoolFn1, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeBool}
	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		out, err := arr.MapElements(ww.DtypeBool, func(v any) (any, error) { return fn(v), nil })
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(out), "orig": ww.ArrayVal(arr.Clone())}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		return map[string]ww.Value{"a": outs["orig"]}, nil
	}
	return build(w, kind,
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target, "orig": da},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}

// NewBooleanTank2 builds the family of tanks testing one element-wise
// pairwise predicate over a, b (equal, greater, ...), broadcasting as
// add/sub/mul/div do. See NewBooleanTank1 for why orig_a/orig_b exist.
func NewBooleanTank2(w *ww.Waterwork, kind string, a, b any, fn BoolFn2, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	db, err := describe(b)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeBool}
	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		aa, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		ba, err := arrayOf(ins["b"])
		if err != nil {
			return nil, err
		}
		ea, eb, shape, err := broadcastPair(aa, ba)
		if err != nil {
			return nil, err
		}
		data := make([]any, shapeLen(shape))
		for i := range data {
			data[i] = fn(ea.Data[i], eb.Data[i])
		}
		targetArr, err := ww.NewArray(shape, ww.DtypeBool, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{
			"target": ww.ArrayVal(targetArr),
			"orig_a": ww.ArrayVal(aa.Clone()),
			"orig_b": ww.ArrayVal(ba.Clone()),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		return map[string]ww.Value{"a": outs["orig_a"], "b": outs["orig_b"]}, nil
	}
	return build(w, kind,
		map[string]ww.Descriptor{"a": da, "b": db},
		map[string]ww.Descriptor{"target": target, "orig_a": da, "orig_b": db},
		map[string]any{"a": a, "b": b},
		pour, pump, opts...,
	)
}

func numEqual(x, y any) bool { return toFloat(x) == toFloat(y) }

// IsNan builds a tank flagging float64 NaN elements.
func IsNan(w *ww.Waterwork, a any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank1(w, "isnan", a, func(v any) bool { f, ok := v.(float64); return ok && f != f }, opts...)
}

// IsNat builds a tank flagging NaT datetime elements.
func IsNat(w *ww.Waterwork, a any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank1(w, "isnat", a, func(v any) bool { d, ok := v.(ww.Datetime); return ok && d.IsNaT }, opts...)
}

// Equal builds a tank computing elementwise a == b.
func Equal(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank2(w, "equal", a, b, numEqual, opts...)
}

// Greater builds a tank computing elementwise a > b.
func Greater(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank2(w, "greater", a, b, func(x, y any) bool { return toFloat(x) > toFloat(y) }, opts...)
}

// GreaterEqual builds a tank computing elementwise a >= b.
func GreaterEqual(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank2(w, "greater_equal", a, b, func(x, y any) bool { return toFloat(x) >= toFloat(y) }, opts...)
}

// Less builds a tank computing elementwise a < b.
func Less(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank2(w, "less", a, b, func(x, y any) bool { return toFloat(x) < toFloat(y) }, opts...)
}

// LessEqual builds a tank computing elementwise a <= b.
func LessEqual(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewBooleanTank2(w, "less_equal", a, b, func(x, y any) bool { return toFloat(x) <= toFloat(y) }, opts...)
}

// IsIn builds a tank flagging whether each element of a appears
// anywhere in set (original_source/.../tank_defs.py's isin, whose
// target_type is documented as a bool ndarray).
func IsIn(w *ww.Waterwork, a any, set []any, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeBool}
	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		out, err := arr.MapElements(ww.DtypeBool, func(v any) (any, error) {
			for _, s := range set {
				if v == s {
					return true, nil
				}
			}
			return false, nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(out), "orig": ww.ArrayVal(arr.Clone())}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		return map[string]ww.Value{"a": outs["orig"]}, nil
	}
	return build(w, "isin",
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target, "orig": da},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}
