package tanks

import (
	"fmt"

	ww "github.com/CRSilkworth/waterworks"
)

func itemKey(i int) string { return fmt.Sprintf("item_%d", i) }

// Concatenate builds a tank joining len(items) arrays along axis. Each
// item gets its own dynamically named slot ("item_0", "item_1", ...);
// the tank records each item's original size along axis (sizes) and
// dtype (dtypes) so pump can Split the joined array back into pieces
// and re-cast any that were coerced to a common dtype on the way in
// (original_source/.../tank_defs.py's concatenate).
func Concatenate(w *ww.Waterwork, items []any, axis int, opts ...ww.TankOption) (*ww.Tank, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("waterworks/tanks: concatenate requires at least one item")
	}
	slotDescs := make(map[string]ww.Descriptor, len(items))
	descs := make([]ww.Descriptor, len(items))
	dtype := ww.DtypeNone
	for i, item := range items {
		d, err := describe(item)
		if err != nil {
			return nil, err
		}
		descs[i] = d
		slotDescs[itemKey(i)] = d
		dtype = decideDtype(dtype, d.Dtype)
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: dtype}
	sizesDesc := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeInt64}
	dtypesDesc := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeInt64}
	n := len(items)

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arrays := make([]*ww.Array, n)
		sizes := make([]any, n)
		dtypes := make([]any, n)
		joinDtype := dtype
		for i := 0; i < n; i++ {
			arr, err := arrayOf(ins[itemKey(i)])
			if err != nil {
				return nil, err
			}
			arrays[i] = arr
			dtypes[i] = int64(arr.Dtype)
			if dtype == ww.DtypeNone {
				joinDtype = decideDtype(joinDtype, arr.Dtype)
			}
		}
		for i, arr := range arrays {
			if arr.Dtype != joinDtype {
				cast, err := arr.MapElements(joinDtype, func(v any) (any, error) { return castElement(v, joinDtype) })
				if err != nil {
					return nil, err
				}
				arr = cast
			}
			arrays[i] = arr
			sizes[i] = int64(arr.Shape[axis])
		}
		joined, err := ww.Concatenate(arrays, axis)
		if err != nil {
			return nil, err
		}
		sizesArr, err := ww.NewArray([]int{n}, ww.DtypeInt64, sizes)
		if err != nil {
			return nil, err
		}
		dtypesArr, err := ww.NewArray([]int{n}, ww.DtypeInt64, dtypes)
		if err != nil {
			return nil, err
		}
		out := map[string]ww.Value{
			"target": ww.ArrayVal(joined),
			"sizes":  ww.ArrayVal(sizesArr),
			"dtypes": ww.ArrayVal(dtypesArr),
		}
		return out, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		joined, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		sizesArr, err := arrayOf(outs["sizes"])
		if err != nil {
			return nil, err
		}
		dtypesArr, err := arrayOf(outs["dtypes"])
		if err != nil {
			return nil, err
		}
		sizes := make([]int, n)
		for i := range sizes {
			sizes[i] = int(sizesArr.Data[i].(int64))
		}
		pieces, err := ww.Split(joined, axis, sizes)
		if err != nil {
			return nil, err
		}
		result := make(map[string]ww.Value, n)
		for i, piece := range pieces {
			origDtype := ww.ValDtype(dtypesArr.Data[i].(int64))
			if piece.Dtype != origDtype {
				recast, err := piece.MapElements(origDtype, func(v any) (any, error) { return castElement(v, origDtype) })
				if err != nil {
					return nil, err
				}
				piece = recast
			}
			result[itemKey(i)] = ww.ArrayVal(piece)
		}
		return result, nil
	}

	args := make(map[string]any, n)
	for i, item := range items {
		args[itemKey(i)] = item
	}
	return build(w, "concatenate",
		slotDescs,
		map[string]ww.Descriptor{"target": target, "sizes": sizesDesc, "dtypes": dtypesDesc},
		args,
		pour, pump, opts...,
	)
}

func inverseAxes(axes []int) []int {
	inv := make([]int, len(axes))
	for i, a := range axes {
		inv[a] = i
	}
	return inv
}

// Transpose builds a tank permuting a's axes per axes (same convention
// as numpy.transpose). Its pump applies the inverse permutation.
func Transpose(w *ww.Waterwork, a any, axes []int, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	target := da

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		out, err := arr.Transpose(axes)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(out), "axes": ww.SequenceVal(intSeq(axes))}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		back, err := arr.Transpose(inverseAxes(axes))
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"a": ww.ArrayVal(back)}, nil
	}
	return build(w, "transpose",
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target, "axes": {Type: ww.ValTypeSequence}},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}

func intSeq(axes []int) ww.Sequence {
	seq := make(ww.Sequence, len(axes))
	for i, v := range axes {
		seq[i] = ww.Int(int64(v))
	}
	return seq
}
