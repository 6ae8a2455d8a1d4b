package tanks

import (
	"fmt"

	"github.com/spf13/cast"
	ww "github.com/CRSilkworth/waterworks"
)

func numericDtype(d ww.ValDtype) bool { return d == ww.DtypeFloat64 || d == ww.DtypeInt64 }

func castElement(v any, dtype ww.ValDtype) (any, error) {
	switch dtype {
	case ww.DtypeFloat64:
		return cast.ToFloat64E(v)
	case ww.DtypeInt64:
		return cast.ToInt64E(v)
	case ww.DtypeString:
		return cast.ToStringE(v)
	case ww.DtypeBool:
		return cast.ToBoolE(v)
	default:
		return nil, fmt.Errorf("waterworks/tanks: cast: unsupported target dtype %s", dtype)
	}
}

// Cast builds a tank that coerces a's element dtype to dtype, using
// spf13/cast for the coercion (matching brunotm-streams/config.go's use
// of the same package for loosely-typed value coercion). When both the
// source and target dtypes are numeric, the lossy remainder is kept in
// the diff tube so pump can reconstruct the original exactly; for
// string/bool/datetime casts, diff carries the full original array.
func Cast(w *ww.Waterwork, a any, dtype ww.ValDtype, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: dtype}
	diffDtype := da.Dtype

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		targetArr, err := arr.MapElements(dtype, func(v any) (any, error) { return castElement(v, dtype) })
		if err != nil {
			return nil, err
		}
		var diffArr *ww.Array
		if numericDtype(arr.Dtype) && numericDtype(dtype) {
			diffData := make([]any, arr.Len())
			for i := range diffData {
				diffData[i] = fromDtype(arr.Dtype, toFloat(arr.Data[i])-toFloat(targetArr.Data[i]))
			}
			diffArr, err = ww.NewArray(arr.Shape, arr.Dtype, diffData)
			if err != nil {
				return nil, err
			}
		} else {
			diffArr = arr.Clone()
		}
		return map[string]ww.Value{
			"target":      ww.ArrayVal(targetArr),
			"input_dtype": ww.Int(int64(arr.Dtype)),
			"diff":        ww.ArrayVal(diffArr),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		diffArr, err := arrayOf(outs["diff"])
		if err != nil {
			return nil, err
		}
		inputDtype := ww.ValDtype(outs["input_dtype"].Raw.(int64))
		if numericDtype(inputDtype) && numericDtype(targetArr.Dtype) {
			data := make([]any, targetArr.Len())
			for i := range data {
				data[i] = fromDtype(inputDtype, toFloat(targetArr.Data[i])+toFloat(diffArr.Data[i]))
			}
			arr, err := ww.NewArray(targetArr.Shape, inputDtype, data)
			if err != nil {
				return nil, err
			}
			return map[string]ww.Value{"a": ww.ArrayVal(arr)}, nil
		}
		return map[string]ww.Value{"a": ww.ArrayVal(diffArr)}, nil
	}
	return build(w, "cast",
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target, "input_dtype": {Type: ww.ValTypeScalarInt}, "diff": {Type: ww.ValTypeArray, Dtype: diffDtype}},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}
