package tanks

import (
	"fmt"

	ww "github.com/CRSilkworth/waterworks"
)

// Replace builds a tank that overwrites a's elements where mask is true
// with replaceWith (broadcast to a's shape), keeping the overwritten
// originals in replaced_vals so pump can restore them exactly
// (original_source/.../tank_defs.py's replace — used by
// transforms.DateTimeTransform to patch NaT entries before conversion).
func Replace(w *ww.Waterwork, a, mask, replaceWith any, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	dm, err := describe(mask)
	if err != nil {
		return nil, err
	}
	dr, err := describe(replaceWith)
	if err != nil {
		return nil, err
	}
	target := da

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		maskArr, err := arrayOf(ins["mask"])
		if err != nil {
			return nil, err
		}
		if !shapeEqual(arr.Shape, maskArr.Shape) {
			return nil, fmt.Errorf("waterworks/tanks: replace: mask shape %v must match a's shape %v", maskArr.Shape, arr.Shape)
		}
		rwArr, err := arrayOf(ins["replace_with"])
		if err != nil {
			return nil, err
		}
		expandedRW, err := rwArr.BroadcastTo(arr.Shape)
		if err != nil {
			return nil, err
		}
		targetData := make([]any, arr.Len())
		replacedData := make([]any, arr.Len())
		zero := zeroFor(arr.Dtype)
		for i, v := range arr.Data {
			masked, _ := maskArr.Data[i].(bool)
			if masked {
				targetData[i] = expandedRW.Data[i]
				replacedData[i] = v
			} else {
				targetData[i] = v
				replacedData[i] = zero
			}
		}
		targetArr, err := ww.NewArray(arr.Shape, arr.Dtype, targetData)
		if err != nil {
			return nil, err
		}
		replacedArr, err := ww.NewArray(arr.Shape, arr.Dtype, replacedData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{
			"target":        ww.ArrayVal(targetArr),
			"replaced_vals": ww.ArrayVal(replacedArr),
			"mask":          ww.ArrayVal(maskArr),
			"replace_with":  ww.ArrayVal(rwArr),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		replacedArr, err := arrayOf(outs["replaced_vals"])
		if err != nil {
			return nil, err
		}
		maskArr, err := arrayOf(outs["mask"])
		if err != nil {
			return nil, err
		}
		data := make([]any, targetArr.Len())
		for i := range data {
			masked, _ := maskArr.Data[i].(bool)
			if masked {
				data[i] = replacedArr.Data[i]
			} else {
				data[i] = targetArr.Data[i]
			}
		}
		arr, err := ww.NewArray(targetArr.Shape, targetArr.Dtype, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"a": ww.ArrayVal(arr), "mask": outs["mask"], "replace_with": outs["replace_with"]}, nil
	}
	return build(w, "replace",
		map[string]ww.Descriptor{"a": da, "mask": dm, "replace_with": dr},
		map[string]ww.Descriptor{
			"target":        target,
			"replaced_vals": target,
			"mask":          dm,
			"replace_with":  dr,
		},
		map[string]any{"a": a, "mask": mask, "replace_with": replaceWith},
		pour, pump, opts...,
	)
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func zeroFor(dtype ww.ValDtype) any {
	switch dtype {
	case ww.DtypeFloat64:
		return float64(0)
	case ww.DtypeInt64:
		return int64(0)
	case ww.DtypeBool:
		return false
	case ww.DtypeString:
		return ""
	case ww.DtypeDatetime:
		return ww.Datetime{}
	default:
		return nil
	}
}
