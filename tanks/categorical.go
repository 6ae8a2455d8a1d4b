package tanks

import (
	"fmt"

	ww "github.com/CRSilkworth/waterworks"
)

// CatToIndex builds a tank mapping each string category in cats to its
// integer index per catToIndexMap. Categories absent from the map map
// to -1, with the original string preserved in missing_vals so pump
// can restore it exactly (original_source/.../tank_defs.py's
// cat_to_index, which validates cat_to_index_map is a mapping).
func CatToIndex(w *ww.Waterwork, cats any, catToIndexMap map[string]int64, opts ...ww.TankOption) (*ww.Tank, error) {
	if catToIndexMap == nil {
		return nil, fmt.Errorf("waterworks/tanks: cat_to_index: cat_to_index_map must not be nil")
	}
	dc, err := describe(cats)
	if err != nil {
		return nil, err
	}
	inverse := make(map[int64]string, len(catToIndexMap))
	for cat, idx := range catToIndexMap {
		inverse[idx] = cat
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeInt64}
	missing := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeString}

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["cats"])
		if err != nil {
			return nil, err
		}
		targetData := make([]any, arr.Len())
		missingData := make([]any, arr.Len())
		for i, v := range arr.Data {
			cat, _ := v.(string)
			if idx, ok := catToIndexMap[cat]; ok {
				targetData[i] = idx
				missingData[i] = ""
			} else {
				targetData[i] = int64(-1)
				missingData[i] = cat
			}
		}
		targetArr, err := ww.NewArray(arr.Shape, ww.DtypeInt64, targetData)
		if err != nil {
			return nil, err
		}
		missingArr, err := ww.NewArray(arr.Shape, ww.DtypeString, missingData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(targetArr), "missing_vals": ww.ArrayVal(missingArr)}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		missingArr, err := arrayOf(outs["missing_vals"])
		if err != nil {
			return nil, err
		}
		data := make([]any, targetArr.Len())
		for i, v := range targetArr.Data {
			idx, _ := v.(int64)
			if idx == -1 {
				data[i] = missingArr.Data[i]
			} else {
				data[i] = inverse[idx]
			}
		}
		arr, err := ww.NewArray(targetArr.Shape, ww.DtypeString, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"cats": ww.ArrayVal(arr)}, nil
	}
	return build(w, "cat_to_index",
		map[string]ww.Descriptor{"cats": dc},
		map[string]ww.Descriptor{"target": target, "missing_vals": missing},
		map[string]any{"cats": cats},
		pour, pump, opts...,
	)
}

// OneHot builds a tank expanding an int64 index array into a one-hot
// float64 array of shape indices.Shape + [depth]. Indices outside
// [0, depth) produce an all-zero row, with the lost index preserved in
// missing_vals (original_source/.../tank_defs.py's one_hot).
func OneHot(w *ww.Waterwork, indices any, depth int, opts ...ww.TankOption) (*ww.Tank, error) {
	di, err := describe(indices)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeFloat64}
	missing := ww.Descriptor{Type: ww.ValTypeArray, Dtype: di.Dtype}

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["indices"])
		if err != nil {
			return nil, err
		}
		outShape := append(append([]int(nil), arr.Shape...), depth)
		data := make([]any, shapeLen(outShape))
		for i := range data {
			data[i] = float64(0)
		}
		missingData := make([]any, arr.Len())
		for i, v := range arr.Data {
			idx := int(toInt(v))
			missingData[i] = fromDtype(arr.Dtype, 0)
			if idx >= 0 && idx < depth {
				data[i*depth+idx] = float64(1)
			} else {
				missingData[i] = v
			}
		}
		targetArr, err := ww.NewArray(outShape, ww.DtypeFloat64, data)
		if err != nil {
			return nil, err
		}
		missingArr, err := ww.NewArray(arr.Shape, arr.Dtype, missingData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(targetArr), "missing_vals": ww.ArrayVal(missingArr)}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		missingArr, err := arrayOf(outs["missing_vals"])
		if err != nil {
			return nil, err
		}
		if len(targetArr.Shape) == 0 {
			return nil, fmt.Errorf("waterworks/tanks: one_hot: target must have rank >= 1")
		}
		origShape := targetArr.Shape[:len(targetArr.Shape)-1]
		n := shapeLen(origShape)
		data := make([]any, n)
		for i := 0; i < n; i++ {
			row := targetArr.Data[i*depth : i*depth+depth]
			idx := -1
			for j, v := range row {
				if toFloat(v) != 0 {
					idx = j
					break
				}
			}
			if idx == -1 {
				data[i] = missingArr.Data[i]
			} else {
				data[i] = fromDtype(missingArr.Dtype, float64(idx))
			}
		}
		arr, err := ww.NewArray(origShape, missingArr.Dtype, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"indices": ww.ArrayVal(arr)}, nil
	}
	return build(w, "one_hot",
		map[string]ww.Descriptor{"indices": di},
		map[string]ww.Descriptor{"target": target, "missing_vals": missing},
		map[string]any{"indices": indices},
		pour, pump, opts...,
	)
}
