package tanks

import (
	ww "github.com/CRSilkworth/waterworks"
)

// pickSmaller decides which of a, b's *original* (pre-broadcast) arrays
// is the one worth storing verbatim for reversal (the one with fewer
// elements; b is preferred on a tie, matching the "a_is_smaller=false"
// default when no broadcasting happened at all).
func pickSmaller(a, b *ww.Array, shape []int) (smaller, larger *ww.Array, aIsSmaller bool) {
	if shapeSmaller(a.Shape, shape) && !shapeSmaller(b.Shape, shape) {
		return a, b, true
	}
	return b, a, false
}

func binaryDescriptors(da, db ww.Descriptor) (target, aux ww.Descriptor) {
	dtype := decideDtype(da.Dtype, db.Dtype)
	return ww.Descriptor{Type: ww.ValTypeArray, Dtype: dtype}, ww.Descriptor{Type: ww.ValTypeScalarBool}
}

// Add builds a tank computing target = a + b (elementwise, broadcast).
func Add(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return addSub(w, "add", a, b, func(x, y float64) float64 { return x + y }, func(target, known float64, knownIsA bool) float64 {
		if knownIsA {
			return target - known // b = target - a
		}
		return target - known // a = target - b
	}, opts...)
}

// Sub builds a tank computing target = a - b (elementwise, broadcast).
func Sub(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	return addSub(w, "sub", a, b, func(x, y float64) float64 { return x - y }, func(target, known float64, knownIsA bool) float64 {
		if knownIsA {
			return known - target // b = a - target
		}
		return target + known // a = target + b
	}, opts...)
}

func addSub(
	w *ww.Waterwork,
	kind string,
	a, b any,
	forward func(a, b float64) float64,
	invert func(target, known float64, knownIsA bool) float64,
	opts ...ww.TankOption,
) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	db, err := describe(b)
	if err != nil {
		return nil, err
	}
	target, auxBool := binaryDescriptors(da, db)

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
		dtype := target.Dtype
		if dtype == ww.DtypeNone {
			dtype = decideDtype(aa.Dtype, ba.Dtype)
		}
		data := make([]any, shapeLen(shape))
		for i := range data {
			data[i] = fromDtype(dtype, forward(toFloat(ea.Data[i]), toFloat(eb.Data[i])))
		}
		targetArr, err := ww.NewArray(shape, dtype, data)
		if err != nil {
			return nil, err
		}
		smaller, _, aIsSmaller := pickSmaller(aa, ba, shape)
		return map[string]ww.Value{
			"target":             ww.ArrayVal(targetArr),
			"smaller_size_array": ww.ArrayVal(smaller),
			"a_is_smaller":       ww.Bool(aIsSmaller),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		smaller, err := arrayOf(outs["smaller_size_array"])
		if err != nil {
			return nil, err
		}
		aIsSmaller, _ := outs["a_is_smaller"].Raw.(bool)
		expanded, err := smaller.BroadcastTo(targetArr.Shape)
		if err != nil {
			return nil, err
		}
		otherData := make([]any, targetArr.Len())
		for i := range otherData {
			otherData[i] = fromDtype(targetArr.Dtype, invert(toFloat(targetArr.Data[i]), toFloat(expanded.Data[i]), aIsSmaller))
		}
		otherArr, err := ww.NewArray(targetArr.Shape, targetArr.Dtype, otherData)
		if err != nil {
			return nil, err
		}
		if aIsSmaller {
			return map[string]ww.Value{"a": ww.ArrayVal(smaller), "b": ww.ArrayVal(otherArr)}, nil
		}
		return map[string]ww.Value{"a": ww.ArrayVal(otherArr), "b": ww.ArrayVal(smaller)}, nil
	}
	return build(w, kind,
		map[string]ww.Descriptor{"a": da, "b": db},
		map[string]ww.Descriptor{"target": target, "smaller_size_array": target, "a_is_smaller": auxBool},
		map[string]any{"a": a, "b": b},
		pour, pump, opts...,
	)
}

// Mul builds a tank computing target = a * b (elementwise, broadcast),
// with a missing_vals tube recording whichever operand is lost when the
// stored (smaller) operand is zero at a given position (x*0 = 0 for any
// x, so x can't be recovered from the product alone there).
func Mul(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	db, err := describe(b)
	if err != nil {
		return nil, err
	}
	target, auxBool := binaryDescriptors(da, db)

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
		dtype := target.Dtype
		if dtype == ww.DtypeNone {
			dtype = decideDtype(aa.Dtype, ba.Dtype)
		}
		targetData := make([]any, shapeLen(shape))
		for i := range targetData {
			targetData[i] = fromDtype(dtype, toFloat(ea.Data[i])*toFloat(eb.Data[i]))
		}
		targetArr, err := ww.NewArray(shape, dtype, targetData)
		if err != nil {
			return nil, err
		}
		smaller, larger, aIsSmaller := pickSmaller(aa, ba, shape)
		expandedSmaller, err := smaller.BroadcastTo(shape)
		if err != nil {
			return nil, err
		}
		missingData := make([]any, shapeLen(shape))
		for i := range missingData {
			if toFloat(expandedSmaller.Data[i]) == 0 {
				missingData[i] = fromDtype(dtype, toFloat(broadcastElem(larger, shape, i)))
			} else {
				missingData[i] = fromDtype(dtype, 0)
			}
		}
		missingArr, err := ww.NewArray(shape, dtype, missingData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{
			"target":             ww.ArrayVal(targetArr),
			"smaller_size_array": ww.ArrayVal(smaller),
			"a_is_smaller":       ww.Bool(aIsSmaller),
			"missing_vals":       ww.ArrayVal(missingArr),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		smaller, err := arrayOf(outs["smaller_size_array"])
		if err != nil {
			return nil, err
		}
		missing, err := arrayOf(outs["missing_vals"])
		if err != nil {
			return nil, err
		}
		aIsSmaller, _ := outs["a_is_smaller"].Raw.(bool)
		expanded, err := smaller.BroadcastTo(targetArr.Shape)
		if err != nil {
			return nil, err
		}
		largerData := make([]any, targetArr.Len())
		for i := range largerData {
			s := toFloat(expanded.Data[i])
			if s == 0 {
				largerData[i] = missing.Data[i]
			} else {
				largerData[i] = fromDtype(targetArr.Dtype, toFloat(targetArr.Data[i])/s)
			}
		}
		largerArr, err := ww.NewArray(targetArr.Shape, targetArr.Dtype, largerData)
		if err != nil {
			return nil, err
		}
		if aIsSmaller {
			return map[string]ww.Value{"a": ww.ArrayVal(smaller), "b": ww.ArrayVal(largerArr)}, nil
		}
		return map[string]ww.Value{"a": ww.ArrayVal(largerArr), "b": ww.ArrayVal(smaller)}, nil
	}
	return build(w, "mul",
		map[string]ww.Descriptor{"a": da, "b": db},
		map[string]ww.Descriptor{"target": target, "smaller_size_array": target, "a_is_smaller": auxBool, "missing_vals": target},
		map[string]any{"a": a, "b": b},
		pour, pump, opts...,
	)
}

// Div builds a tank computing target = floor(a / b) and remainder = a
// - target*b (elementwise, broadcast), with a missing_vals tube for
// positions where b (the divisor) is zero.
func Div(w *ww.Waterwork, a, b any, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	db, err := describe(b)
	if err != nil {
		return nil, err
	}
	target, auxBool := binaryDescriptors(da, db)

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
		dtype := target.Dtype
		if dtype == ww.DtypeNone {
			dtype = decideDtype(aa.Dtype, ba.Dtype)
		}
		n := shapeLen(shape)
		targetData := make([]any, n)
		remData := make([]any, n)
		for i := 0; i < n; i++ {
			av, bv := toFloat(ea.Data[i]), toFloat(eb.Data[i])
			if bv == 0 {
				targetData[i] = fromDtype(dtype, 0)
				remData[i] = fromDtype(dtype, 0)
				continue
			}
			q := floorDiv(av, bv)
			targetData[i] = fromDtype(dtype, q)
			remData[i] = fromDtype(dtype, av-q*bv)
		}
		targetArr, err := ww.NewArray(shape, dtype, targetData)
		if err != nil {
			return nil, err
		}
		remArr, err := ww.NewArray(shape, dtype, remData)
		if err != nil {
			return nil, err
		}
		// b is always the operand needed to recover a via target*b+remainder,
		// so it is always the stored operand here regardless of relative size,
		// unless it is the larger one and broadcasting made it redundant to
		// store the expanded copy: still store the original (unexpanded) b.
		aIsSmaller := shapeSmaller(aa.Shape, shape) && !shapeSmaller(ba.Shape, shape)
		stored := ba
		if aIsSmaller {
			stored = aa
		}
		expandedB, err := ba.BroadcastTo(shape)
		if err != nil {
			return nil, err
		}
		missingData := make([]any, n)
		for i := 0; i < n; i++ {
			if toFloat(expandedB.Data[i]) == 0 {
				missingData[i] = fromDtype(dtype, toFloat(ea.Data[i]))
			} else {
				missingData[i] = fromDtype(dtype, 0)
			}
		}
		missingArr, err := ww.NewArray(shape, dtype, missingData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{
			"target":             ww.ArrayVal(targetArr),
			"remainder":          ww.ArrayVal(remArr),
			"smaller_size_array": ww.ArrayVal(stored),
			"a_is_smaller":       ww.Bool(aIsSmaller),
			"missing_vals":       ww.ArrayVal(missingArr),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		remArr, err := arrayOf(outs["remainder"])
		if err != nil {
			return nil, err
		}
		stored, err := arrayOf(outs["smaller_size_array"])
		if err != nil {
			return nil, err
		}
		missing, err := arrayOf(outs["missing_vals"])
		if err != nil {
			return nil, err
		}
		aIsSmaller, _ := outs["a_is_smaller"].Raw.(bool)
		shape := targetArr.Shape
		n := targetArr.Len()

		var bExpanded *ww.Array
		if aIsSmaller {
			// stored is a; b must be recovered from missing_vals where a's
			// divisor was zero, otherwise there is no direct b in this
			// case (a_is_smaller only arises from broadcasting, where b
			// is the larger, fully-stored operand under "else").
			bExpanded = missing
		} else {
			bExpanded, err = stored.BroadcastTo(shape)
			if err != nil {
				return nil, err
			}
		}
		aData := make([]any, n)
		for i := 0; i < n; i++ {
			bv := toFloat(bExpanded.Data[i])
			if bv == 0 {
				aData[i] = missing.Data[i]
			} else {
				aData[i] = fromDtype(targetArr.Dtype, toFloat(targetArr.Data[i])*bv+toFloat(remArr.Data[i]))
			}
		}
		aArr, err := ww.NewArray(shape, targetArr.Dtype, aData)
		if err != nil {
			return nil, err
		}
		if aIsSmaller {
			return map[string]ww.Value{"a": ww.ArrayVal(stored), "b": ww.ArrayVal(bExpanded)}, nil
		}
		return map[string]ww.Value{"a": ww.ArrayVal(aArr), "b": ww.ArrayVal(stored)}, nil
	}
	return build(w, "div",
		map[string]ww.Descriptor{"a": da, "b": db},
		map[string]ww.Descriptor{"target": target, "remainder": target, "smaller_size_array": target, "a_is_smaller": auxBool, "missing_vals": target},
		map[string]any{"a": a, "b": b},
		pour, pump, opts...,
	)
}

func floorDiv(a, b float64) float64 {
	q := a / b
	if q >= 0 {
		return float64(int64(q))
	}
	fi := float64(int64(q))
	if fi != q {
		fi--
	}
	return fi
}

// broadcastElem reads element i of flat (already-broadcast) shape from
// arr, re-broadcasting arr if its own shape differs from shape.
func broadcastElem(arr *ww.Array, shape []int, i int) any {
	if len(arr.Shape) == len(shape) {
		match := true
		for k, d := range arr.Shape {
			if d != shape[k] {
				match = false
				break
			}
		}
		if match {
			return arr.Data[i]
		}
	}
	expanded, err := arr.BroadcastTo(shape)
	if err != nil {
		return arr.Data[0]
	}
	return expanded.Data[i]
}
