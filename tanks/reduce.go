package tanks

import (
	"fmt"
	"math"

	ww "github.com/CRSilkworth/waterworks"
)

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func unravelIndex(flat int, strides []int) []int {
	idx := make([]int, len(strides))
	for i, s := range strides {
		if s == 0 {
			idx[i] = 0
			continue
		}
		idx[i] = flat / s
		flat -= idx[i] * s
	}
	return idx
}

func dropAxis(idx []int, axis int) []int {
	out := make([]int, 0, len(idx)-1)
	for i, v := range idx {
		if i == axis {
			continue
		}
		out = append(out, v)
	}
	return out
}

func removeAxis(shape []int, axis int) []int {
	return dropAxis(shape, axis)
}

// reduceAxis folds arr's elements along axis into an array with that
// axis removed, using step as the running accumulator and finish to
// turn the (accumulator, count) pair into the final float64 per output
// cell. sum/mean/std/max/min all share this shape
// (original_source/.../tank_defs.py's reduce tanks).
func reduceAxis(arr *ww.Array, axis int, init float64, step func(acc, v float64) float64, finish func(acc float64, count int) float64) (*ww.Array, error) {
	if axis < 0 || axis >= len(arr.Shape) {
		return nil, fmt.Errorf("waterworks/tanks: reduce: axis %d out of range for shape %v", axis, arr.Shape)
	}
	outShape := removeAxis(arr.Shape, axis)
	if len(outShape) == 0 {
		outShape = []int{1}
	}
	n := shapeLen(outShape)
	accs := make([]float64, n)
	counts := make([]int, n)
	for i := range accs {
		accs[i] = init
	}
	strides := stridesOf(arr.Shape)
	outStrides := stridesOf(removeAxis(arr.Shape, axis))
	for flat, v := range arr.Data {
		idx := unravelIndex(flat, strides)
		outIdx := dropAxis(idx, axis)
		outFlat := 0
		for i, s := range outStrides {
			outFlat += outIdx[i] * s
		}
		accs[outFlat] = step(accs[outFlat], toFloat(v))
		counts[outFlat]++
	}
	data := make([]any, n)
	for i := range data {
		data[i] = finish(accs[i], counts[i])
	}
	return ww.NewArray(outShape, ww.DtypeFloat64, data)
}

// NewReduceTank builds the family of tanks folding a along axis (sum,
// mean, max, min, std). Reduction discards information irrecoverably,
// so — like NewBooleanTank1/2 — the tank carries the complete original
// array in an "orig" tube purely so pump can restore it exactly under
// the engine's unconditional, whole-graph Pump driver.
func NewReduceTank(w *ww.Waterwork, kind string, a any, axis int, step func(acc, v float64) float64, init float64, finish func(acc float64, count int) float64, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeFloat64}
	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		out, err := reduceAxis(arr, axis, init, step, finish)
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

// Sum builds a tank summing a's elements along axis.
func Sum(w *ww.Waterwork, a any, axis int, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewReduceTank(w, "sum", a, axis,
		func(acc, v float64) float64 { return acc + v }, 0,
		func(acc float64, count int) float64 { return acc },
		opts...,
	)
}

// Mean builds a tank averaging a's elements along axis.
func Mean(w *ww.Waterwork, a any, axis int, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewReduceTank(w, "mean", a, axis,
		func(acc, v float64) float64 { return acc + v }, 0,
		func(acc float64, count int) float64 {
			if count == 0 {
				return 0
			}
			return acc / float64(count)
		},
		opts...,
	)
}

// Max builds a tank taking a's maximum along axis.
func Max(w *ww.Waterwork, a any, axis int, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewReduceTank(w, "max", a, axis,
		func(acc, v float64) float64 { return math.Max(acc, v) }, math.Inf(-1),
		func(acc float64, count int) float64 { return acc },
		opts...,
	)
}

// Min builds a tank taking a's minimum along axis.
func Min(w *ww.Waterwork, a any, axis int, opts ...ww.TankOption) (*ww.Tank, error) {
	return NewReduceTank(w, "min", a, axis,
		func(acc, v float64) float64 { return math.Min(acc, v) }, math.Inf(1),
		func(acc float64, count int) float64 { return acc },
		opts...,
	)
}

// Std builds a tank computing a's population standard deviation along
// axis. It needs two passes over the data (mean, then sum of squared
// deviations), so it doesn't fit NewReduceTank's single-accumulator
// shape and is built directly instead.
func Std(w *ww.Waterwork, a any, axis int, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeFloat64}
	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		meanArr, err := reduceAxis(arr, axis, 0,
			func(acc, v float64) float64 { return acc + v },
			func(acc float64, count int) float64 {
				if count == 0 {
					return 0
				}
				return acc / float64(count)
			})
		if err != nil {
			return nil, err
		}
		strides := stridesOf(arr.Shape)
		outStrides := stridesOf(removeAxis(arr.Shape, axis))
		sq := make([]float64, shapeLen(removeAxis(arr.Shape, axis)))
		counts := make([]int, len(sq))
		for flat, v := range arr.Data {
			idx := unravelIndex(flat, strides)
			outIdx := dropAxis(idx, axis)
			outFlat := 0
			for i, s := range outStrides {
				outFlat += outIdx[i] * s
			}
			d := toFloat(v) - toFloat(meanArr.Data[outFlat])
			sq[outFlat] += d * d
			counts[outFlat]++
		}
		data := make([]any, len(sq))
		for i, s := range sq {
			if counts[i] == 0 {
				data[i] = 0.0
				continue
			}
			data[i] = math.Sqrt(s / float64(counts[i]))
		}
		out, err := ww.NewArray(meanArr.Shape, ww.DtypeFloat64, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(out), "orig": ww.ArrayVal(arr.Clone())}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		return map[string]ww.Value{"a": outs["orig"]}, nil
	}
	return build(w, "std",
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target, "orig": da},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}
