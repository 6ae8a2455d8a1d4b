package tanks

import (
	"fmt"
	"time"

	ww "github.com/CRSilkworth/waterworks"
)

// unitDuration maps a time_unit code ("D", "h", "m", "s") to its
// duration, matching original_source/.../tank_defs.py's
// datetime_to_num time_unit argument.
func unitDuration(timeUnit string) (time.Duration, error) {
	switch timeUnit {
	case "D":
		return 24 * time.Hour, nil
	case "h":
		return time.Hour, nil
	case "m":
		return time.Minute, nil
	case "s":
		return time.Second, nil
	default:
		return 0, fmt.Errorf("waterworks/tanks: datetime_to_num: unknown time_unit %q", timeUnit)
	}
}

// DatetimeToNum builds a tank converting a datetime array into a
// float64 array counting numUnits-sized time_unit intervals since
// zeroDatetime. NaT entries map to NaN; pump restores them as NaT.
// target only carries unitSeconds-rounded float64 precision, so the
// diff tube stores the exact nanosecond offset from zeroDatetime,
// matching the catalog's "target | diff" pattern (the Python original's
// nums['diff']) and letting pump reconstruct the original time.Time
// exactly instead of re-deriving it from the lossy float.
func DatetimeToNum(w *ww.Waterwork, a any, zeroDatetime time.Time, numUnits float64, timeUnit string, opts ...ww.TankOption) (*ww.Tank, error) {
	da, err := describe(a)
	if err != nil {
		return nil, err
	}
	unit, err := unitDuration(timeUnit)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeFloat64}
	diffDescriptor := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeInt64}
	unitSeconds := unit.Seconds() * numUnits

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["a"])
		if err != nil {
			return nil, err
		}
		data := make([]any, arr.Len())
		diffData := make([]any, arr.Len())
		for i, v := range arr.Data {
			dt, _ := v.(ww.Datetime)
			if dt.IsNaT {
				data[i] = nan()
				diffData[i] = int64(0)
				continue
			}
			offset := dt.T.Sub(zeroDatetime)
			data[i] = offset.Seconds() / unitSeconds
			diffData[i] = offset.Nanoseconds()
		}
		targetArr, err := ww.NewArray(arr.Shape, ww.DtypeFloat64, data)
		if err != nil {
			return nil, err
		}
		diffArr, err := ww.NewArray(arr.Shape, ww.DtypeInt64, diffData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"target": ww.ArrayVal(targetArr), "diff": ww.ArrayVal(diffArr)}, nil
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
		data := make([]any, targetArr.Len())
		for i, v := range targetArr.Data {
			if isNaN(toFloat(v)) {
				data[i] = ww.Datetime{IsNaT: true}
				continue
			}
			data[i] = ww.Datetime{T: zeroDatetime.Add(time.Duration(toInt(diffArr.Data[i])))}
		}
		arr, err := ww.NewArray(targetArr.Shape, ww.DtypeDatetime, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"a": ww.ArrayVal(arr)}, nil
	}
	return build(w, "datetime_to_num",
		map[string]ww.Descriptor{"a": da},
		map[string]ww.Descriptor{"target": target, "diff": diffDescriptor},
		map[string]any{"a": a},
		pour, pump, opts...,
	)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func isNaN(f float64) bool { return f != f }
