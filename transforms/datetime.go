// Package transforms holds higher-level façades that compute fitted
// statistics once and assemble a reusable Waterwork around them,
// mirroring original_source/reversible_transforms/transforms's Transform
// base class (calc_global_values/get_waterwork/pour/pump).
package transforms

import (
	"fmt"
	"math"
	"time"

	ww "github.com/CRSilkworth/waterworks"
	"github.com/CRSilkworth/waterworks/tanks"
)

// NormMode selects how DateTimeTransform scales the converted numbers.
type NormMode int

const (
	// NormNone leaves the converted numbers unscaled.
	NormNone NormMode = iota
	// NormMinMax scales to (x - min) / (max - min).
	NormMinMax
	// NormMeanStd scales to (x - mean) / std.
	NormMeanStd
)

// Config is DateTimeTransform's closed set of fit-time options, mirroring
// original_source/.../datetime_transform.py's constructor keywords.
type Config struct {
	NormMode     NormMode
	NumUnits     float64
	TimeUnit     string
	ZeroDatetime time.Time
	// FillNatFunc produces the value NaT entries are replaced with
	// before datetime_to_num runs. Captured once at Fit time — later
	// mutation of whatever FillNatFunc closes over is not observed (see
	// DESIGN.md's Open Question (b)).
	FillNatFunc func() time.Time
}

// DateTimeTransform fits mean/std or min/max statistics on a sample of
// datetimes, then pours/pumps new datetime arrays through a
// replace(isnat) -> datetime_to_num -> optional normalize Waterwork
// built once at Fit time (original_source/.../datetime_transform.py's
// calc_global_values + get_waterwork).
type DateTimeTransform struct {
	cfg Config

	fitted bool
	mean   float64
	std    float64
	min    float64
	max    float64

	graph *ww.Waterwork
	input *ww.Placeholder
}

// NewDateTimeTransform creates an unfitted transform with the given
// configuration.
func NewDateTimeTransform(cfg Config) *DateTimeTransform {
	return &DateTimeTransform{cfg: cfg}
}

func (t *DateTimeTransform) unitSeconds() (float64, error) {
	var d time.Duration
	switch t.cfg.TimeUnit {
	case "D":
		d = 24 * time.Hour
	case "h":
		d = time.Hour
	case "m":
		d = time.Minute
	case "s":
		d = time.Second
	default:
		return 0, fmt.Errorf("waterworks/transforms: datetime: unknown time_unit %q", t.cfg.TimeUnit)
	}
	return d.Seconds() * t.cfg.NumUnits, nil
}

// Fit computes the global statistics NormMode needs from data (ignoring
// NaT entries) and builds the transform's Waterwork. Degenerate
// statistics are patched exactly as
// original_source/.../datetime_transform.py's calc_global_values does:
// a zero std becomes 1, an equal min/max becomes max+1.
func (t *DateTimeTransform) Fit(data *ww.Array) error {
	if data.Len() == 0 {
		return &ww.EmptyFitError{Transform: "DateTimeTransform"}
	}
	unitSeconds, err := t.unitSeconds()
	if err != nil {
		return err
	}
	var nums []float64
	for _, v := range data.Data {
		dt, _ := v.(ww.Datetime)
		if dt.IsNaT {
			continue
		}
		nums = append(nums, dt.T.Sub(t.cfg.ZeroDatetime).Seconds()/unitSeconds)
	}
	if len(nums) == 0 {
		return &ww.EmptyFitError{Transform: "DateTimeTransform"}
	}

	switch t.cfg.NormMode {
	case NormMeanStd:
		var sum float64
		for _, n := range nums {
			sum += n
		}
		mean := sum / float64(len(nums))
		var sq float64
		for _, n := range nums {
			d := n - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(len(nums)))
		if std == 0 {
			std = 1
		}
		t.mean, t.std = mean, std
	case NormMinMax:
		min_, max_ := nums[0], nums[0]
		for _, n := range nums[1:] {
			if n < min_ {
				min_ = n
			}
			if n > max_ {
				max_ = n
			}
		}
		if min_ == max_ {
			max_ = max_ + 1
		}
		t.min, t.max = min_, max_
	}

	if err := t.buildGraph(); err != nil {
		return err
	}
	t.fitted = true
	return nil
}

func (t *DateTimeTransform) buildGraph() error {
	graph := ww.New("datetime_transform")

	input, err := ww.NewPlaceholder(graph, ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeDatetime}, "input")
	if err != nil {
		return err
	}

	isnatTank, err := tanks.IsNat(graph, input)
	if err != nil {
		return err
	}
	natsTube := isnatTank.Tubes["target"]

	fillArr := ww.NewScalar(ww.DtypeDatetime, ww.Datetime{T: t.cfg.FillNatFunc()})
	replaceTank, err := tanks.Replace(graph, input, natsTube, ww.ArrayVal(fillArr))
	if err != nil {
		return err
	}

	dtnTank, err := tanks.DatetimeToNum(graph, replaceTank.Tubes["target"], t.cfg.ZeroDatetime, t.cfg.NumUnits, t.cfg.TimeUnit)
	if err != nil {
		return err
	}
	numsTube := dtnTank.Tubes["target"]

	switch t.cfg.NormMode {
	case NormMeanStd:
		subTank, err := tanks.Sub(graph, numsTube, scalarFloat(t.mean))
		if err != nil {
			return err
		}
		if _, err := tanks.Div(graph, subTank.Tubes["target"], scalarFloat(t.std)); err != nil {
			return err
		}
	case NormMinMax:
		subTank, err := tanks.Sub(graph, numsTube, scalarFloat(t.min))
		if err != nil {
			return err
		}
		if _, err := tanks.Div(graph, subTank.Tubes["target"], scalarFloat(t.max-t.min)); err != nil {
			return err
		}
	}

	t.graph = graph
	t.input = input
	return nil
}

// Pour runs data through the fitted Waterwork, returning every tap
// value keyed by its fully qualified tube name (nums/normalized target,
// nats, and every auxiliary reversal tube the catalog tanks attach).
func (t *DateTimeTransform) Pour(data *ww.Array) (map[string]ww.Value, error) {
	if !t.fitted {
		return nil, &ww.EmptyFitError{Transform: "DateTimeTransform"}
	}
	t.graph.ClearVals()
	outs, err := t.graph.Pour(map[any]ww.Value{t.input: ww.ArrayVal(data)}, ww.KeyModeObj)
	if err != nil {
		return nil, err
	}
	return objKeysToNames(outs), nil
}

// Pump inverts Pour: given every tap value Pour returned, it
// reconstructs the original datetime array exactly.
func (t *DateTimeTransform) Pump(outs map[string]ww.Value) (*ww.Array, error) {
	if !t.fitted {
		return nil, &ww.EmptyFitError{Transform: "DateTimeTransform"}
	}
	t.graph.ClearVals()
	keyed := make(map[any]ww.Value, len(outs))
	for _, tap := range t.graph.Taps() {
		if v, ok := outs[tap.Name]; ok {
			keyed[tap] = v
		}
	}
	ins, err := t.graph.Pump(keyed, ww.KeyModeObj)
	if err != nil {
		return nil, err
	}
	v, ok := ins[t.input]
	if !ok {
		return nil, &ww.MissingInputError{Key: t.input.Name}
	}
	arr, _ := v.Raw.(*ww.Array)
	return arr, nil
}

func scalarFloat(f float64) ww.Value {
	return ww.ArrayVal(ww.NewScalar(ww.DtypeFloat64, f))
}

func objKeysToNames(m map[any]ww.Value) map[string]ww.Value {
	out := make(map[string]ww.Value, len(m))
	for k, v := range m {
		switch p := k.(type) {
		case *ww.Tube:
			out[p.Name] = v
		case *ww.Slot:
			out[p.Name] = v
		case *ww.Placeholder:
			out[p.Name] = v
		}
	}
	return out
}
