package transforms

import (
	"strings"
	"testing"
	"time"

	ww "github.com/CRSilkworth/waterworks"
)

func day(n int) time.Time {
	return time.Date(2020, 1, 1+n, 0, 0, 0, 0, time.UTC)
}

func fitArr(t *testing.T, data []any) *ww.Array {
	t.Helper()
	a, err := ww.NewArray([]int{len(data)}, ww.DtypeDatetime, data)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	return a
}

func TestDateTimeTransformMeanStdRoundTrip(t *testing.T) {
	cfg := Config{
		NormMode:     NormMeanStd,
		NumUnits:     1,
		TimeUnit:     "D",
		ZeroDatetime: day(0),
		FillNatFunc:  func() time.Time { return day(0) },
	}
	tr := NewDateTimeTransform(cfg)

	fit := fitArr(t, []any{
		ww.Datetime{T: day(0)},
		ww.Datetime{T: day(1)},
		ww.Datetime{T: day(2)},
	})
	if err := tr.Fit(fit); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	data := fitArr(t, []any{
		ww.Datetime{T: day(1)},
		ww.Datetime{IsNaT: true},
	})
	outs, err := tr.Pour(data)
	if err != nil {
		t.Fatalf("Pour: %v", err)
	}

	// isnat's target feeds replace's mask slot, so the NaT flags reach
	// the taps through replace's mask tube.
	nats, ok := findTap(outs, "Replace", "mask")
	if !ok {
		t.Fatalf("expected a replace mask tap carrying the NaT flags, got keys %v", keysOf(outs))
	}
	natsArr, _ := nats.Raw.(*ww.Array)
	if natsArr.Data[0] != false || natsArr.Data[1] != true {
		t.Fatalf("unexpected isnat flags: %v", natsArr.Data)
	}

	back, err := tr.Pump(outs)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if !back.Equal(data) {
		t.Fatalf("pump did not reconstruct original data (including NaT): got %v, want %v", back, data)
	}
}

func TestDateTimeTransformDegenerateStdPatchedToOne(t *testing.T) {
	cfg := Config{
		NormMode:     NormMeanStd,
		NumUnits:     1,
		TimeUnit:     "D",
		ZeroDatetime: day(0),
		FillNatFunc:  func() time.Time { return day(0) },
	}
	tr := NewDateTimeTransform(cfg)

	fit := fitArr(t, []any{ww.Datetime{T: day(5)}, ww.Datetime{T: day(5)}, ww.Datetime{T: day(5)}})
	if err := tr.Fit(fit); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if tr.std != 1 {
		t.Fatalf("expected a degenerate zero std to be patched to 1, got %v", tr.std)
	}
}

func TestDateTimeTransformDegenerateMinMaxPatched(t *testing.T) {
	cfg := Config{
		NormMode:     NormMinMax,
		NumUnits:     1,
		TimeUnit:     "D",
		ZeroDatetime: day(0),
		FillNatFunc:  func() time.Time { return day(0) },
	}
	tr := NewDateTimeTransform(cfg)

	fit := fitArr(t, []any{ww.Datetime{T: day(3)}, ww.Datetime{T: day(3)}})
	if err := tr.Fit(fit); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if tr.min != tr.max-1 {
		t.Fatalf("expected a degenerate min==max to be patched to max+1 (min=max-1), got min=%v max=%v", tr.min, tr.max)
	}
}

func TestDateTimeTransformEmptyFitError(t *testing.T) {
	cfg := Config{NormMode: NormNone, NumUnits: 1, TimeUnit: "D", ZeroDatetime: day(0), FillNatFunc: func() time.Time { return day(0) }}
	tr := NewDateTimeTransform(cfg)

	empty, err := ww.NewArray([]int{0}, ww.DtypeDatetime, nil)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if err := tr.Fit(empty); err == nil {
		t.Fatal("expected an EmptyFitError fitting on a zero-length array")
	} else if _, ok := err.(*ww.EmptyFitError); !ok {
		t.Fatalf("expected *ww.EmptyFitError, got %T", err)
	}

	allNaT := fitArr(t, []any{ww.Datetime{IsNaT: true}, ww.Datetime{IsNaT: true}})
	if err := tr.Fit(allNaT); err == nil {
		t.Fatal("expected an EmptyFitError fitting on an all-NaT array")
	} else if _, ok := err.(*ww.EmptyFitError); !ok {
		t.Fatalf("expected *ww.EmptyFitError, got %T", err)
	}
}

func keysOf(m map[string]ww.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// findTap locates a tap by loose substring match on its fully qualified
// name (e.g. ".../Isnat_0/tubes/target"), since exact tank-instance
// numbering is an internal naming-scope detail.
func findTap(m map[string]ww.Value, kindFragment, tubeKey string) (ww.Value, bool) {
	for k, v := range m {
		if strings.Contains(k, kindFragment) && strings.HasSuffix(k, "/"+tubeKey) {
			return v, true
		}
	}
	return ww.Value{}, false
}
