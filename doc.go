// Package waterworks builds reversible data-transformation graphs.
//
// A Waterwork is a directed acyclic graph of Tanks, small primitive
// operations wired together through Slots (inputs) and Tubes (outputs).
// Pour runs the graph forward, from funnels (free slots) to taps (free
// tubes); Pump runs the same graph backward, reconstructing the funnel
// values from the tap values a prior Pour produced.
//
//	ww := waterworks.New("example")
//	if err := ww.Enter(); err != nil {
//		log.Fatal(err)
//	}
//	defer ww.Exit()
//
//	a, _ := waterworks.NewPlaceholder(ww, waterworks.Descriptor{Type: waterworks.ValTypeArray, Dtype: waterworks.DtypeFloat64}, "a")
//	sum, _ := tanks.Add(ww, a, []float64{10})
//
//	out, err := ww.Pour(map[any]waterworks.Value{"example/a": waterworks.ArrayVal(...)}, waterworks.KeyModeStr)
//	...
//	back, err := ww.Pump(out, waterworks.KeyModeStr)
//
// The concrete arithmetic of individual tank kinds lives in the tanks
// subpackage; this package owns the graph: naming, scheduling, and the
// pour/pump drivers that guarantee pump(pour(x)) == x.
package waterworks
