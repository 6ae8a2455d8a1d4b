package waterworks

import "fmt"

// Slot is a Tank's input. A Slot with no Tube attached is a funnel: it
// needs a value supplied at Pour time (or produced by Pump).
type Slot struct {
	Tank       *Tank
	Key        string
	Name       string
	Descriptor Descriptor
	Tube       *Tube
	val        *Value
}

func (s *Slot) String() string { return s.Name }

// Tube is a Tank's output. A Tube with no Slot attached is a tap: it is
// produced at Pour time and must be supplied at Pump time.
type Tube struct {
	Tank       *Tank
	Key        string
	Name       string
	Descriptor Descriptor
	Slot       *Slot
	val        *Value
}

func (t *Tube) String() string { return t.Name }

// Placeholder is a standalone, named entry point: it has no Tank and no
// Slots, just a single synthetic Tube (Tube.Tank is nil) that can feed
// one or more Slots, same as any tank's tube. Passing a raw Go value to
// a tank constructor implicitly creates a Placeholder to hold it.
type Placeholder struct {
	WW         *Waterwork
	Name       string
	Descriptor Descriptor
	Tube       *Tube
	val        *Value
}

func (p *Placeholder) String() string { return p.Name }

// NewPlaceholder creates a named entry point of the given descriptor in
// ww (or the active Waterwork, if ww is nil). name may be "" to mint a
// default name.
func NewPlaceholder(ww *Waterwork, d Descriptor, name string) (*Placeholder, error) {
	w, err := resolveWaterwork(ww)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = w.scope.defaultTankName("placeholder")
	}
	full := w.qualify(name)
	if err := w.scope.claim(full); err != nil {
		return nil, err
	}
	tube := &Tube{Tank: nil, Key: "", Name: full, Descriptor: d}
	ph := &Placeholder{WW: w, Name: full, Descriptor: d, Tube: tube}
	w.placeholders[full] = ph
	w.tubesByName[full] = tube
	return ph, nil
}

// SetVal assigns a starting value to an unconnected Placeholder. Most
// callers instead supply placeholder values through Pour's funnel map;
// SetVal exists for building constant inputs ahead of time.
func (p *Placeholder) SetVal(v Value) error {
	if !v.Compatible(p.Descriptor) {
		return &TypeMismatchError{Where: p.Name, Want: p.Descriptor, Got: v.Descriptor}
	}
	p.val = &v
	return propagate(p.Tube, v)
}

// propagate mirrors a newly set Tube value into its connected Slot, and
// a Slot value into its source Tube, matching the Python original's
// "set on one side, mirror on the other" bookkeeping.
func propagate(t *Tube, v Value) error {
	t.val = &v
	if t.Slot != nil {
		t.Slot.val = &v
	}
	return nil
}

func propagateSlot(s *Slot, v Value) error {
	s.val = &v
	if s.Tube != nil {
		s.Tube.val = &v
	}
	return nil
}

func (ww *Waterwork) qualify(name string) string {
	if ww.Name == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", ww.Name, name)
}
