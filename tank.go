package waterworks

import "fmt"

// PourFunc computes a tank's tubes from its slots.
type PourFunc func(ins map[string]Value) (map[string]Value, error)

// PumpFunc computes a tank's slots from its tubes (the inverse of
// PourFunc). Every tube the tank declares is present in outs; every
// slot the tank declares must be present in the returned map.
type PumpFunc func(outs map[string]Value) (map[string]Value, error)

// Tank is one primitive operation in a Waterwork: a named node with a
// fixed set of Slots (inputs) and Tubes (outputs), plus the forward
// (PourFunc) and backward (PumpFunc) functions that make it reversible.
// The catalog (package tanks) builds Tanks; this type has no knowledge
// of what any particular kind computes.
type Tank struct {
	WW    *Waterwork
	Kind  string
	Name  string
	Slots map[string]*Slot
	Tubes map[string]*Tube
	pour  PourFunc
	pump  PumpFunc
}

func (t *Tank) String() string { return t.Name }

type tankConfig struct {
	name      string
	overrides map[string]Descriptor
}

// TankOption configures a Tank at construction time.
type TankOption func(*tankConfig)

// WithName gives the tank an explicit name instead of a minted default.
func WithName(name string) TankOption {
	return func(c *tankConfig) { c.name = name }
}

// WithTypeOverride overrides the inferred Descriptor of one of the
// tank's tubes, mirroring the Python catalog's optional type_dict
// keyword argument.
func WithTypeOverride(key string, d Descriptor) TankOption {
	return func(c *tankConfig) {
		if c.overrides == nil {
			c.overrides = make(map[string]Descriptor)
		}
		c.overrides[key] = d
	}
}

// openSlot is the sentinel type for Open, meaning "leave this slot
// unconnected" (a funnel) rather than binding it to a value or tube.
type openSlot struct{}

// Open, passed as a tank constructor argument, leaves that slot as a
// free funnel instead of binding a value or tube to it.
var Open = openSlot{}

// NewTank registers a new Tank of the given kind in ww (or the active
// Waterwork, if ww is nil), with slots and tubes named per
// slotSchema/tubeSchema. Catalog constructors call this once they've
// built pour/pump and worked out each tube's Descriptor.
func NewTank(ww *Waterwork, kind string, slotSchema, tubeSchema map[string]Descriptor, pour PourFunc, pump PumpFunc, opts ...TankOption) (*Tank, error) {
	w, err := resolveWaterwork(ww)
	if err != nil {
		return nil, err
	}
	cfg := &tankConfig{}
	for _, o := range opts {
		o(cfg)
	}
	name := cfg.name
	if name == "" {
		name = w.scope.defaultTankName(kind)
	}
	full := w.qualify(name)
	if err := w.scope.claim(full); err != nil {
		return nil, err
	}
	t := &Tank{
		WW:    w,
		Kind:  kind,
		Name:  full,
		Slots: make(map[string]*Slot, len(slotSchema)),
		Tubes: make(map[string]*Tube, len(tubeSchema)),
		pour:  pour,
		pump:  pump,
	}
	for key, d := range slotSchema {
		slotName := fmt.Sprintf("%s/slots/%s", full, key)
		if err := w.scope.claim(slotName); err != nil {
			return nil, err
		}
		t.Slots[key] = &Slot{Tank: t, Key: key, Name: slotName, Descriptor: d}
	}
	for key, d := range tubeSchema {
		if ov, ok := cfg.overrides[key]; ok {
			d = ov
		}
		tubeName := fmt.Sprintf("%s/tubes/%s", full, key)
		if err := w.scope.claim(tubeName); err != nil {
			return nil, err
		}
		t.Tubes[key] = &Tube{Tank: t, Key: key, Name: tubeName, Descriptor: d}
	}
	w.tanks[full] = t
	for _, s := range t.Slots {
		w.slotsByName[s.Name] = s
	}
	for _, tb := range t.Tubes {
		w.tubesByName[tb.Name] = tb
	}
	return t, nil
}

// Bind connects arg to the tank's slot named key. arg may be a *Tube, a
// *Placeholder, waterworks.Open (leave the slot free), or any raw value
// Infer can turn into a Value (in which case a fresh Placeholder is
// created to hold it).
func (t *Tank) Bind(key string, arg any) error {
	slot, ok := t.Slots[key]
	if !ok {
		return fmt.Errorf("waterworks: tank %q has no slot %q", t.Name, key)
	}
	switch v := arg.(type) {
	case openSlot:
		return nil
	case *Tube:
		if !v.Descriptor.Compatible(slot.Descriptor) {
			return &TypeMismatchError{Where: slot.Name, Want: slot.Descriptor, Got: v.Descriptor}
		}
		return t.WW.connect(v, slot)
	case *Placeholder:
		if !v.Descriptor.Compatible(slot.Descriptor) {
			return &TypeMismatchError{Where: slot.Name, Want: slot.Descriptor, Got: v.Descriptor}
		}
		return t.WW.connect(v.Tube, slot)
	default:
		val, err := Infer(arg)
		if err != nil {
			return err
		}
		if !val.Compatible(slot.Descriptor) {
			return &TypeMismatchError{Where: slot.Name, Want: slot.Descriptor, Got: val.Descriptor}
		}
		ph, err := NewPlaceholder(t.WW, val.Descriptor, "")
		if err != nil {
			return err
		}
		if err := ph.SetVal(val); err != nil {
			return err
		}
		return t.WW.connect(ph.Tube, slot)
	}
}

// PourDependencies returns the tanks whose tubes feed this tank's
// slots: the tanks that must pour before this one can.
func (t *Tank) PourDependencies() []*Tank {
	seen := make(map[*Tank]bool)
	var deps []*Tank
	for _, s := range t.Slots {
		if s.Tube != nil && s.Tube.Tank != nil && !seen[s.Tube.Tank] {
			seen[s.Tube.Tank] = true
			deps = append(deps, s.Tube.Tank)
		}
	}
	return deps
}

// PumpDependencies returns the tanks whose slots are fed by this tank's
// tubes: the tanks that must pump before this one can (the reverse of
// PourDependencies).
func (t *Tank) PumpDependencies() []*Tank {
	seen := make(map[*Tank]bool)
	var deps []*Tank
	for _, tb := range t.Tubes {
		if tb.Slot != nil && tb.Slot.Tank != nil && !seen[tb.Slot.Tank] {
			seen[tb.Slot.Tank] = true
			deps = append(deps, tb.Slot.Tank)
		}
	}
	return deps
}
