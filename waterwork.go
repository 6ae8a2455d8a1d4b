package waterworks

import (
	"fmt"
	"log/slog"
	"sort"
)

// KeyMode selects how Pour and Pump interpret the keys of their input
// and output maps.
type KeyMode int

const (
	// KeyModeStr keys by fully qualified name (a string).
	KeyModeStr KeyMode = iota
	// KeyModeTuple keys by TupleKey{Tank, Key}.
	KeyModeTuple
	// KeyModeObj keys by the part itself (*Slot, *Tube or *Placeholder).
	KeyModeObj
)

func (m KeyMode) String() string {
	switch m {
	case KeyModeStr:
		return "str"
	case KeyModeTuple:
		return "tuple"
	case KeyModeObj:
		return "obj"
	default:
		return fmt.Sprintf("KeyMode(%d)", int(m))
	}
}

// TupleKey names a slot or tube by (tank name, key), the KeyModeTuple
// counterpart to a fully qualified string name.
type TupleKey struct {
	Tank string
	Key  string
}

// Hook observes tank execution during Pour/Pump, used by the graphdebug
// package to trace and render the dependency graph.
type Hook interface {
	OnTankStart(t *Tank, direction string)
	OnTankDone(t *Tank, direction string)
	OnTankError(ww *Waterwork, t *Tank, direction string, err error, order []*Tank)
}

// Waterwork is a named, directed acyclic graph of Tanks. Build one with
// New, Enter it, construct tanks against it (directly or through
// package tanks), Exit, then Pour and Pump.
type Waterwork struct {
	Name  string
	scope *nameScope

	tanks        map[string]*Tank
	slotsByName  map[string]*Slot
	tubesByName  map[string]*Tube
	placeholders map[string]*Placeholder

	logger        *slog.Logger
	debugReversal bool
	hooks         []Hook
}

// WaterworkOption configures a Waterwork at construction time.
type WaterworkOption func(*Waterwork)

// WithLogger attaches a structured logger; pour/pump emit Debug entries
// per tank and Error entries (with hooks rendering a dependency tree)
// when a tank's pour/pump function fails.
func WithLogger(l *slog.Logger) WaterworkOption {
	return func(ww *Waterwork) { ww.logger = l }
}

// WithDebugReversal enables a self-check after every Pour: the result
// is immediately Pumped back and compared against the original input,
// surfacing a ReversalViolationError if pump(pour(x)) != x. Intended
// for development and tests, not production use (it roughly doubles
// the cost of every Pour).
func WithDebugReversal(on bool) WaterworkOption {
	return func(ww *Waterwork) { ww.debugReversal = on }
}

// WithHook attaches an execution observer (see package graphdebug).
func WithHook(h Hook) WaterworkOption {
	return func(ww *Waterwork) { ww.hooks = append(ww.hooks, h) }
}

// New creates a Waterwork named name. Tank constructors attach to it when
// it is passed to them explicitly, or when it is the active Waterwork
// after Enter.
func New(name string, opts ...WaterworkOption) *Waterwork {
	ww := &Waterwork{
		Name:         name,
		scope:        newNameScope(),
		tanks:        make(map[string]*Tank),
		slotsByName:  make(map[string]*Slot),
		tubesByName:  make(map[string]*Tube),
		placeholders: make(map[string]*Placeholder),
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(ww)
	}
	return ww
}

// connect wires tube to slot. If tube already feeds a different slot, a
// Clone tank is transparently inserted so the existing connection and
// the new one both get their own copy of the value (the
// one-tube-to-one-slot invariant every other part of the engine
// relies on). Repeated fanout on the same tube chains additional
// clones, each absorbing one more consumer.
func (ww *Waterwork) connect(tube *Tube, slot *Slot) error {
	if slot.Tube != nil {
		return fmt.Errorf("waterworks: slot %q is already connected", slot.Name)
	}
	if tube.Slot == nil {
		tube.Slot = slot
		slot.Tube = tube
		if tube.val != nil {
			slot.val = tube.val
		}
		return nil
	}
	existing := tube.Slot
	clone, err := ww.newCloneTank(tube)
	if err != nil {
		return err
	}
	tube.Slot = nil
	existing.Tube = nil
	if err := ww.connect(tube, clone.Slots["a"]); err != nil {
		return err
	}
	if err := ww.connect(clone.Tubes["a"], existing); err != nil {
		return err
	}
	if err := ww.connect(clone.Tubes["b"], slot); err != nil {
		return err
	}
	return nil
}

// Tank looks up a tank by fully qualified name.
func (ww *Waterwork) Tank(name string) (*Tank, bool) {
	t, ok := ww.tanks[name]
	return t, ok
}

// Slot looks up a slot by fully qualified name.
func (ww *Waterwork) Slot(name string) (*Slot, bool) {
	s, ok := ww.slotsByName[name]
	return s, ok
}

// Tube looks up a tube by fully qualified name.
func (ww *Waterwork) Tube(name string) (*Tube, bool) {
	t, ok := ww.tubesByName[name]
	return t, ok
}

// Placeholder looks up a placeholder by fully qualified name.
func (ww *Waterwork) Placeholder(name string) (*Placeholder, bool) {
	p, ok := ww.placeholders[name]
	return p, ok
}

// funnelEntry is either a free Slot or a Placeholder: the two kinds of
// value every Pour must be supplied for.
type funnelEntry struct {
	name  string
	slot  *Slot
	place *Placeholder
}

func (ww *Waterwork) funnels() []funnelEntry {
	var out []funnelEntry
	for name, p := range ww.placeholders {
		out = append(out, funnelEntry{name: name, place: p})
	}
	for _, t := range ww.tanks {
		for _, s := range t.Slots {
			if s.Tube == nil {
				out = append(out, funnelEntry{name: s.Name, slot: s})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (ww *Waterwork) taps() []*Tube {
	var out []*Tube
	for _, t := range ww.tanks {
		for _, tb := range t.Tubes {
			if tb.Slot == nil {
				out = append(out, tb)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Taps returns every free tube in the graph (tubes with no slot
// attached) — the outputs Pour must fill and Pump must be supplied.
func (ww *Waterwork) Taps() []*Tube { return ww.taps() }

// Funnels returns every placeholder in the graph. Tank slots with no
// tube attached are funnels too (Pour takes them as inputs and Pump
// fills them), but they are not included here.
func (ww *Waterwork) Funnels() []*Placeholder {
	var out []*Placeholder
	for _, fe := range ww.funnels() {
		if fe.place != nil {
			out = append(out, fe.place)
		}
	}
	return out
}

func (ww *Waterwork) allTanks() []*Tank {
	out := make([]*Tank, 0, len(ww.tanks))
	for _, t := range ww.tanks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// resolveFunnelKey maps a Pour input key (interpreted per mode) to the
// funnelEntry it names.
func (ww *Waterwork) resolveFunnelKey(key any, mode KeyMode) (funnelEntry, error) {
	switch mode {
	case KeyModeStr:
		name, ok := key.(string)
		if !ok {
			return funnelEntry{}, &BadKeyModeError{Mode: mode, Key: key}
		}
		if p, ok := ww.placeholders[name]; ok {
			return funnelEntry{name: name, place: p}, nil
		}
		if s, ok := ww.slotsByName[name]; ok && s.Tube == nil {
			return funnelEntry{name: name, slot: s}, nil
		}
		return funnelEntry{}, &UnknownFunnelError{Key: name}
	case KeyModeTuple:
		tk, ok := key.(TupleKey)
		if !ok {
			return funnelEntry{}, &BadKeyModeError{Mode: mode, Key: key}
		}
		t, ok := ww.tanks[ww.qualify(tk.Tank)]
		if !ok {
			t, ok = ww.tanks[tk.Tank]
		}
		if !ok {
			return funnelEntry{}, &UnknownFunnelError{Key: fmt.Sprint(tk)}
		}
		s, ok := t.Slots[tk.Key]
		if !ok || s.Tube != nil {
			return funnelEntry{}, &UnknownFunnelError{Key: fmt.Sprint(tk)}
		}
		return funnelEntry{name: s.Name, slot: s}, nil
	case KeyModeObj:
		switch v := key.(type) {
		case *Slot:
			if v.Tube != nil {
				return funnelEntry{}, &UnknownFunnelError{Key: v.Name}
			}
			return funnelEntry{name: v.Name, slot: v}, nil
		case *Placeholder:
			return funnelEntry{name: v.Name, place: v}, nil
		default:
			return funnelEntry{}, &BadKeyModeError{Mode: mode, Key: key}
		}
	default:
		return funnelEntry{}, &BadKeyModeError{Mode: mode, Key: key}
	}
}

func (ww *Waterwork) resolveTapKey(key any, mode KeyMode) (*Tube, error) {
	switch mode {
	case KeyModeStr:
		name, ok := key.(string)
		if !ok {
			return nil, &BadKeyModeError{Mode: mode, Key: key}
		}
		tb, ok := ww.tubesByName[name]
		if !ok || tb.Slot != nil || tb.Tank == nil {
			return nil, &UnknownTapError{Key: name}
		}
		return tb, nil
	case KeyModeTuple:
		tk, ok := key.(TupleKey)
		if !ok {
			return nil, &BadKeyModeError{Mode: mode, Key: key}
		}
		t, ok := ww.tanks[ww.qualify(tk.Tank)]
		if !ok {
			t, ok = ww.tanks[tk.Tank]
		}
		if !ok {
			return nil, &UnknownTapError{Key: fmt.Sprint(tk)}
		}
		tb, ok := t.Tubes[tk.Key]
		if !ok || tb.Slot != nil {
			return nil, &UnknownTapError{Key: fmt.Sprint(tk)}
		}
		return tb, nil
	case KeyModeObj:
		tb, ok := key.(*Tube)
		if !ok || tb.Slot != nil {
			return nil, &BadKeyModeError{Mode: mode, Key: key}
		}
		return tb, nil
	default:
		return nil, &BadKeyModeError{Mode: mode, Key: key}
	}
}

// keyFor builds the result key for one part (a tap Tube, a funnel Slot,
// or a funnel Placeholder — exactly one of tube/slot/place is non-nil)
// under the given KeyMode.
func keyFor(mode KeyMode, name string, slot *Slot, tube *Tube, place *Placeholder) any {
	switch mode {
	case KeyModeStr:
		return name
	case KeyModeTuple:
		switch {
		case slot != nil:
			return TupleKey{Tank: slot.Tank.Name, Key: slot.Key}
		case tube != nil:
			return TupleKey{Tank: tube.Tank.Name, Key: tube.Key}
		default:
			return TupleKey{Tank: "", Key: name}
		}
	case KeyModeObj:
		switch {
		case slot != nil:
			return slot
		case tube != nil:
			return tube
		default:
			return place
		}
	default:
		return name
	}
}

// ClearVals resets every slot and tube value to unset, without touching
// graph structure. A constant a placeholder was given with SetVal is
// kept, so the next Pour still sees it. Transforms call this between
// runs instead of rebuilding their Waterwork from scratch.
func (ww *Waterwork) ClearVals() {
	for _, p := range ww.placeholders {
		p.Tube.val = nil
	}
	for _, t := range ww.tanks {
		for _, s := range t.Slots {
			s.val = nil
		}
		for _, tb := range t.Tubes {
			tb.val = nil
		}
	}
}

// Pour runs the graph forward. inputs supplies a value for every
// funnel (keyed per mode), except placeholders that already hold a
// constant from SetVal; the result supplies a value for every tap.
func (ww *Waterwork) Pour(inputs map[any]Value, mode KeyMode) (map[any]Value, error) {
	funnels := ww.funnels()
	seen := make(map[string]bool, len(funnels))
	for key, v := range inputs {
		fe, err := ww.resolveFunnelKey(key, mode)
		if err != nil {
			return nil, err
		}
		if fe.place != nil {
			if !v.Compatible(fe.place.Descriptor) {
				return nil, &TypeMismatchError{Where: fe.name, Want: fe.place.Descriptor, Got: v.Descriptor}
			}
			if err := propagate(fe.place.Tube, v); err != nil {
				return nil, err
			}
		} else {
			if !v.Compatible(fe.slot.Descriptor) {
				return nil, &TypeMismatchError{Where: fe.name, Want: fe.slot.Descriptor, Got: v.Descriptor}
			}
			if err := propagateSlot(fe.slot, v); err != nil {
				return nil, err
			}
		}
		seen[fe.name] = true
	}
	for _, fe := range funnels {
		if seen[fe.name] {
			continue
		}
		if fe.place != nil && fe.place.val != nil {
			if err := propagate(fe.place.Tube, *fe.place.val); err != nil {
				return nil, err
			}
			continue
		}
		return nil, &MissingInputError{Key: fe.name}
	}

	order, err := topoSort(ww.allTanks(), (*Tank).PourDependencies)
	if err != nil {
		return nil, err
	}

	for _, t := range order {
		ww.logger.Debug("pour", "tank", t.Name, "kind", t.Kind)
		for _, h := range ww.hooks {
			h.OnTankStart(t, "pour")
		}
		ins := make(map[string]Value, len(t.Slots))
		for key, s := range t.Slots {
			if s.val == nil {
				return nil, &MissingInputError{Key: s.Name}
			}
			ins[key] = *s.val
		}
		outs, err := t.pour(ins)
		if err != nil {
			wrapped := &TankError{Tank: t.Name, Direction: "pour", Cause: err}
			ww.logger.Error("pour failed", "tank", t.Name, "error", err)
			for _, h := range ww.hooks {
				h.OnTankError(ww, t, "pour", wrapped, order)
			}
			return nil, wrapped
		}
		for key, tb := range t.Tubes {
			v, ok := outs[key]
			if !ok {
				return nil, fmt.Errorf("waterworks: tank %q pour did not set tube %q", t.Name, key)
			}
			if !v.Compatible(tb.Descriptor) {
				return nil, &TypeMismatchError{Where: tb.Name, Want: tb.Descriptor, Got: v.Descriptor}
			}
			if err := propagate(tb, v); err != nil {
				return nil, err
			}
		}
		for _, h := range ww.hooks {
			h.OnTankDone(t, "pour")
		}
	}

	result := make(map[any]Value)
	for _, tb := range ww.taps() {
		if tb.val == nil {
			return nil, fmt.Errorf("waterworks: tap %q was never set", tb.Name)
		}
		result[keyFor(mode, tb.Name, nil, tb, nil)] = *tb.val
	}

	if ww.debugReversal {
		if err := ww.checkReversal(inputs, result, mode); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (ww *Waterwork) checkReversal(original map[any]Value, poured map[any]Value, mode KeyMode) error {
	back, err := ww.Pump(poured, mode)
	if err != nil {
		return &ReversalViolationError{Funnel: ww.Name, Cause: err}
	}
	for key, want := range original {
		got, ok := back[key]
		if !ok {
			return &ReversalViolationError{Funnel: fmt.Sprint(key), Cause: fmt.Errorf("funnel missing from pump result")}
		}
		if !valuesEqual(want, got) {
			return &ReversalViolationError{Funnel: fmt.Sprint(key), Want: want, Got: got}
		}
	}
	return nil
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	if arrA, ok := a.Raw.(*Array); ok {
		arrB, ok := b.Raw.(*Array)
		return ok && arrA.Equal(arrB)
	}
	return a.Raw == b.Raw
}

// Pump runs the graph backward: inputs supplies a value for every tap
// (keyed per mode), and the result supplies a value for every funnel.
func (ww *Waterwork) Pump(inputs map[any]Value, mode KeyMode) (map[any]Value, error) {
	taps := ww.taps()
	seen := make(map[string]bool, len(taps))
	for key, v := range inputs {
		tb, err := ww.resolveTapKey(key, mode)
		if err != nil {
			return nil, err
		}
		if !v.Compatible(tb.Descriptor) {
			return nil, &TypeMismatchError{Where: tb.Name, Want: tb.Descriptor, Got: v.Descriptor}
		}
		if err := propagate(tb, v); err != nil {
			return nil, err
		}
		seen[tb.Name] = true
	}
	for _, tb := range taps {
		if !seen[tb.Name] {
			return nil, &MissingInputError{Key: tb.Name}
		}
	}

	order, err := topoSort(ww.allTanks(), (*Tank).PumpDependencies)
	if err != nil {
		return nil, err
	}

	for _, t := range order {
		ww.logger.Debug("pump", "tank", t.Name, "kind", t.Kind)
		for _, h := range ww.hooks {
			h.OnTankStart(t, "pump")
		}
		outs := make(map[string]Value, len(t.Tubes))
		for key, tb := range t.Tubes {
			if tb.val == nil {
				return nil, &MissingInputError{Key: tb.Name}
			}
			outs[key] = *tb.val
		}
		ins, err := t.pump(outs)
		if err != nil {
			wrapped := &TankError{Tank: t.Name, Direction: "pump", Cause: err}
			ww.logger.Error("pump failed", "tank", t.Name, "error", err)
			for _, h := range ww.hooks {
				h.OnTankError(ww, t, "pump", wrapped, order)
			}
			return nil, wrapped
		}
		for key, s := range t.Slots {
			v, ok := ins[key]
			if !ok {
				return nil, fmt.Errorf("waterworks: tank %q pump did not set slot %q", t.Name, key)
			}
			if !v.Compatible(s.Descriptor) {
				return nil, &TypeMismatchError{Where: s.Name, Want: s.Descriptor, Got: v.Descriptor}
			}
			if err := propagateSlot(s, v); err != nil {
				return nil, err
			}
		}
		for _, h := range ww.hooks {
			h.OnTankDone(t, "pump")
		}
	}

	result := make(map[any]Value)
	for _, fe := range ww.funnels() {
		if fe.place != nil {
			if fe.place.Tube.val == nil {
				return nil, fmt.Errorf("waterworks: funnel %q was never set", fe.name)
			}
			result[keyFor(mode, fe.name, nil, nil, fe.place)] = *fe.place.Tube.val
		} else {
			if fe.slot.val == nil {
				return nil, fmt.Errorf("waterworks: funnel %q was never set", fe.name)
			}
			result[keyFor(mode, fe.name, fe.slot, nil, nil)] = *fe.slot.val
		}
	}
	return result, nil
}
