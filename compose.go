package waterworks

import (
	"fmt"
	"strings"
)

// JoinPoint names one tap-to-funnel seam used by Merge and Combine: the
// tube (a tap of one Waterwork) feeds the slot (a free funnel of the
// other).
type JoinPoint struct {
	Tube *Tube
	Slot *Slot
}

// Merge destructively folds a and b into a freshly named Waterwork,
// wiring each JoinPoint's tube directly to its slot. a and b are left
// empty afterwards: every tank, slot, tube and placeholder they owned
// now belongs to the result, matching the Python original's ownership
// transfer (reversible_transforms/waterworks/waterwork.py, merge()).
// Use Combine instead if a and b must remain usable.
func Merge(name string, a, b *Waterwork, joins []JoinPoint, opts ...WaterworkOption) (*Waterwork, error) {
	for _, j := range joins {
		if j.Tube.Slot != nil {
			return nil, fmt.Errorf("waterworks: merge: tube %q is not a free tap", j.Tube.Name)
		}
		if j.Slot.Tube != nil {
			return nil, fmt.Errorf("waterworks: merge: slot %q is not a free funnel", j.Slot.Name)
		}
	}
	for _, j := range joins {
		j.Tube.Slot = j.Slot
		j.Slot.Tube = j.Tube
		if j.Tube.val != nil {
			j.Slot.val = j.Tube.val
		}
	}

	ww := New(name, opts...)
	if _, _, _, _, err := copyInto(ww, a); err != nil {
		return nil, err
	}
	if _, _, _, _, err := copyInto(ww, b); err != nil {
		return nil, err
	}

	emptyWaterwork(a)
	emptyWaterwork(b)
	return ww, nil
}

// Combine non-destructively reconstructs fresh copies of every tank in
// a and b inside a new Waterwork, wiring each JoinPoint between the
// copies. a and b are untouched and remain independently usable,
// matching the Python original's combine() (which rebuilds each tank
// via its constructor rather than moving the originals).
func Combine(name string, a, b *Waterwork, joins []JoinPoint, opts ...WaterworkOption) (*Waterwork, error) {
	ww := New(name, opts...)
	_, aSlots, aTubes, _, err := copyInto(ww, a)
	if err != nil {
		return nil, err
	}
	_, bSlots, bTubes, _, err := copyInto(ww, b)
	if err != nil {
		return nil, err
	}
	lookupSlot := func(s *Slot) *Slot {
		if c, ok := aSlots[s]; ok {
			return c
		}
		return bSlots[s]
	}
	lookupTube := func(t *Tube) *Tube {
		if c, ok := aTubes[t]; ok {
			return c
		}
		return bTubes[t]
	}
	for _, j := range joins {
		tube := lookupTube(j.Tube)
		slot := lookupSlot(j.Slot)
		if tube == nil || slot == nil {
			return nil, fmt.Errorf("waterworks: combine: join point not found among copied parts")
		}
		if err := ww.connect(tube, slot); err != nil {
			return nil, err
		}
	}
	return ww, nil
}

// copyInto deep-copies every tank, slot, tube and placeholder of src
// into dst, renaming each part's qualified name to sit under dst's
// name instead of src's, and preserving internal wiring (tube<->slot)
// between the copies. It returns the old->new maps for tanks, slots,
// tubes and placeholders so callers (Combine) can translate join
// points expressed against the originals.
func copyInto(dst *Waterwork, src *Waterwork) (map[*Tank]*Tank, map[*Slot]*Slot, map[*Tube]*Tube, map[*Placeholder]*Placeholder, error) {
	tanks := make(map[*Tank]*Tank, len(src.tanks))
	slots := make(map[*Slot]*Slot)
	tubes := make(map[*Tube]*Tube)
	places := make(map[*Placeholder]*Placeholder, len(src.placeholders))

	rename := func(old string) string {
		return strings.Replace(old, src.Name, dst.Name, 1)
	}

	for _, t := range src.allTanks() {
		nt := &Tank{
			WW:    dst,
			Kind:  t.Kind,
			Name:  rename(t.Name),
			Slots: make(map[string]*Slot, len(t.Slots)),
			Tubes: make(map[string]*Tube, len(t.Tubes)),
			pour:  t.pour,
			pump:  t.pump,
		}
		if err := dst.scope.claim(nt.Name); err != nil {
			return nil, nil, nil, nil, err
		}
		for key, s := range t.Slots {
			ns := &Slot{Tank: nt, Key: key, Name: rename(s.Name), Descriptor: s.Descriptor, val: s.val}
			nt.Slots[key] = ns
			slots[s] = ns
			dst.scope.names[ns.Name] = struct{}{}
			dst.slotsByName[ns.Name] = ns
		}
		for key, tb := range t.Tubes {
			ntb := &Tube{Tank: nt, Key: key, Name: rename(tb.Name), Descriptor: tb.Descriptor, val: tb.val}
			nt.Tubes[key] = ntb
			tubes[tb] = ntb
			dst.scope.names[ntb.Name] = struct{}{}
			dst.tubesByName[ntb.Name] = ntb
		}
		tanks[t] = nt
		dst.tanks[nt.Name] = nt
	}

	// Second pass: wire the copies' slot<->tube links to mirror the
	// originals now that every part has a copy.
	for oldSlot, newSlot := range slots {
		if oldSlot.Tube != nil {
			newSlot.Tube = tubes[oldSlot.Tube]
		}
	}
	for oldTube, newTube := range tubes {
		if oldTube.Slot != nil {
			newTube.Slot = slots[oldTube.Slot]
		}
	}

	for name, p := range src.placeholders {
		newName := rename(name)
		if err := dst.scope.claim(newName); err != nil {
			return nil, nil, nil, nil, err
		}
		var tube *Tube
		if p.Tube.Slot != nil {
			tube = &Tube{Tank: nil, Key: "", Name: newName, Descriptor: p.Tube.Descriptor, val: p.Tube.val, Slot: slots[p.Tube.Slot]}
		} else {
			tube = &Tube{Tank: nil, Key: "", Name: newName, Descriptor: p.Tube.Descriptor, val: p.Tube.val}
		}
		np := &Placeholder{WW: dst, Name: newName, Descriptor: p.Descriptor, Tube: tube, val: p.val}
		places[p] = np
		dst.placeholders[newName] = np
		dst.tubesByName[newName] = tube
		if tube.Slot != nil {
			tube.Slot.Tube = tube
		}
	}

	return tanks, slots, tubes, places, nil
}

func emptyWaterwork(ww *Waterwork) {
	ww.tanks = make(map[string]*Tank)
	ww.slotsByName = make(map[string]*Slot)
	ww.tubesByName = make(map[string]*Tube)
	ww.placeholders = make(map[string]*Placeholder)
	ww.scope = newNameScope()
}
