package waterworks

import (
	"fmt"
	"strings"
	"sync"
)

// activeMu guards activeWaterwork, the single process-wide Waterwork
// that tank constructors attach to. Only one Waterwork may be active at
// a time: entering a second one while the first hasn't Exit'd is a
// ScopeConflictError, mirroring the Python original's single global
// "_default_waterwork" (see original_source/reversible_transforms/
// waterworks/waterwork.py, __enter__/__exit__).
var (
	activeMu        sync.Mutex
	activeWaterwork *Waterwork
)

// Enter makes ww the active Waterwork for this process. Tank
// constructors that aren't given an explicit Waterwork attach to
// whichever one is active. Only one Waterwork may be active at a time.
func (ww *Waterwork) Enter() error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if activeWaterwork != nil {
		return &ScopeConflictError{Active: activeWaterwork.Name, Tried: ww.Name}
	}
	activeWaterwork = ww
	return nil
}

// Exit clears ww as the active Waterwork. It is an error to Exit a
// Waterwork that isn't currently active.
func (ww *Waterwork) Exit() error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if activeWaterwork != ww {
		active := "<none>"
		if activeWaterwork != nil {
			active = activeWaterwork.Name
		}
		return &ScopeConflictError{Active: active, Tried: ww.Name}
	}
	activeWaterwork = nil
	return nil
}

// ActiveWaterwork returns the process's currently active Waterwork, or
// nil if none has Enter'd.
func ActiveWaterwork() *Waterwork {
	activeMu.Lock()
	defer activeMu.Unlock()
	return activeWaterwork
}

// resolveWaterwork picks the Waterwork a tank constructor should attach
// to: an explicit one if given, otherwise the active scope. Returns an
// error if neither is available.
func resolveWaterwork(explicit *Waterwork) (*Waterwork, error) {
	if explicit != nil {
		return explicit, nil
	}
	ww := ActiveWaterwork()
	if ww == nil {
		return nil, fmt.Errorf("waterworks: no active Waterwork; call Enter() or pass one explicitly")
	}
	return ww, nil
}

// nameScope tracks this Waterwork's name bookkeeping: a flat set of
// every fully qualified name in use (tanks, slots, tubes, placeholders,
// funnels, taps), and a per-tank-kind counter used to mint default tank
// names ("Add_0", "Add_1", ...), matching the Python original's
// name-scope defaulting.
type nameScope struct {
	mu       sync.Mutex
	names    map[string]struct{}
	kindSeen map[string]int
}

func newNameScope() *nameScope {
	return &nameScope{
		names:    make(map[string]struct{}),
		kindSeen: make(map[string]int),
	}
}

// claim registers name as taken, returning a NameCollisionError if it
// was already in use.
func (s *nameScope) claim(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return &NameCollisionError{Name: name}
	}
	s.names[name] = struct{}{}
	return nil
}

func (s *nameScope) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, name)
}

// defaultTankName mints "<Kind>_<n>" for the n-th unnamed tank of this
// kind constructed in ww.
func (s *nameScope) defaultTankName(kind string) string {
	s.mu.Lock()
	n := s.kindSeen[kind]
	s.kindSeen[kind] = n + 1
	s.mu.Unlock()
	return fmt.Sprintf("%s_%d", pascalCase(kind), n)
}

func pascalCase(kind string) string {
	parts := strings.Split(kind, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
