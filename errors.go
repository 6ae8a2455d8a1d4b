package waterworks

import "fmt"

// ScopeConflictError is returned when Enter is called while another
// Waterwork is already active, or Exit is called by a Waterwork that
// isn't the active one.
type ScopeConflictError struct {
	Active string
	Tried  string
}

func (e *ScopeConflictError) Error() string {
	return fmt.Sprintf("waterworks: scope conflict: %q is active, %q cannot enter", e.Active, e.Tried)
}

// NameCollisionError is returned when two parts in the same Waterwork
// would resolve to the same fully qualified name.
type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("waterworks: name collision: %q already exists in this scope", e.Name)
}

// TypeMismatchError is returned when a value's descriptor doesn't match
// the descriptor a slot or tube was declared with.
type TypeMismatchError struct {
	Where string
	Want  Descriptor
	Got   Descriptor
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("waterworks: type mismatch at %s: want %s, got %s", e.Where, e.Want, e.Got)
}

// UnknownFunnelError is returned when Pour is given a key that does not
// name a funnel of the Waterwork.
type UnknownFunnelError struct {
	Key string
}

func (e *UnknownFunnelError) Error() string {
	return fmt.Sprintf("waterworks: unknown funnel: %q", e.Key)
}

// UnknownTapError is returned when Pump is given a key that does not
// name a tap of the Waterwork.
type UnknownTapError struct {
	Key string
}

func (e *UnknownTapError) Error() string {
	return fmt.Sprintf("waterworks: unknown tap: %q", e.Key)
}

// MissingInputError is returned when Pour or Pump is called without
// values for every funnel or tap respectively.
type MissingInputError struct {
	Key string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("waterworks: missing input: %q was not provided", e.Key)
}

// CycleDetectedError is returned when the tank graph cannot be
// topologically ordered.
type CycleDetectedError struct {
	Tanks []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("waterworks: cycle detected among tanks: %v", e.Tanks)
}

// BadKeyModeError is returned when a KeyMode value isn't one of the
// recognized modes, or a key doesn't parse under the requested mode.
type BadKeyModeError struct {
	Mode KeyMode
	Key  any
}

func (e *BadKeyModeError) Error() string {
	return fmt.Sprintf("waterworks: bad key %v for mode %s", e.Key, e.Mode)
}

// EmptyFitError is returned when a Transform is fit on a zero-length
// array or on one with no usable entries, and when an unfitted
// Transform is asked to Pour or Pump.
type EmptyFitError struct {
	Transform string
}

func (e *EmptyFitError) Error() string {
	return fmt.Sprintf("waterworks: %s: cannot fit on an empty array", e.Transform)
}

// ReversalViolationError is returned by debug-mode self-checks when
// pump(pour(x)) != x for a funnel.
type ReversalViolationError struct {
	Funnel string
	Want   Value
	Got    Value
	Cause  error
}

func (e *ReversalViolationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("waterworks: reversal violation at funnel %q: %v", e.Funnel, e.Cause)
	}
	return fmt.Sprintf("waterworks: reversal violation at funnel %q: want %s got %s", e.Funnel, e.Want, e.Got)
}

func (e *ReversalViolationError) Unwrap() error { return e.Cause }

// TankError wraps an error returned by a tank's own pour/pump function
// with the tank's name and direction, so errors.As can still reach the
// underlying cause.
type TankError struct {
	Tank      string
	Direction string
	Cause     error
}

func (e *TankError) Error() string {
	return fmt.Sprintf("waterworks: tank %q %s: %v", e.Tank, e.Direction, e.Cause)
}

func (e *TankError) Unwrap() error { return e.Cause }
