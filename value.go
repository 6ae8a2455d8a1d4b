package waterworks

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ValType is the coarse shape of a Value: array payload, one of the
// scalar kinds used for tank configuration, or a small structural kind
// (mapping/tuple/sequence/function) used by tanks that take auxiliary,
// non-reversed parameters (category maps, axes, tokenizers, ...).
type ValType int

const (
	ValTypeArray ValType = iota
	ValTypeScalarInt
	ValTypeScalarFloat
	ValTypeScalarString
	ValTypeScalarBool
	ValTypeMapping
	ValTypeTuple
	ValTypeSequence
	ValTypeFunction
)

func (t ValType) String() string {
	switch t {
	case ValTypeArray:
		return "array"
	case ValTypeScalarInt:
		return "int"
	case ValTypeScalarFloat:
		return "float"
	case ValTypeScalarString:
		return "string"
	case ValTypeScalarBool:
		return "bool"
	case ValTypeMapping:
		return "mapping"
	case ValTypeTuple:
		return "tuple"
	case ValTypeSequence:
		return "sequence"
	case ValTypeFunction:
		return "function"
	default:
		return fmt.Sprintf("ValType(%d)", int(t))
	}
}

// ValDtype is the element type of an array Value. It is meaningless
// for non-array ValTypes.
type ValDtype int

const (
	DtypeNone ValDtype = iota
	DtypeFloat64
	DtypeInt64
	DtypeBool
	DtypeString
	DtypeDatetime
)

func (d ValDtype) String() string {
	switch d {
	case DtypeNone:
		return "none"
	case DtypeFloat64:
		return "float64"
	case DtypeInt64:
		return "int64"
	case DtypeBool:
		return "bool"
	case DtypeString:
		return "string"
	case DtypeDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("ValDtype(%d)", int(d))
	}
}

// Descriptor is the two-part type tag every Slot, Tube and Placeholder
// carries: a ValType and, for arrays, a ValDtype.
type Descriptor struct {
	Type  ValType
	Dtype ValDtype
}

func (d Descriptor) String() string {
	if d.Type == ValTypeArray {
		return fmt.Sprintf("array[%s]", d.Dtype)
	}
	return d.Type.String()
}

// Compatible reports whether a Value with descriptor d may flow into a
// slot or tube declared with descriptor other. Array dtypes must match
// unless one side is DtypeNone (undeclared, accepts anything).
func (d Descriptor) Compatible(other Descriptor) bool {
	if d.Type != other.Type {
		return false
	}
	if d.Type != ValTypeArray {
		return true
	}
	if d.Dtype == DtypeNone || other.Dtype == DtypeNone {
		return true
	}
	return d.Dtype == other.Dtype
}

// Datetime is the array element type for DtypeDatetime. IsNaT mirrors
// numpy's NaT (not-a-time) sentinel: a datetime slot that is present in
// the array but carries no valid value.
type Datetime struct {
	T    time.Time
	IsNaT bool
}

// Value is the opaque payload carried by a Slot, Tube or Placeholder,
// tagged with its Descriptor. Raw holds the actual Go value: *Array for
// ValTypeArray, and one of int64/float64/string/bool/map[string]int64/
// Tuple/Sequence/func(string) []string for the scalar/structural kinds.
type Value struct {
	Descriptor
	Raw any
}

// Tuple is an ordered, fixed-size, heterogeneous structural Value kind
// (e.g. a cat_to_index "(cats, cat_to_index_map)" style pairing).
type Tuple []Value

// Sequence is an ordered, variable-length, homogeneous-in-use
// structural Value kind (e.g. concatenate's input list).
type Sequence []Value

// Int wraps a scalar int64 Value.
func Int(v int64) Value { return Value{Descriptor{ValTypeScalarInt, DtypeNone}, v} }

// Float wraps a scalar float64 Value.
func Float(v float64) Value { return Value{Descriptor{ValTypeScalarFloat, DtypeNone}, v} }

// Str wraps a scalar string Value.
func Str(v string) Value { return Value{Descriptor{ValTypeScalarString, DtypeNone}, v} }

// Bool wraps a scalar bool Value.
func Bool(v bool) Value { return Value{Descriptor{ValTypeScalarBool, DtypeNone}, v} }

// ArrayVal wraps an *Array Value.
func ArrayVal(a *Array) Value { return Value{Descriptor{ValTypeArray, a.Dtype}, a} }

// MappingVal wraps a category->index mapping Value.
func MappingVal(m map[string]int64) Value { return Value{Descriptor{ValTypeMapping, DtypeNone}, m} }

// TupleVal wraps a Tuple Value.
func TupleVal(t Tuple) Value { return Value{Descriptor{ValTypeTuple, DtypeNone}, t} }

// SequenceVal wraps a Sequence Value.
func SequenceVal(s Sequence) Value { return Value{Descriptor{ValTypeSequence, DtypeNone}, s} }

// FuncVal wraps a function Value (a tokenizer, lemmatizer, etc). fn is
// stored opaquely; tanks that use it type-assert to the signature they
// expect.
func FuncVal(fn any) Value { return Value{Descriptor{ValTypeFunction, DtypeNone}, fn} }

// Infer builds a Value from an arbitrary Go payload, coercing raw
// numeric/string/bool/slice payloads into the closest Value kind. It is
// the entry point used when a caller supplies a placeholder's initial
// value, or a tank constructor argument that isn't already a Value.
func Infer(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case *Array:
		return ArrayVal(v), nil
	case Tuple:
		return TupleVal(v), nil
	case Sequence:
		return SequenceVal(v), nil
	case map[string]int64:
		return MappingVal(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return Str(v), nil
	case bool:
		return Bool(v), nil
	case time.Time:
		arr, err := NewArray([]int{}, DtypeDatetime, []any{Datetime{T: v}})
		if err != nil {
			return Value{}, err
		}
		return ArrayVal(arr), nil
	case []float64, []int64, []bool, []string, []time.Time, []any:
		arr, err := arrayFromSlice(v)
		if err != nil {
			return Value{}, err
		}
		return ArrayVal(arr), nil
	case func(string) []string:
		return FuncVal(v), nil
	default:
		// Last resort: try to coerce to a float64 scalar via cast, the
		// same coercion tanks.Cast uses for arbitrary inputs.
		if f, err := cast.ToFloat64E(raw); err == nil {
			return Float(f), nil
		}
		return Value{}, fmt.Errorf("waterworks: cannot infer a Value for %T", raw)
	}
}

func arrayFromSlice(v any) (*Array, error) {
	switch s := v.(type) {
	case []float64:
		data := make([]any, len(s))
		for i, x := range s {
			data[i] = x
		}
		return NewArray([]int{len(s)}, DtypeFloat64, data)
	case []int64:
		data := make([]any, len(s))
		for i, x := range s {
			data[i] = x
		}
		return NewArray([]int{len(s)}, DtypeInt64, data)
	case []bool:
		data := make([]any, len(s))
		for i, x := range s {
			data[i] = x
		}
		return NewArray([]int{len(s)}, DtypeBool, data)
	case []string:
		data := make([]any, len(s))
		for i, x := range s {
			data[i] = x
		}
		return NewArray([]int{len(s)}, DtypeString, data)
	case []time.Time:
		data := make([]any, len(s))
		for i, x := range s {
			data[i] = Datetime{T: x}
		}
		return NewArray([]int{len(s)}, DtypeDatetime, data)
	case []any:
		return coerceAnySlice(s)
	default:
		return nil, fmt.Errorf("waterworks: unsupported array payload %T", v)
	}
}

// coerceAnySlice infers the narrowest common dtype for a []any payload
// (used when values cross a Go API boundary already boxed, e.g. from a
// reflection-free JSON decode) via spf13/cast.
func coerceAnySlice(s []any) (*Array, error) {
	if len(s) == 0 {
		return NewArray([]int{0}, DtypeFloat64, nil)
	}
	if _, ok := s[0].(string); ok {
		data := make([]any, len(s))
		for i, x := range s {
			str, err := cast.ToStringE(x)
			if err != nil {
				return nil, err
			}
			data[i] = str
		}
		return NewArray([]int{len(s)}, DtypeString, data)
	}
	if _, ok := s[0].(bool); ok {
		data := make([]any, len(s))
		for i, x := range s {
			b, err := cast.ToBoolE(x)
			if err != nil {
				return nil, err
			}
			data[i] = b
		}
		return NewArray([]int{len(s)}, DtypeBool, data)
	}
	data := make([]any, len(s))
	for i, x := range s {
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return nil, err
		}
		data[i] = f
	}
	return NewArray([]int{len(s)}, DtypeFloat64, data)
}
