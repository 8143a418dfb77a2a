package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrIndexOutOfRange is returned by At for an index outside [0, Len).
var ErrIndexOutOfRange = errors.New("index out of range")

// TypedArray is a sealed interface over the homogeneous value sequences a
// keyword can carry. Only IntArray, FloatArray and StringArray implement it.
// Callers branch on Kind() or a type switch to read the values.
type TypedArray interface {
	Kind() ValueKind
	Len() int
	typedArray() // Sealed - only these types implement it
}

// IntArray is an immutable sequence of integers.
type IntArray struct {
	vals []int64
}

// FloatArray is an immutable sequence of floating-point values.
type FloatArray struct {
	vals []float64
}

// StringArray is an immutable sequence of strings.
type StringArray struct {
	vals []string
}

func (IntArray) typedArray()    {}
func (FloatArray) typedArray()  {}
func (StringArray) typedArray() {}

// NewIntArray creates an IntArray holding a copy of vals.
func NewIntArray(vals ...int64) IntArray {
	return IntArray{vals: slices.Clone(vals)}
}

// NewFloatArray creates a FloatArray holding a copy of vals.
func NewFloatArray(vals ...float64) FloatArray {
	return FloatArray{vals: slices.Clone(vals)}
}

// NewStringArray creates a StringArray holding a copy of vals.
func NewStringArray(vals ...string) StringArray {
	return StringArray{vals: slices.Clone(vals)}
}

// Kind returns KindInt.
func (a IntArray) Kind() ValueKind { return KindInt }

// Len returns the number of values.
func (a IntArray) Len() int { return len(a.vals) }

// At returns the value at index i.
func (a IntArray) At(i int) (int64, error) {
	if i < 0 || i >= len(a.vals) {
		return 0, indexError(i, len(a.vals))
	}
	return a.vals[i], nil
}

// All iterates over index/value pairs. Each call starts from the beginning.
func (a IntArray) All() iter.Seq2[int, int64] {
	return slices.All(a.vals)
}

// Values returns a copy of the values.
func (a IntArray) Values() []int64 {
	return slices.Clone(a.vals)
}

// MarshalJSON implements json.Marshaler.
func (a IntArray) MarshalJSON() ([]byte, error) {
	if a.vals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.vals)
}

// Kind returns KindFloat.
func (a FloatArray) Kind() ValueKind { return KindFloat }

// Len returns the number of values.
func (a FloatArray) Len() int { return len(a.vals) }

// At returns the value at index i.
func (a FloatArray) At(i int) (float64, error) {
	if i < 0 || i >= len(a.vals) {
		return 0, indexError(i, len(a.vals))
	}
	return a.vals[i], nil
}

// All iterates over index/value pairs. Each call starts from the beginning.
func (a FloatArray) All() iter.Seq2[int, float64] {
	return slices.All(a.vals)
}

// Values returns a copy of the values.
func (a FloatArray) Values() []float64 {
	return slices.Clone(a.vals)
}

// MarshalJSON implements json.Marshaler.
func (a FloatArray) MarshalJSON() ([]byte, error) {
	if a.vals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.vals)
}

// Kind returns KindString.
func (a StringArray) Kind() ValueKind { return KindString }

// Len returns the number of values.
func (a StringArray) Len() int { return len(a.vals) }

// At returns the value at index i.
func (a StringArray) At(i int) (string, error) {
	if i < 0 || i >= len(a.vals) {
		return "", indexError(i, len(a.vals))
	}
	return a.vals[i], nil
}

// All iterates over index/value pairs. Each call starts from the beginning.
func (a StringArray) All() iter.Seq2[int, string] {
	return slices.All(a.vals)
}

// Values returns a copy of the values.
func (a StringArray) Values() []string {
	return slices.Clone(a.vals)
}

// MarshalJSON implements json.Marshaler.
func (a StringArray) MarshalJSON() ([]byte, error) {
	if a.vals == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.vals)
}

func indexError(i, n int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, n)
}

// Equal reports whether a and b have the same kind and the same values in order.
// Float values compare with ==.
func Equal(a, b TypedArray) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case IntArray:
		bv, ok := b.(IntArray)
		return ok && slices.Equal(av.vals, bv.vals)
	case FloatArray:
		bv, ok := b.(FloatArray)
		return ok && slices.Equal(av.vals, bv.vals)
	case StringArray:
		bv, ok := b.(StringArray)
		return ok && slices.Equal(av.vals, bv.vals)
	default:
		return false
	}
}

// ArrayBuilder accumulates values for one record and hands them over to an
// immutable array without copying. A builder must not be reused after Build.
type ArrayBuilder struct {
	kind    ValueKind
	ints    []int64
	floats  []float64
	strings []string
}

// NewArrayBuilder creates a builder for the given kind.
// kind must be KindInt, KindFloat or KindString.
func NewArrayBuilder(kind ValueKind) *ArrayBuilder {
	return &ArrayBuilder{kind: kind}
}

// Kind returns the kind being built.
func (b *ArrayBuilder) Kind() ValueKind { return b.kind }

// Len returns the number of values appended so far.
func (b *ArrayBuilder) Len() int {
	switch b.kind {
	case KindInt:
		return len(b.ints)
	case KindFloat:
		return len(b.floats)
	default:
		return len(b.strings)
	}
}

// AppendInt appends to an int builder.
func (b *ArrayBuilder) AppendInt(v int64) { b.ints = append(b.ints, v) }

// AppendFloat appends to a float builder.
func (b *ArrayBuilder) AppendFloat(v float64) { b.floats = append(b.floats, v) }

// AppendString appends to a string builder.
func (b *ArrayBuilder) AppendString(v string) { b.strings = append(b.strings, v) }

// Build returns the accumulated values as a TypedArray.
func (b *ArrayBuilder) Build() TypedArray {
	switch b.kind {
	case KindInt:
		vals := b.ints
		b.ints = nil
		return IntArray{vals: vals}
	case KindFloat:
		vals := b.floats
		b.floats = nil
		return FloatArray{vals: vals}
	case KindString:
		vals := b.strings
		b.strings = nil
		return StringArray{vals: vals}
	default:
		panic(fmt.Sprintf("ArrayBuilder: cannot build kind %q", b.kind))
	}
}
