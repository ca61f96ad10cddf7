package stats

import (
	"fmt"
	"strconv"
)

// Kind is the numeric representation of a counter. It never changes after creation.
type Kind uint8

const (
	KindInteger Kind = iota + 1
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k == KindInteger || k == KindFloat
}

// Value is a tagged integer-or-float number. The zero Value has no kind and is
// rejected by every counter mutation.
type Value struct {
	kind Kind
	i    int64
	f    float64
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Zero returns the zero value of the given kind.
func Zero(k Kind) Value {
	if k == KindFloat {
		return Float(0)
	}
	return Int(0)
}

func (v Value) Kind() Kind { return v.kind }

// AsInt returns the integer payload, or ErrKindMismatch for a float Value.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInteger {
		return 0, fmt.Errorf("value is %s: %w", v.kind, ErrKindMismatch)
	}
	return v.i, nil
}

// AsFloat returns the float payload, or ErrKindMismatch for an integer Value.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("value is %s: %w", v.kind, ErrKindMismatch)
	}
	return v.f, nil
}

// Float64 converts either kind to float64, for consumers that do not care.
func (v Value) Float64() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return float64(v.i)
}

// AppendText appends the wire rendering of v.
func (v Value) AppendText(dst []byte) []byte {
	switch v.kind {
	case KindFloat:
		return strconv.AppendFloat(dst, v.f, 'f', 6, 64)
	case KindInteger:
		return strconv.AppendInt(dst, v.i, 10)
	default:
		return append(dst, '0')
	}
}

func (v Value) String() string {
	return string(v.AppendText(nil))
}

// add returns v+o, widening to float when either side is a float.
func (v Value) add(o Value) Value {
	if v.kind == KindInteger && o.kind == KindInteger {
		return Int(v.i + o.i)
	}
	return Float(v.Float64() + o.Float64())
}
