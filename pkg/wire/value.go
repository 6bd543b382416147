package wire

import (
	"bytes"
	"fmt"
	"math"
)

// ValueType identifies which arm of Value is populated.
type ValueType uint8

const (
	TypeDouble ValueType = 1
	TypeInt64  ValueType = 2
	TypeUint64 ValueType = 3
	TypeBool   ValueType = 4
	TypeString ValueType = 5
	TypeBytes  ValueType = 6
)

// String returns the value type name.
func (t ValueType) String() string {
	switch t {
	case TypeDouble:
		return "double"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a tagged union over {double, int64, uint64, bool, string, bytes}.
//
// Equality is structural; for Double it is bitwise (Equal compares
// math.Float64bits) so that NaN equals NaN and +0 differs from -0 — polling
// must not emit change events for floating-point non-changes (spec §3).
type Value struct {
	Type ValueType `cbor:"1,keyasint"`
	D    float64   `cbor:"2,keyasint,omitempty"`
	I    int64     `cbor:"3,keyasint,omitempty"`
	U    uint64    `cbor:"4,keyasint,omitempty"`
	B    bool      `cbor:"5,keyasint,omitempty"`
	S    string    `cbor:"6,keyasint,omitempty"`
	Bs   []byte    `cbor:"7,keyasint,omitempty"`
}

// DoubleValue constructs a double-typed Value.
func DoubleValue(v float64) Value { return Value{Type: TypeDouble, D: v} }

// Int64Value constructs an int64-typed Value.
func Int64Value(v int64) Value { return Value{Type: TypeInt64, I: v} }

// Uint64Value constructs a uint64-typed Value.
func Uint64Value(v uint64) Value { return Value{Type: TypeUint64, U: v} }

// BoolValue constructs a bool-typed Value.
func BoolValue(v bool) Value { return Value{Type: TypeBool, B: v} }

// StringValue constructs a string-typed Value.
func StringValue(v string) Value { return Value{Type: TypeString, S: v} }

// BytesValue constructs a bytes-typed Value.
func BytesValue(v []byte) Value { return Value{Type: TypeBytes, Bs: v} }

// Equal reports whether two values are structurally identical, comparing
// double payloads by bit pattern rather than by ==.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeDouble:
		return math.Float64bits(v.D) == math.Float64bits(other.D)
	case TypeInt64:
		return v.I == other.I
	case TypeUint64:
		return v.U == other.U
	case TypeBool:
		return v.B == other.B
	case TypeString:
		return v.S == other.S
	case TypeBytes:
		return bytes.Equal(v.Bs, other.Bs)
	default:
		return false
	}
}

// String renders the value for logging/debugging.
func (v Value) String() string {
	switch v.Type {
	case TypeDouble:
		return fmt.Sprintf("%v", v.D)
	case TypeInt64:
		return fmt.Sprintf("%d", v.I)
	case TypeUint64:
		return fmt.Sprintf("%d", v.U)
	case TypeBool:
		return fmt.Sprintf("%v", v.B)
	case TypeString:
		return v.S
	case TypeBytes:
		return fmt.Sprintf("%x", v.Bs)
	default:
		return "<invalid>"
	}
}
