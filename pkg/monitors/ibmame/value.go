package ibmame

import (
	"fmt"

	"github.com/signalfx/golib/v3/datapoint"
)

// ValueType is the declared type of a metric's value.  It is fixed in the
// descriptor table and never inferred from a polled value.
type ValueType int

const (
	// String values, such as "yes"/"no" flags and version strings
	String ValueType = iota
	// Uint32 values
	Uint32
	// Float values (single precision)
	Float
	// Double values
	Double
)

func (vt ValueType) String() string {
	switch vt {
	case String:
		return "string"
	case Uint32:
		return "uint32"
	case Float:
		return "float"
	case Double:
		return "double"
	}
	return fmt.Sprintf("ValueType(%d)", int(vt))
}

// MarshalYAML renders the type by name in self-describe output.
func (vt ValueType) MarshalYAML() (interface{}, error) {
	return vt.String(), nil
}

// Value is the tagged value returned by a poll.  Only the field that matches
// Type is meaningful.
type Value struct {
	Type ValueType
	Str  string
	U32  uint32
	F32  float32
	F64  float64
}

// StringValue makes a string typed Value
func StringValue(s string) Value {
	return Value{Type: String, Str: s}
}

// Uint32Value makes a uint32 typed Value
func Uint32Value(v uint32) Value {
	return Value{Type: Uint32, U32: v}
}

// FloatValue makes a single precision Value
func FloatValue(v float32) Value {
	return Value{Type: Float, F32: v}
}

// DoubleValue makes a double precision Value
func DoubleValue(v float64) Value {
	return Value{Type: Double, F64: v}
}

// sentinel returns the value reported for a metric of type vt when the
// platform query behind it failed.
func sentinel(vt ValueType) Value {
	switch vt {
	case String:
		return StringValue(QueryErrorString)
	case Uint32:
		// There is no -1 for an unsigned value, so use the all ones pattern
		// that a C cast of -1 would produce.
		return Uint32Value(^uint32(0))
	case Float:
		return FloatValue(-1)
	default:
		return DoubleValue(-1)
	}
}

// Format renders the value with a printf style format such as the one held
// in a metric's Descriptor.
func (v Value) Format(format string) string {
	if format == "" {
		format = "%v"
	}
	switch v.Type {
	case String:
		return fmt.Sprintf(format, v.Str)
	case Uint32:
		return fmt.Sprintf(format, v.U32)
	case Float:
		return fmt.Sprintf(format, v.F32)
	default:
		return fmt.Sprintf(format, v.F64)
	}
}

func (v Value) String() string {
	return v.Format("")
}

// Datapoint converts the value to the golib value representation used by the
// agent's outputs.
func (v Value) Datapoint() datapoint.Value {
	switch v.Type {
	case String:
		return datapoint.NewStringValue(v.Str)
	case Uint32:
		return datapoint.NewIntValue(int64(v.U32))
	case Float:
		return datapoint.NewFloatValue(float64(v.F32))
	default:
		return datapoint.NewFloatValue(v.F64)
	}
}
