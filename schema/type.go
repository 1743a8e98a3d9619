package schema

import (
	"fmt"
	"reflect"
	"time"
)

// Physical is the storage type of a leaf column.
type Physical int

const (
	Boolean Physical = iota
	Int32
	Int64
	Float
	Double
	ByteArray
	FixedLenByteArray
)

func (p Physical) String() string {
	switch p {
	case Boolean:
		return "boolean"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float:
		return "float"
	case Double:
		return "double"
	case ByteArray:
		return "binary"
	case FixedLenByteArray:
		return "fixed_len_byte_array"
	}
	return fmt.Sprintf("physical(%d)", int(p))
}

// Logical is the annotation that refines the interpretation of a physical
// type.
type Logical int

const (
	None Logical = iota
	String
	Integer
	Timestamp
)

type TimeUnit int

const (
	Nanos TimeUnit = iota
	Micros
	Millis
)

func (u TimeUnit) String() string {
	switch u {
	case Micros:
		return "MICROS"
	case Millis:
		return "MILLIS"
	}
	return "NANOS"
}

// Type is the type of a primitive leaf.
type Type struct {
	Physical Physical
	Logical  Logical
	// BitWidth and Signed qualify Integer.
	BitWidth int
	Signed   bool
	// Unit qualifies Timestamp.
	Unit TimeUnit
	// Length is the byte width of a FixedLenByteArray.
	Length int
}

func (t *Type) String() string {
	s := t.Physical.String()
	if t.Physical == FixedLenByteArray {
		s = fmt.Sprintf("%s(%d)", s, t.Length)
	}
	switch t.Logical {
	case String:
		s += " (STRING)"
	case Integer:
		s += fmt.Sprintf(" (INTEGER(%d,%t))", t.BitWidth, t.Signed)
	case Timestamp:
		s += fmt.Sprintf(" (TIMESTAMP(%s,true))", t.Unit)
	}
	return s
}

var timeType = reflect.TypeOf(time.Time{})

func intType(physical Physical, bits int, signed bool) *Type {
	return &Type{Physical: physical, Logical: Integer, BitWidth: bits, Signed: signed}
}

// primitiveType maps a Go type to a leaf type. It returns nil if typ is
// not a scalar.
func primitiveType(typ reflect.Type) *Type {
	if typ == timeType {
		return &Type{Physical: Int64, Logical: Timestamp, Unit: Nanos}
	}
	switch typ.Kind() {
	case reflect.Bool:
		return &Type{Physical: Boolean}
	case reflect.Int8:
		return intType(Int32, 8, true)
	case reflect.Int16:
		return intType(Int32, 16, true)
	case reflect.Int32:
		return intType(Int32, 32, true)
	case reflect.Int, reflect.Int64:
		return intType(Int64, 64, true)
	case reflect.Uint8:
		return intType(Int32, 8, false)
	case reflect.Uint16:
		return intType(Int32, 16, false)
	case reflect.Uint32:
		return intType(Int32, 32, false)
	case reflect.Uint, reflect.Uint64:
		return intType(Int64, 64, false)
	case reflect.Float32:
		return &Type{Physical: Float}
	case reflect.Float64:
		return &Type{Physical: Double}
	case reflect.String:
		return &Type{Physical: ByteArray, Logical: String}
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return &Type{Physical: ByteArray}
		}
	case reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 {
			return &Type{Physical: FixedLenByteArray, Length: typ.Len()}
		}
	}
	return nil
}
