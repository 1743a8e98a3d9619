package dremel

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/brimdata/parq/schema"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	// Bounds of time.Time.UnixNano.
	minTime = time.Unix(0, math.MinInt64)
	maxTime = time.Unix(0, math.MaxInt64)
)

// codec moves values of one leaf between Go values and their physical
// representation.
type codec struct {
	// put appends the non-pointer value v.
	put func(*Values, reflect.Value) error
	// get sets the settable non-pointer value v from the i'th value.
	get func(*Values, int, reflect.Value) error
}

func newCodec(f *schema.Field) (codec, error) {
	typ := f.Elem()
	if typ == nil {
		return codec{}, fmt.Errorf("column %q has no Go type", f.Name)
	}
	switch f.Type.Physical {
	case schema.Boolean:
		return codec{putBool, getBool}, nil
	case schema.Int32:
		if isUnsigned(typ) {
			return codec{putUint32, getUint32}, nil
		}
		return codec{putInt32, getInt32}, nil
	case schema.Int64:
		switch {
		case typ == timeType:
			return codec{putTime, getTime}, nil
		case isUnsigned(typ):
			return codec{putUint64, getUint64}, nil
		}
		return codec{putInt64, getInt64}, nil
	case schema.Float:
		return codec{putFloat, getFloat}, nil
	case schema.Double:
		return codec{putDouble, getDouble}, nil
	case schema.ByteArray:
		if typ.Kind() == reflect.String {
			return codec{putString, getString}, nil
		}
		return codec{putBytes, getBytes}, nil
	case schema.FixedLenByteArray:
		return codec{putArray, getArray}, nil
	}
	return codec{}, fmt.Errorf("column %q: unknown physical type %s", f.Name, f.Type.Physical)
}

func isUnsigned(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func putBool(vals *Values, v reflect.Value) error {
	vals.Bools = append(vals.Bools, v.Bool())
	return nil
}

func getBool(vals *Values, i int, v reflect.Value) error {
	v.SetBool(vals.Bools[i])
	return nil
}

func putInt32(vals *Values, v reflect.Value) error {
	vals.Int32s = append(vals.Int32s, int32(v.Int()))
	return nil
}

func getInt32(vals *Values, i int, v reflect.Value) error {
	return setInt(v, int64(vals.Int32s[i]))
}

// Unsigned values narrower than 64 bits are stored by bit pattern.
func putUint32(vals *Values, v reflect.Value) error {
	vals.Int32s = append(vals.Int32s, int32(uint32(v.Uint())))
	return nil
}

func getUint32(vals *Values, i int, v reflect.Value) error {
	return setUint(v, uint64(uint32(vals.Int32s[i])))
}

func putInt64(vals *Values, v reflect.Value) error {
	vals.Int64s = append(vals.Int64s, v.Int())
	return nil
}

func getInt64(vals *Values, i int, v reflect.Value) error {
	return setInt(v, vals.Int64s[i])
}

func putUint64(vals *Values, v reflect.Value) error {
	vals.Int64s = append(vals.Int64s, int64(v.Uint()))
	return nil
}

func getUint64(vals *Values, i int, v reflect.Value) error {
	return setUint(v, uint64(vals.Int64s[i]))
}

func putTime(vals *Values, v reflect.Value) error {
	t := v.Interface().(time.Time)
	if t.Before(minTime) || t.After(maxTime) {
		return fmt.Errorf("%w: %s", ErrTimestampRange, t.Format(time.RFC3339Nano))
	}
	vals.Int64s = append(vals.Int64s, t.UnixNano())
	return nil
}

func getTime(vals *Values, i int, v reflect.Value) error {
	v.Set(reflect.ValueOf(time.Unix(0, vals.Int64s[i]).UTC()))
	return nil
}

func putFloat(vals *Values, v reflect.Value) error {
	vals.Floats = append(vals.Floats, float32(v.Float()))
	return nil
}

func getFloat(vals *Values, i int, v reflect.Value) error {
	v.SetFloat(float64(vals.Floats[i]))
	return nil
}

func putDouble(vals *Values, v reflect.Value) error {
	vals.Doubles = append(vals.Doubles, v.Float())
	return nil
}

func getDouble(vals *Values, i int, v reflect.Value) error {
	v.SetFloat(vals.Doubles[i])
	return nil
}

func putString(vals *Values, v reflect.Value) error {
	vals.Bytes = append(vals.Bytes, []byte(v.String()))
	return nil
}

func getString(vals *Values, i int, v reflect.Value) error {
	v.SetString(string(vals.Bytes[i]))
	return nil
}

func putBytes(vals *Values, v reflect.Value) error {
	vals.Bytes = append(vals.Bytes, v.Bytes())
	return nil
}

func getBytes(vals *Values, i int, v reflect.Value) error {
	// Copy so records never alias column storage. An empty value stays
	// distinct from null.
	v.SetBytes(append([]byte{}, vals.Bytes[i]...))
	return nil
}

func putArray(vals *Values, v reflect.Value) error {
	b := make([]byte, v.Len())
	for k := range b {
		b[k] = byte(v.Index(k).Uint())
	}
	vals.Bytes = append(vals.Bytes, b)
	return nil
}

func getArray(vals *Values, i int, v reflect.Value) error {
	b := vals.Bytes[i]
	if len(b) != v.Len() {
		return fmt.Errorf("fixed length value has %d bytes, %s needs %d", len(b), v.Type(), v.Len())
	}
	for k, c := range b {
		v.Index(k).SetUint(uint64(c))
	}
	return nil
}

func setInt(v reflect.Value, x int64) error {
	if v.OverflowInt(x) {
		return fmt.Errorf("value %d overflows %s", x, v.Type())
	}
	v.SetInt(x)
	return nil
}

func setUint(v reflect.Value, x uint64) error {
	if v.OverflowUint(x) {
		return fmt.Errorf("value %d overflows %s", x, v.Type())
	}
	v.SetUint(x)
	return nil
}
