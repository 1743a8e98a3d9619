package dremel

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/brimdata/parq/schema"
	"golang.org/x/exp/slices"
)

type entry struct {
	key, value reflect.Value
}

// sortedEntries returns the entries of map m ordered by key, with ties
// between keys that compare equal, such as NaNs, broken by value. Entries
// that still tie stripe identically in every column, so every column sees
// the same sequence.
func sortedEntries(kv *schema.Field, m reflect.Value) []entry {
	entries := make([]entry, 0, m.Len())
	it := m.MapRange()
	for it.Next() {
		entries = append(entries, entry{it.Key(), it.Value()})
	}
	key := kv.Children[0]
	var value *schema.Field
	if len(kv.Children) > 1 {
		value = kv.Children[1]
	}
	slices.SortFunc(entries, func(a, b entry) bool {
		if r := compare(key, a.key, b.key); r != 0 {
			return r < 0
		}
		return value != nil && compare(value, a.value, b.value) < 0
	})
	return entries
}

// compare is a total order over the values of field f. Values that
// compare equal have the same column representation.
func compare(f *schema.Field, a, b reflect.Value) int {
	if f.Nullable {
		switch an, bn := isNull(a), isNull(b); {
		case an && bn:
			return 0
		case an:
			return -1
		case bn:
			return 1
		}
		if a.Kind() == reflect.Ptr {
			a, b = a.Elem(), b.Elem()
		}
	}
	switch f.Kind {
	case schema.Struct:
		for _, c := range f.Children {
			if r := compare(c, a.Field(c.Index), b.Field(c.Index)); r != 0 {
				return r
			}
		}
		return 0
	case schema.List:
		elem := f.Children[0].Children[0]
		for i := 0; i < a.Len() && i < b.Len(); i++ {
			if r := compare(elem, a.Index(i), b.Index(i)); r != 0 {
				return r
			}
		}
		return compareOrdered(int64(a.Len()), int64(b.Len()))
	case schema.Map:
		if r := compareOrdered(int64(a.Len()), int64(b.Len())); r != 0 {
			return r
		}
		kv := f.Children[0]
		x, y := sortedEntries(kv, a), sortedEntries(kv, b)
		for i := range x {
			if r := compare(kv.Children[0], x[i].key, y[i].key); r != 0 {
				return r
			}
			if len(kv.Children) > 1 {
				if r := compare(kv.Children[1], x[i].value, y[i].value); r != 0 {
					return r
				}
			}
		}
		return 0
	}
	return comparePrimitive(a, b)
}

func comparePrimitive(a, b reflect.Value) int {
	if a.Type() == timeType {
		return compareTime(a.Interface().(time.Time), b.Interface().(time.Time))
	}
	switch a.Kind() {
	case reflect.Bool:
		switch x, y := a.Bool(), b.Bool(); {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return compareOrdered(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return compareOrdered(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return compareFloat(a.Float(), b.Float())
	case reflect.String:
		return strings.Compare(a.String(), b.String())
	case reflect.Slice:
		return bytes.Compare(a.Bytes(), b.Bytes())
	case reflect.Array:
		return bytes.Compare(arrayBytes(a), arrayBytes(b))
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// compareFloat orders NaNs before all other values. Values that are equal
// as floats, such as 0 and -0, are ordered by their bits.
func compareFloat(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return compareOrdered(math.Float64bits(a), math.Float64bits(b))
	case an:
		return -1
	case bn:
		return 1
	}
	if r := compareOrdered(a, b); r != 0 {
		return r
	}
	return compareOrdered(math.Float64bits(a), math.Float64bits(b))
}

func compareOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func arrayBytes(v reflect.Value) []byte {
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}
