package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Base struct {
	ID int64 `parquet:"id"`
}

type hidden struct {
	Secret string
}

type sample struct {
	Base
	hidden
	Name    string            `json:"name,omitempty"`
	Age     *int32            `parquet:"age"`
	Skip    string            `parquet:"-"`
	private int
	Tags    []string          `parquet:"tags"`
	Attrs   map[string]string `parquet:"attrs"`
	Blob    []byte
	Key     [16]byte
	When    time.Time
	Points  [3]float64
}

func TestDeriveFields(t *testing.T) {
	s, err := Derive(reflect.TypeOf(sample{}), true)
	require.NoError(t, err)
	var paths []string
	for _, l := range s.Leaves() {
		paths = append(paths, l.Path)
	}
	assert.Equal(t, []string{
		"Base.id",
		"hidden.Secret",
		"name",
		"age",
		"tags.list.element",
		"attrs.key_value.key",
		"attrs.key_value.value",
		"Blob",
		"Key",
		"When",
		"Points.list.element",
	}, paths)
	assert.Equal(t, RootName, s.Root.Name)
	assert.Equal(t, reflect.TypeOf(sample{}), s.GoType())
	assert.True(t, s.ForReading)
}

func TestDeriveLevels(t *testing.T) {
	s, err := Derive(reflect.TypeOf(&sample{}), false)
	require.NoError(t, err)
	cases := []struct {
		path     string
		def, rep int
		typ      string
	}{
		{"Base.id", 0, 0, "int64 (INTEGER(64,true))"},
		{"age", 1, 0, "int32 (INTEGER(32,true))"},
		{"tags.list.element", 2, 1, "binary (STRING)"},
		{"attrs.key_value.key", 2, 1, "binary (STRING)"},
		{"Blob", 1, 0, "binary"},
		{"Key", 0, 0, "fixed_len_byte_array(16)"},
		{"When", 0, 0, "int64 (TIMESTAMP(NANOS,true))"},
		{"Points.list.element", 1, 1, "double"},
	}
	for _, c := range cases {
		l := s.Leaf(c.path)
		require.NotNil(t, l, c.path)
		assert.Equal(t, c.def, l.MaxDef, c.path)
		assert.Equal(t, c.rep, l.MaxRep, c.path)
		assert.Equal(t, c.typ, l.Type().String(), c.path)
	}
}

func TestLeafPlan(t *testing.T) {
	type rec struct {
		Tags []string
	}
	s, err := Derive(reflect.TypeOf(rec{}), false)
	require.NoError(t, err)
	l := s.Leaves()[0]
	assert.Equal(t, []int{1, 2, 2}, l.Def)
	assert.Equal(t, []int{0, 1, 1}, l.Rep)
	assert.Equal(t, 1, l.RepeatedDepth(1))
	assert.Equal(t, -1, l.RepeatedDepth(2))
	assert.Equal(t, "Tags: optional list def=1; list: repeated struct def=2 rep=1; element: required binary def=2", l.Plan())
}

func TestSchemaString(t *testing.T) {
	type rec struct {
		A int64
		B []*string
	}
	s, err := Derive(reflect.TypeOf(rec{}), false)
	require.NoError(t, err)
	expected := `message schema {
  required A int64 (INTEGER(64,true))
  optional B (list) {
    repeated list {
      optional element binary (STRING)
    }
  }
}
`
	assert.Equal(t, expected, s.String())
}

func TestDeriveUnsupported(t *testing.T) {
	type node struct {
		Next *node
	}
	type withChan struct {
		C chan int
	}
	type withIface struct {
		I interface{}
	}
	type ptrSlice struct {
		P *[]int
	}
	type ptrKey struct {
		M map[*string]int
	}
	type empty struct{}
	type dup struct {
		A int `parquet:"x"`
		B int `parquet:"x"`
	}
	type embeddedPtr struct {
		*hidden
	}
	cases := []struct {
		name       string
		typ        reflect.Type
		forReading bool
	}{
		{"recursive", reflect.TypeOf(node{}), false},
		{"chan", reflect.TypeOf(withChan{}), false},
		{"interface", reflect.TypeOf(withIface{}), false},
		{"pointer to slice", reflect.TypeOf(ptrSlice{}), false},
		{"nullable key", reflect.TypeOf(ptrKey{}), false},
		{"empty", reflect.TypeOf(empty{}), false},
		{"duplicate", reflect.TypeOf(dup{}), false},
		{"not a struct", reflect.TypeOf(0), false},
		{"embedded pointer", reflect.TypeOf(embeddedPtr{}), true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, err := Derive(c.typ, c.forReading)
			var unsupported *UnsupportedTypeError
			assert.True(t, errors.As(err, &unsupported), "error: %v", err)
		})
	}
	// Writing only reads through the embedded pointer.
	_, err := Derive(reflect.TypeOf(embeddedPtr{}), false)
	assert.NoError(t, err)
}
