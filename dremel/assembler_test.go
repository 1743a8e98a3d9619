package dremel

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/brimdata/parq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(t *testing.T, s *schema.Schema, cols []*Column, n int, typ reflect.Type) (reflect.Value, error) {
	t.Helper()
	asm, err := NewAssembler(s)
	require.NoError(t, err)
	g := asm.NewRowGroup(n)
	for i, c := range cols {
		if err := g.AssembleField(i, c); err != nil {
			return reflect.Value{}, err
		}
	}
	out := reflect.MakeSlice(typ, n, n)
	return out, g.Bind(out)
}

func roundTrip(t *testing.T, records interface{}) {
	t.Helper()
	s, cols := stripe(t, records)
	v := reflect.ValueOf(records)
	out, err := assemble(t, s, cols, v.Len(), v.Type())
	require.NoError(t, err)
	require.Equal(t, records, out.Interface())
}

type address struct {
	Street string
	Zip    *int32
}

type person struct {
	Name     string
	Age      *int64
	Nick     *string
	Home     *address
	Work     address
	Tags     []string
	Scores   []*float64
	Friends  []address
	Attrs    map[string]*string
	Grid     [][]int32
	Key      [4]byte
	Blob     []byte
	Born     time.Time
	Flag     bool
	Small    int8
	Unsigned uint16
	Ratio    float32
}

func TestRoundTripPerson(t *testing.T) {
	age := int64(42)
	nick := "bo"
	zip := int32(94110)
	score := 1.5
	v := "v"
	records := []person{
		{
			Name:     "alice",
			Age:      &age,
			Nick:     &nick,
			Home:     &address{Street: "main", Zip: &zip},
			Work:     address{Street: "market"},
			Tags:     []string{"a", "b"},
			Scores:   []*float64{&score, nil, &score},
			Friends:  []address{{Street: "x"}, {Street: "y", Zip: &zip}},
			Attrs:    map[string]*string{"k": &v, "n": nil},
			Grid:     [][]int32{{1, 2}, {}, nil, {3}},
			Key:      [4]byte{1, 2, 3, 4},
			Blob:     []byte{},
			Born:     time.Unix(0, 1234567890).UTC(),
			Flag:     true,
			Small:    -7,
			Unsigned: 65535,
			Ratio:    0.25,
		},
		{
			Name:    "bob",
			Home:    &address{},
			Tags:    []string{},
			Friends: []address{},
			Attrs:   map[string]*string{},
			Born:    time.Unix(0, 0).UTC(),
		},
		{
			Born: time.Unix(0, 0).UTC(),
		},
	}
	roundTrip(t, records)
}

func TestRoundTripPointers(t *testing.T) {
	type rec struct {
		A int32
		B *string
	}
	b := "b"
	roundTrip(t, []*rec{{A: 1, B: &b}, {A: 2}})
}

func TestRoundTripArray(t *testing.T) {
	type fixed struct {
		P [2]int32
	}
	roundTrip(t, []fixed{{[2]int32{1, 2}}, {[2]int32{3, 4}}})
}

func TestRoundTripMapStructValues(t *testing.T) {
	type kv struct {
		M map[int32]address
	}
	zip := int32(1)
	roundTrip(t, []kv{
		{M: map[int32]address{1: {Street: "a"}, 2: {Street: "b", Zip: &zip}}},
		{M: nil},
	})
}

func TestRoundTripEmpty(t *testing.T) {
	type rec struct {
		A int32
	}
	roundTrip(t, []rec{})
}

type tagged struct {
	Tags []string
}

func taggedSchema(t *testing.T) *schema.Schema {
	s, err := schema.Derive(reflect.TypeOf(tagged{}), true)
	require.NoError(t, err)
	return s
}

func tagsColumn(def, rep []int16, vals ...string) *Column {
	return &Column{
		Path:      "Tags.list.element",
		MaxDef:    2,
		MaxRep:    1,
		Values:    Values{Type: schema.ByteArray, Bytes: strs(vals...)},
		DefLevels: def,
		RepLevels: rep,
	}
}

func TestAssembleLevels(t *testing.T) {
	col := tagsColumn([]int16{0, 1, 2, 2, 2}, []int16{0, 0, 0, 1, 0}, "a", "b", "c")
	out, err := assemble(t, taggedSchema(t), []*Column{col}, 4, reflect.TypeOf([]tagged{}))
	require.NoError(t, err)
	expected := []tagged{{nil}, {[]string{}}, {[]string{"a", "b"}}, {[]string{"c"}}}
	assert.Equal(t, expected, out.Interface())
}

func TestAssembleErrors(t *testing.T) {
	cases := []struct {
		name string
		col  *Column
		rows int
		msg  string
	}{
		{
			name: "first repetition",
			col:  tagsColumn([]int16{2}, []int16{1}, "a"),
			rows: 1,
			msg:  "first repetition level is 1",
		},
		{
			name: "definition range",
			col:  tagsColumn([]int16{3}, []int16{0}, "a"),
			rows: 1,
			msg:  "definition level 3 out of range",
		},
		{
			name: "values exhausted",
			col:  tagsColumn([]int16{2, 2}, []int16{0, 1}, "a"),
			rows: 1,
			msg:  "column values exhausted",
		},
		{
			name: "values left over",
			col:  tagsColumn([]int16{1}, []int16{0}, "a"),
			rows: 1,
			msg:  "1 values left over",
		},
		{
			name: "too few records",
			col:  tagsColumn([]int16{2}, []int16{0}, "a"),
			rows: 2,
			msg:  "column has 1 records, row group has 2",
		},
		{
			name: "too many records",
			col:  tagsColumn([]int16{2, 2}, []int16{0, 0}, "a", "b"),
			rows: 1,
			msg:  "column has more than 1 records",
		},
		{
			name: "continues absent list",
			col:  tagsColumn([]int16{0, 2}, []int16{0, 1}, "a"),
			rows: 1,
			msg:  "continues a collection that is not present",
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, err := assemble(t, taggedSchema(t), []*Column{c.col}, c.rows, reflect.TypeOf([]tagged{}))
			var asmErr *ColumnAssembleError
			require.True(t, errors.As(err, &asmErr), "error: %v", err)
			assert.Equal(t, "Tags.list.element", asmErr.Path)
			assert.Contains(t, asmErr.Plan, "list: repeated struct")
			assert.Contains(t, err.Error(), c.msg)
		})
	}
}

func TestAssembleConflict(t *testing.T) {
	type inner struct {
		A int32
		B int32
	}
	type outer struct {
		In *inner
	}
	s, err := schema.Derive(reflect.TypeOf(outer{}), true)
	require.NoError(t, err)
	a := &Column{Path: "In.A", MaxDef: 1, Values: Values{Type: schema.Int32}, DefLevels: []int16{0}}
	b := &Column{Path: "In.B", MaxDef: 1, Values: Values{Type: schema.Int32, Int32s: []int32{1}}, DefLevels: []int16{1}}
	_, err = assemble(t, s, []*Column{a, b}, 1, reflect.TypeOf([]outer{}))
	var asmErr *ColumnAssembleError
	require.True(t, errors.As(err, &asmErr))
	assert.Equal(t, "In.B", asmErr.Path)
	assert.Equal(t, 0, asmErr.Slot)
}

func TestAssembleEntryCount(t *testing.T) {
	type point struct {
		X int32
		Y int32
	}
	type path struct {
		Points []point
	}
	s, err := schema.Derive(reflect.TypeOf(path{}), true)
	require.NoError(t, err)
	column := func(p string, vals ...int32) *Column {
		c := &Column{Path: p, MaxDef: 2, MaxRep: 1, Values: Values{Type: schema.Int32, Int32s: vals}}
		for k := range vals {
			var rep int16
			if k > 0 {
				rep = 1
			}
			c.DefLevels = append(c.DefLevels, 2)
			c.RepLevels = append(c.RepLevels, rep)
		}
		return c
	}
	x := column("Points.list.element.X", 1, 2)

	out, err := assemble(t, s, []*Column{x, column("Points.list.element.Y", 3, 4)}, 1, reflect.TypeOf([]path{}))
	require.NoError(t, err)
	assert.Equal(t, []path{{[]point{{1, 3}, {2, 4}}}}, out.Interface())

	_, err = assemble(t, s, []*Column{x, column("Points.list.element.Y", 3, 4, 5)}, 1, reflect.TypeOf([]path{}))
	var asmErr *ColumnAssembleError
	require.True(t, errors.As(err, &asmErr), "error: %v", err)
	assert.Equal(t, "Points.list.element.Y", asmErr.Path)
	assert.Equal(t, 2, asmErr.Slot)
	assert.ErrorIs(t, err, errMoreElems)

	_, err = assemble(t, s, []*Column{x, column("Points.list.element.Y", 3)}, 1, reflect.TypeOf([]path{}))
	require.True(t, errors.As(err, &asmErr), "error: %v", err)
	assert.Equal(t, "Points.list.element.Y", asmErr.Path)
	assert.Equal(t, 0, asmErr.Row)
	assert.Contains(t, err.Error(), "1 entries in this column but 2")
}

func TestAssembleOrder(t *testing.T) {
	type rec struct {
		A int32
		B int32
	}
	s, err := schema.Derive(reflect.TypeOf(rec{}), true)
	require.NoError(t, err)
	asm, err := NewAssembler(s)
	require.NoError(t, err)
	g := asm.NewRowGroup(0)
	require.Error(t, g.AssembleField(1, &Column{Path: "B", Values: Values{Type: schema.Int32}}))
	require.Error(t, g.Bind(reflect.ValueOf([]rec{})))
}

func TestAssemblerNeedsReadingSchema(t *testing.T) {
	type rec struct {
		A int32
	}
	s, err := schema.Derive(reflect.TypeOf(rec{}), false)
	require.NoError(t, err)
	_, err = NewAssembler(s)
	require.Error(t, err)
}
