// Package dremel shreds Go records into per-leaf columns of values plus
// definition and repetition levels, and assembles such columns back into
// records.
package dremel

import (
	"errors"
	"fmt"

	"github.com/brimdata/parq/schema"
)

// Values holds the non-null values of a column. Only the slice matching
// Type is used. ByteArray and FixedLenByteArray values are both kept in
// Bytes.
type Values struct {
	Type    schema.Physical
	Bools   []bool
	Int32s  []int32
	Int64s  []int64
	Floats  []float32
	Doubles []float64
	Bytes   [][]byte
}

func (v *Values) Len() int {
	switch v.Type {
	case schema.Boolean:
		return len(v.Bools)
	case schema.Int32:
		return len(v.Int32s)
	case schema.Int64:
		return len(v.Int64s)
	case schema.Float:
		return len(v.Floats)
	case schema.Double:
		return len(v.Doubles)
	}
	return len(v.Bytes)
}

// Slice returns the values in [i, j). The result shares storage with v.
func (v *Values) Slice(i, j int) Values {
	out := Values{Type: v.Type}
	switch v.Type {
	case schema.Boolean:
		out.Bools = v.Bools[i:j:j]
	case schema.Int32:
		out.Int32s = v.Int32s[i:j:j]
	case schema.Int64:
		out.Int64s = v.Int64s[i:j:j]
	case schema.Float:
		out.Floats = v.Floats[i:j:j]
	case schema.Double:
		out.Doubles = v.Doubles[i:j:j]
	default:
		out.Bytes = v.Bytes[i:j:j]
	}
	return out
}

func (v *Values) append(other *Values) {
	v.Bools = append(v.Bools, other.Bools...)
	v.Int32s = append(v.Int32s, other.Int32s...)
	v.Int64s = append(v.Int64s, other.Int64s...)
	v.Floats = append(v.Floats, other.Floats...)
	v.Doubles = append(v.Doubles, other.Doubles...)
	v.Bytes = append(v.Bytes, other.Bytes...)
}

// Format returns the i'th value as a string.
func (v *Values) Format(i int) string {
	switch v.Type {
	case schema.Boolean:
		return fmt.Sprint(v.Bools[i])
	case schema.Int32:
		return fmt.Sprint(v.Int32s[i])
	case schema.Int64:
		return fmt.Sprint(v.Int64s[i])
	case schema.Float:
		return fmt.Sprint(v.Floats[i])
	case schema.Double:
		return fmt.Sprint(v.Doubles[i])
	}
	return fmt.Sprintf("%q", v.Bytes[i])
}

// Column is a shredded column: the values of one leaf for a row group and
// the levels of every slot. DefLevels is nil if and only if MaxDef is zero
// and RepLevels is nil if and only if MaxRep is zero.
type Column struct {
	Path      string
	MaxDef    int
	MaxRep    int
	Values    Values
	DefLevels []int16
	RepLevels []int16
}

func NewColumn(leaf *schema.Leaf, capacity int) *Column {
	c := &Column{
		Path:   leaf.Path,
		MaxDef: leaf.MaxDef,
		MaxRep: leaf.MaxRep,
		Values: Values{Type: leaf.Field.Type.Physical},
	}
	if c.MaxDef > 0 {
		c.DefLevels = make([]int16, 0, capacity)
	}
	if c.MaxRep > 0 {
		c.RepLevels = make([]int16, 0, capacity)
	}
	return c
}

// NumSlots returns the number of level entries in the column.
func (c *Column) NumSlots() int {
	if c.DefLevels != nil {
		return len(c.DefLevels)
	}
	return c.Values.Len()
}

// NumRecords returns the number of records the column spans.
func (c *Column) NumRecords() int {
	if c.RepLevels == nil {
		return c.NumSlots()
	}
	var n int
	for _, r := range c.RepLevels {
		if r == 0 {
			n++
		}
	}
	return n
}

// Levels returns the repetition and definition levels of slot i.
func (c *Column) Levels(i int) (int, int) {
	rep, def := 0, c.MaxDef
	if c.RepLevels != nil {
		rep = int(c.RepLevels[i])
	}
	if c.DefLevels != nil {
		def = int(c.DefLevels[i])
	}
	return rep, def
}

func (c *Column) appendSlot(rep, def int) {
	if c.DefLevels != nil {
		c.DefLevels = append(c.DefLevels, int16(def))
	}
	if c.RepLevels != nil {
		c.RepLevels = append(c.RepLevels, int16(rep))
	}
}

// Validate checks the structural invariants of the column.
func (c *Column) Validate() error {
	if (c.MaxDef == 0) != (c.DefLevels == nil) {
		return fmt.Errorf("column %q: definition levels present=%t with max level %d", c.Path, c.DefLevels != nil, c.MaxDef)
	}
	if (c.MaxRep == 0) != (c.RepLevels == nil) {
		return fmt.Errorf("column %q: repetition levels present=%t with max level %d", c.Path, c.RepLevels != nil, c.MaxRep)
	}
	if c.RepLevels != nil && len(c.RepLevels) != len(c.DefLevels) {
		return fmt.Errorf("column %q: %d repetition levels and %d definition levels", c.Path, len(c.RepLevels), len(c.DefLevels))
	}
	nvals := c.NumSlots()
	if c.DefLevels != nil {
		nvals = 0
		for i, d := range c.DefLevels {
			if d < 0 || int(d) > c.MaxDef {
				return fmt.Errorf("column %q: slot %d: definition level %d out of range [0,%d]", c.Path, i, d, c.MaxDef)
			}
			if int(d) == c.MaxDef {
				nvals++
			}
		}
	}
	for i, r := range c.RepLevels {
		if r < 0 || int(r) > c.MaxRep {
			return fmt.Errorf("column %q: slot %d: repetition level %d out of range [0,%d]", c.Path, i, r, c.MaxRep)
		}
	}
	if len(c.RepLevels) > 0 && c.RepLevels[0] != 0 {
		return fmt.Errorf("column %q: first repetition level is %d", c.Path, c.RepLevels[0])
	}
	if n := c.Values.Len(); n != nvals {
		return fmt.Errorf("column %q: %d values for %d defined slots", c.Path, n, nvals)
	}
	return nil
}

// Split divides the column after its first n records.
func (c *Column) Split(n int) (*Column, *Column) {
	slot := n
	if c.RepLevels != nil {
		slot = len(c.RepLevels)
		var records int
		for i, r := range c.RepLevels {
			if r == 0 {
				if records == n {
					slot = i
					break
				}
				records++
			}
		}
	}
	nvals := slot
	if c.DefLevels != nil {
		nvals = 0
		for _, d := range c.DefLevels[:slot] {
			if int(d) == c.MaxDef {
				nvals++
			}
		}
	}
	head, tail := *c, *c
	head.Values = c.Values.Slice(0, nvals)
	tail.Values = c.Values.Slice(nvals, c.Values.Len())
	if c.DefLevels != nil {
		head.DefLevels = c.DefLevels[:slot:slot]
		tail.DefLevels = c.DefLevels[slot:]
	}
	if c.RepLevels != nil {
		head.RepLevels = c.RepLevels[:slot:slot]
		tail.RepLevels = c.RepLevels[slot:]
	}
	return &head, &tail
}

var ErrConcat = errors.New("cannot concatenate columns")

// Concat joins columns of the same leaf into a new column.
func Concat(cols ...*Column) (*Column, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrConcat)
	}
	first := cols[0]
	out := &Column{
		Path:   first.Path,
		MaxDef: first.MaxDef,
		MaxRep: first.MaxRep,
		Values: Values{Type: first.Values.Type},
	}
	if out.MaxDef > 0 {
		out.DefLevels = []int16{}
	}
	if out.MaxRep > 0 {
		out.RepLevels = []int16{}
	}
	for _, c := range cols {
		if c.Path != out.Path || c.MaxDef != out.MaxDef || c.MaxRep != out.MaxRep || c.Values.Type != out.Values.Type {
			return nil, fmt.Errorf("%w: %q and %q differ", ErrConcat, out.Path, c.Path)
		}
		out.Values.append(&c.Values)
		if out.DefLevels != nil {
			out.DefLevels = append(out.DefLevels, c.DefLevels...)
		}
		if out.RepLevels != nil {
			out.RepLevels = append(out.RepLevels, c.RepLevels...)
		}
	}
	return out, nil
}
