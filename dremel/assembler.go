package dremel

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/brimdata/parq/schema"
)

// Assembler rebuilds records from the columns of a schema.
type Assembler struct {
	schema *schema.Schema
	fields []*fieldAssembler
	byLeaf map[*schema.Field]*fieldAssembler
}

type fieldAssembler struct {
	leaf  *schema.Leaf
	codec codec
	// pos[i] is the index of leaf.Nodes[i] among its parent's children and
	// width[i] the number of those children.
	pos   []int
	width []int
}

// NewAssembler returns an Assembler for s, which must have been derived for
// reading.
func NewAssembler(s *schema.Schema) (*Assembler, error) {
	if s.GoType() == nil || !s.ForReading {
		return nil, fmt.Errorf("schema %q was not derived for reading", s.Root.Name)
	}
	a := &Assembler{
		schema: s,
		byLeaf: make(map[*schema.Field]*fieldAssembler),
	}
	for _, leaf := range s.Leaves() {
		c, err := newCodec(leaf.Field)
		if err != nil {
			return nil, err
		}
		f := &fieldAssembler{
			leaf:  leaf,
			codec: c,
			pos:   make([]int, len(leaf.Nodes)),
			width: make([]int, len(leaf.Nodes)),
		}
		parent := s.Root
		for i, n := range leaf.Nodes {
			for k, c := range parent.Children {
				if c == n {
					f.pos[i] = k
				}
			}
			f.width[i] = len(parent.Children)
			parent = n
		}
		a.fields = append(a.fields, f)
		a.byLeaf[leaf.Field] = f
	}
	return a, nil
}

func (a *Assembler) Schema() *schema.Schema {
	return a.schema
}

// RowGroup accumulates the columns of one row group. Columns must be
// assembled in leaf order, after which Bind writes the records.
type RowGroup struct {
	asm   *Assembler
	arena arena
	rows  []*slot
	cols  []*Column
	next  int
}

func (a *Assembler) NewRowGroup(numRows int) *RowGroup {
	g := &RowGroup{
		asm:  a,
		rows: make([]*slot, numRows),
		cols: make([]*Column, len(a.fields)),
	}
	for k := range g.rows {
		s := g.arena.alloc()
		s.state = present
		g.rows[k] = s
	}
	return g
}

func (g *RowGroup) NumRows() int {
	return len(g.rows)
}

// AssembleField decodes the levels of col, the column of leaf i, into the
// row group.
func (g *RowGroup) AssembleField(i int, col *Column) error {
	if i < 0 || i >= len(g.asm.fields) {
		return fmt.Errorf("no column %d in schema with %d columns", i, len(g.asm.fields))
	}
	if i != g.next {
		return fmt.Errorf("column %d assembled out of order: expected column %d", i, g.next)
	}
	f := g.asm.fields[i]
	a := &assembly{
		fieldAssembler: f,
		arena:          &g.arena,
		col:            col,
		occ:            make([]int, len(f.leaf.Nodes)),
		pass:           i + 1,
	}
	if err := a.run(g.rows); err != nil {
		return err
	}
	g.cols[i] = col
	g.next++
	return nil
}

type assembly struct {
	*fieldAssembler
	arena *arena
	col   *Column
	// occ[i] is the entry index of repeated node i for the current slot, or
	// -1 when the previous slot did not reach the node.
	occ  []int
	next int
	// pass identifies this column in the slots it visits. touched holds
	// the collections it reached, with the row of each.
	pass    int
	row     int
	touched []touch
}

type touch struct {
	c   *slot
	row int
}

func (a *assembly) fail(slot, row int, err error) error {
	return &ColumnAssembleError{
		Path: a.leaf.Path,
		Plan: a.leaf.Plan(),
		Slot: slot,
		Row:  row,
		Err:  err,
	}
}

func (a *assembly) run(rows []*slot) error {
	col, leaf := a.col, a.leaf
	if col == nil {
		return a.fail(-1, -1, errors.New("missing column"))
	}
	if col.MaxDef != leaf.MaxDef || col.MaxRep != leaf.MaxRep {
		return a.fail(-1, -1, fmt.Errorf("column levels (def %d, rep %d) differ from schema levels (def %d, rep %d)",
			col.MaxDef, col.MaxRep, leaf.MaxDef, leaf.MaxRep))
	}
	if col.Values.Type != leaf.Field.Type.Physical {
		return a.fail(-1, -1, fmt.Errorf("column values are %s, schema type is %s", col.Values.Type, leaf.Field.Type.Physical))
	}
	if col.RepLevels != nil && len(col.RepLevels) != len(col.DefLevels) {
		return a.fail(-1, -1, fmt.Errorf("%d repetition levels and %d definition levels", len(col.RepLevels), len(col.DefLevels)))
	}
	for k := range a.occ {
		a.occ[k] = -1
	}
	row := -1
	nslots := col.NumSlots()
	for s := 0; s < nslots; s++ {
		rep, def := col.Levels(s)
		if def < 0 || def > leaf.MaxDef {
			return a.fail(s, row, fmt.Errorf("definition level %d out of range [0,%d]", def, leaf.MaxDef))
		}
		if rep < 0 || rep > leaf.MaxRep {
			return a.fail(s, row, fmt.Errorf("repetition level %d out of range [0,%d]", rep, leaf.MaxRep))
		}
		if rep == 0 {
			row++
			if row >= len(rows) {
				return a.fail(s, row, fmt.Errorf("column has more than %d records", len(rows)))
			}
		} else if row < 0 {
			return a.fail(s, row, fmt.Errorf("first repetition level is %d", rep))
		} else if a.occ[leaf.RepeatedDepth(rep)] < 0 {
			return a.fail(s, row, fmt.Errorf("repetition level %d continues a collection that is not present", rep))
		}
		a.row = row
		if err := a.place(rows[row], rep, def); err != nil {
			return a.fail(s, row, err)
		}
	}
	for _, t := range a.touched {
		if t.c.sealed && t.c.visited != len(t.c.elems) {
			return a.fail(-1, t.row, fmt.Errorf("collection has %d entries in this column but %d in an earlier column", t.c.visited, len(t.c.elems)))
		}
		t.c.sealed = true
	}
	if row+1 != len(rows) {
		return a.fail(-1, row, fmt.Errorf("column has %d records, row group has %d", row+1, len(rows)))
	}
	if n := col.Values.Len(); a.next != n {
		return a.fail(-1, row, fmt.Errorf("%d values left over after %d defined slots", n-a.next, a.next))
	}
	return nil
}

// place walks the path of the leaf for one slot, creating or revisiting the
// slots of the record row.
func (a *assembly) place(row *slot, rep, def int) error {
	leaf := a.leaf
	cur := row
	for i, n := range leaf.Nodes {
		if n.Repeated {
			if def < leaf.Def[i] {
				a.invalidate(i)
				return cur.markEmpty()
			}
			switch k := leaf.Rep[i]; {
			case rep < k:
				a.occ[i] = 0
			case a.occ[i] < 0:
				return fmt.Errorf("repetition level %d continues a collection that is not present", rep)
			case rep == k:
				a.occ[i]++
			}
			e, err := a.elem(cur, a.occ[i])
			if err != nil {
				return err
			}
			cur = e
			continue
		}
		s := a.arena.child(cur, a.pos[i], a.width[i])
		if n.Nullable && def < leaf.Def[i] {
			a.invalidate(i)
			return s.markAbsent()
		}
		if n.Kind == schema.Primitive {
			if s.state == present {
				return errors.New("value already assembled")
			}
			if a.next >= a.col.Values.Len() {
				return fmt.Errorf("column values exhausted after %d values", a.next)
			}
			if err := s.markPresent(); err != nil {
				return err
			}
			s.pos = a.next
			a.next++
			return nil
		}
		if err := s.markPresent(); err != nil {
			return err
		}
		cur = s
	}
	return nil
}

// elem returns entry k of collection c and counts the entries this column
// reaches.
func (a *assembly) elem(c *slot, k int) (*slot, error) {
	if c.pass != a.pass {
		c.pass = a.pass
		c.visited = 0
		a.touched = append(a.touched, touch{c, a.row})
	}
	e, err := a.arena.elem(c, k)
	if err != nil {
		return nil, err
	}
	if k >= c.visited {
		c.visited = k + 1
	}
	return e, nil
}

func (a *assembly) invalidate(i int) {
	for k := i; k < len(a.occ); k++ {
		a.occ[k] = -1
	}
}

// Bind writes the assembled row group into records, a slice of NumRows
// structs or pointers to structs. Nil pointers are allocated.
func (g *RowGroup) Bind(records reflect.Value) error {
	if g.next != len(g.asm.fields) {
		return fmt.Errorf("row group has %d of %d columns assembled", g.next, len(g.asm.fields))
	}
	if records.Kind() != reflect.Slice || records.Len() != len(g.rows) {
		return fmt.Errorf("records must be a slice of %d elements", len(g.rows))
	}
	root := g.asm.schema.Root
	for r, s := range g.rows {
		rec := records.Index(r)
		if rec.Kind() == reflect.Ptr {
			if rec.IsNil() {
				rec.Set(reflect.New(rec.Type().Elem()))
			}
			rec = rec.Elem()
		}
		for k, c := range root.Children {
			if err := g.bind(c, child(s, k), rec.Field(c.Index), r); err != nil {
				return err
			}
		}
	}
	return nil
}

func child(s *slot, k int) *slot {
	if s == nil || s.children == nil {
		return nil
	}
	return s.children[k]
}

func (g *RowGroup) bind(f *schema.Field, s *slot, v reflect.Value, row int) error {
	if s == nil || s.state != present {
		// Null or absent values stay zero.
		return nil
	}
	if v.Kind() == reflect.Ptr {
		p := reflect.New(v.Type().Elem())
		v.Set(p)
		v = p.Elem()
	}
	switch f.Kind {
	case schema.Primitive:
		fa := g.asm.byLeaf[f]
		if err := fa.codec.get(&g.cols[fa.leaf.Index].Values, s.pos, v); err != nil {
			return &ColumnAssembleError{Path: fa.leaf.Path, Plan: fa.leaf.Plan(), Slot: -1, Row: row, Err: err}
		}
	case schema.Struct:
		for k, c := range f.Children {
			if err := g.bind(c, child(s, k), v.Field(c.Index), row); err != nil {
				return err
			}
		}
	case schema.List:
		elem := f.Children[0].Children[0]
		n := len(s.elems)
		if v.Kind() == reflect.Slice {
			v.Set(reflect.MakeSlice(v.Type(), n, n))
		} else if n > v.Len() {
			return fmt.Errorf("row %d: %d elements do not fit in %s", row, n, v.Type())
		}
		for k, e := range s.elems {
			if err := g.bind(elem, child(e, 0), v.Index(k), row); err != nil {
				return err
			}
		}
	case schema.Map:
		entry := f.Children[0]
		kf, vf := entry.Children[0], entry.Children[1]
		m := reflect.MakeMapWithSize(v.Type(), len(s.elems))
		for _, e := range s.elems {
			key := reflect.New(kf.GoType).Elem()
			if err := g.bind(kf, child(e, 0), key, row); err != nil {
				return err
			}
			val := reflect.New(vf.GoType).Elem()
			if err := g.bind(vf, child(e, 1), val, row); err != nil {
				return err
			}
			m.SetMapIndex(key, val)
		}
		v.Set(m)
	}
	return nil
}
