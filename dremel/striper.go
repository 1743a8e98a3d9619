package dremel

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/brimdata/parq/schema"
	"golang.org/x/sync/errgroup"
)

// Striper shreds a batch of records into one Column per leaf of a schema.
type Striper struct {
	schema *schema.Schema
	fields []*fieldStriper
}

type fieldStriper struct {
	leaf  *schema.Leaf
	codec codec
}

// NewStriper returns a Striper for s, which must have been derived from a
// Go type.
func NewStriper(s *schema.Schema) (*Striper, error) {
	if s.GoType() == nil {
		return nil, fmt.Errorf("schema %q has no record type", s.Root.Name)
	}
	var fields []*fieldStriper
	for _, leaf := range s.Leaves() {
		c, err := newCodec(leaf.Field)
		if err != nil {
			return nil, err
		}
		fields = append(fields, &fieldStriper{leaf: leaf, codec: c})
	}
	return &Striper{schema: s, fields: fields}, nil
}

func (s *Striper) Schema() *schema.Schema {
	return s.schema
}

// Stripe shreds records, a slice of structs or pointers to structs of the
// schema's record type, into a column for every leaf. Leaves are striped
// concurrently.
func (s *Striper) Stripe(ctx context.Context, records reflect.Value) ([]*Column, error) {
	if err := s.checkRecords(records); err != nil {
		return nil, err
	}
	cols := make([]*Column, len(s.fields))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range s.fields {
		i := i
		if gctx.Err() != nil {
			// A leaf failed or the caller gave up.
			break
		}
		g.Go(func() error {
			col, err := s.StripeField(i, records)
			cols[i] = col
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *Striper) checkRecords(records reflect.Value) error {
	if records.Kind() != reflect.Slice && records.Kind() != reflect.Array {
		return fmt.Errorf("records must be a slice, not %s", records.Kind())
	}
	typ := records.Type().Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ != s.schema.GoType() {
		return fmt.Errorf("records of type %s do not match schema type %s", typ, s.schema.GoType())
	}
	return nil
}

// StripeField shreds the values of leaf i for every record.
func (s *Striper) StripeField(i int, records reflect.Value) (*Column, error) {
	if i < 0 || i >= len(s.fields) {
		return nil, fmt.Errorf("no column %d in schema with %d columns", i, len(s.fields))
	}
	f := s.fields[i]
	col := NewColumn(f.leaf, records.Len())
	for k := 0; k < records.Len(); k++ {
		rec := records.Index(k)
		if rec.Kind() == reflect.Ptr {
			if rec.IsNil() {
				return nil, &ColumnStripeError{Path: f.leaf.Path, Err: fmt.Errorf("record %d is nil", k)}
			}
			rec = rec.Elem()
		}
		if err := f.walk(col, rec.Field(f.leaf.Nodes[0].Index), 0, 0); err != nil {
			return nil, &ColumnStripeError{Path: f.leaf.Path, Err: fmt.Errorf("record %d: %w", k, err)}
		}
	}
	return col, nil
}

// walk emits the slots of the leaf for v, the value of path node i. rep is
// the repetition level of the first slot emitted.
func (f *fieldStriper) walk(col *Column, v reflect.Value, i, rep int) error {
	leaf := f.leaf
	n := leaf.Nodes[i]
	if n.Nullable {
		if isNull(v) {
			col.appendSlot(rep, leaf.Def[i]-1)
			return nil
		}
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
	}
	switch n.Kind {
	case schema.Primitive:
		if err := f.codec.put(&col.Values, v); err != nil {
			return err
		}
		col.appendSlot(rep, leaf.MaxDef)
	case schema.Struct:
		return f.walk(col, v.Field(leaf.Nodes[i+1].Index), i+1, rep)
	case schema.List:
		if v.Len() == 0 {
			col.appendSlot(rep, leaf.Def[i])
			return nil
		}
		for j := 0; j < v.Len(); j++ {
			if j > 0 {
				rep = leaf.Rep[i+1]
			}
			if err := f.walk(col, v.Index(j), i+2, rep); err != nil {
				return err
			}
		}
	case schema.Map:
		if v.Len() == 0 {
			col.appendSlot(rep, leaf.Def[i])
			return nil
		}
		entry := leaf.Nodes[i+1]
		isValue := leaf.Nodes[i+2].Index == 1
		for j, e := range sortedEntries(entry, v) {
			if j > 0 {
				rep = leaf.Rep[i+1]
			}
			elem := e.key
			if isValue {
				elem = e.value
			}
			if err := f.walk(col, elem, i+2, rep); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNull(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}
