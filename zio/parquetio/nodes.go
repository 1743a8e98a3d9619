package parquetio

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v11/parquet"
	pqschema "github.com/apache/arrow/go/v11/parquet/schema"
	"github.com/brimdata/parq/schema"
)

var ErrUnsupportedColumn = errors.New("unsupported column type")

// newArrowSchema converts the schema tree into the group node tree written
// to the file footer.
func newArrowSchema(s *schema.Schema) (*pqschema.GroupNode, error) {
	fields, err := newNodes(s.Root.Children)
	if err != nil {
		return nil, err
	}
	return pqschema.NewGroupNode(s.Root.Name, parquet.Repetitions.Required, fields, -1)
}

func newNodes(children []*schema.Field) (pqschema.FieldList, error) {
	fields := make(pqschema.FieldList, 0, len(children))
	for _, c := range children {
		n, err := newNode(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		fields = append(fields, n)
	}
	return fields, nil
}

func repetition(f *schema.Field) parquet.Repetition {
	switch {
	case f.Repeated:
		return parquet.Repetitions.Repeated
	case f.Nullable:
		return parquet.Repetitions.Optional
	}
	return parquet.Repetitions.Required
}

func newNode(f *schema.Field) (pqschema.Node, error) {
	if f.Kind == schema.Primitive {
		return newPrimitiveNode(f)
	}
	fields, err := newNodes(f.Children)
	if err != nil {
		return nil, err
	}
	var logical pqschema.LogicalType
	switch f.Kind {
	case schema.List:
		logical = pqschema.ListLogicalType{}
	case schema.Map:
		logical = pqschema.MapLogicalType{}
	}
	n, err := pqschema.NewGroupNodeLogical(f.Name, repetition(f), fields, logical, -1)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func newPrimitiveNode(f *schema.Field) (pqschema.Node, error) {
	t := f.Type
	var logical pqschema.LogicalType
	switch t.Logical {
	case schema.String:
		logical = pqschema.StringLogicalType{}
	case schema.Integer:
		logical = pqschema.NewIntLogicalType(int8(t.BitWidth), t.Signed)
	case schema.Timestamp:
		logical = pqschema.NewTimestampLogicalType(true, arrowTimeUnit(t.Unit))
	}
	length := -1
	if t.Physical == schema.FixedLenByteArray {
		length = t.Length
	}
	n, err := pqschema.NewPrimitiveNodeLogical(f.Name, repetition(f), logical, arrowPhysical(t.Physical), length, -1)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func arrowPhysical(p schema.Physical) parquet.Type {
	switch p {
	case schema.Boolean:
		return parquet.Types.Boolean
	case schema.Int32:
		return parquet.Types.Int32
	case schema.Int64:
		return parquet.Types.Int64
	case schema.Float:
		return parquet.Types.Float
	case schema.Double:
		return parquet.Types.Double
	case schema.ByteArray:
		return parquet.Types.ByteArray
	}
	return parquet.Types.FixedLenByteArray
}

func arrowTimeUnit(u schema.TimeUnit) pqschema.TimeUnitType {
	switch u {
	case schema.Micros:
		return pqschema.TimeUnitMicros
	case schema.Millis:
		return pqschema.TimeUnitMillis
	}
	return pqschema.TimeUnitNanos
}

// fromArrowSchema rebuilds the schema tree from a file's footer. The result
// has no Go types.
func fromArrowSchema(sc *pqschema.Schema) (*schema.Schema, error) {
	root := sc.Root()
	f := &schema.Field{Name: root.Name(), Kind: schema.Struct}
	if err := appendChildren(f, root); err != nil {
		return nil, err
	}
	return schema.New(f), nil
}

func appendChildren(f *schema.Field, g *pqschema.GroupNode) error {
	for i := 0; i < g.NumFields(); i++ {
		c, err := fromNode(g.Field(i))
		if err != nil {
			return err
		}
		c.Index = i
		f.Children = append(f.Children, c)
	}
	return nil
}

func fromNode(n pqschema.Node) (*schema.Field, error) {
	f := &schema.Field{Name: n.Name()}
	switch n.RepetitionType() {
	case parquet.Repetitions.Optional:
		f.Nullable = true
	case parquet.Repetitions.Repeated:
		f.Repeated = true
	}
	switch n := n.(type) {
	case *pqschema.PrimitiveNode:
		t, err := fromPrimitiveNode(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Name(), err)
		}
		f.Kind = schema.Primitive
		f.Type = t
	case *pqschema.GroupNode:
		f.Kind = schema.Struct
		if isWrapper(n) {
			switch n.ConvertedType() {
			case pqschema.ConvertedTypes.List:
				f.Kind = schema.List
			case pqschema.ConvertedTypes.Map, pqschema.ConvertedTypes.MapKeyValue:
				f.Kind = schema.Map
			}
		}
		if err := appendChildren(f, n); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: unknown node %T", n.Name(), n)
	}
	return f, nil
}

// isWrapper is true for the outer group of the three-level list and map
// layouts.
func isWrapper(g *pqschema.GroupNode) bool {
	if g.NumFields() != 1 {
		return false
	}
	c := g.Field(0)
	return c.RepetitionType() == parquet.Repetitions.Repeated && c.Type() == pqschema.Group
}

func fromPrimitiveNode(n *pqschema.PrimitiveNode) (*schema.Type, error) {
	t := &schema.Type{}
	switch n.PhysicalType() {
	case parquet.Types.Boolean:
		t.Physical = schema.Boolean
	case parquet.Types.Int32:
		t.Physical = schema.Int32
	case parquet.Types.Int64:
		t.Physical = schema.Int64
	case parquet.Types.Float:
		t.Physical = schema.Float
	case parquet.Types.Double:
		t.Physical = schema.Double
	case parquet.Types.ByteArray:
		t.Physical = schema.ByteArray
	case parquet.Types.FixedLenByteArray:
		t.Physical = schema.FixedLenByteArray
		t.Length = n.TypeLength()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedColumn, n.PhysicalType())
	}
	switch l := n.LogicalType().(type) {
	case pqschema.StringLogicalType, *pqschema.StringLogicalType:
		t.Logical = schema.String
	case *pqschema.IntLogicalType:
		setInteger(t, l.BitWidth(), l.IsSigned())
	case pqschema.IntLogicalType:
		setInteger(t, l.BitWidth(), l.IsSigned())
	case *pqschema.TimestampLogicalType:
		setTimestamp(t, l.TimeUnit())
	case pqschema.TimestampLogicalType:
		setTimestamp(t, l.TimeUnit())
	default:
		if n.ConvertedType() == pqschema.ConvertedTypes.UTF8 {
			t.Logical = schema.String
		}
	}
	return t, nil
}

func setInteger(t *schema.Type, width int8, signed bool) {
	t.Logical = schema.Integer
	t.BitWidth = int(width)
	t.Signed = signed
}

func setTimestamp(t *schema.Type, unit pqschema.TimeUnitType) {
	t.Logical = schema.Timestamp
	switch unit {
	case pqschema.TimeUnitMicros:
		t.Unit = schema.Micros
	case pqschema.TimeUnitMillis:
		t.Unit = schema.Millis
	default:
		t.Unit = schema.Nanos
	}
}
