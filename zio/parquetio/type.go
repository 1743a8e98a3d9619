package parquetio

import (
	"errors"
	"fmt"

	"github.com/brimdata/parq/schema"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
)

// FromSchemaDefinition converts a schema definition, as parsed from
// message text or read by another Parquet implementation, into a schema
// without Go types.
func FromSchemaDefinition(sd *parquetschema.SchemaDefinition) (*schema.Schema, error) {
	if sd == nil || sd.RootColumn == nil {
		return nil, errors.New("empty schema definition")
	}
	root := &schema.Field{Name: sd.RootColumn.SchemaElement.Name, Kind: schema.Struct}
	children, err := newFields(sd.RootColumn.Children)
	if err != nil {
		return nil, err
	}
	root.Children = children
	return schema.New(root), nil
}

func newFields(defs []*parquetschema.ColumnDefinition) ([]*schema.Field, error) {
	var fields []*schema.Field
	for i, cd := range defs {
		f, err := newField(cd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cd.SchemaElement.Name, err)
		}
		f.Index = i
		fields = append(fields, f)
	}
	return fields, nil
}

func newField(cd *parquetschema.ColumnDefinition) (*schema.Field, error) {
	se := cd.SchemaElement
	f := &schema.Field{Name: se.Name}
	switch se.GetRepetitionType() {
	case parquet.FieldRepetitionType_OPTIONAL:
		f.Nullable = true
	case parquet.FieldRepetitionType_REPEATED:
		f.Repeated = true
	}
	if se.Type != nil {
		t, err := newPrimitiveType(se)
		if err != nil {
			return nil, err
		}
		f.Kind = schema.Primitive
		f.Type = t
		return f, nil
	}
	f.Kind = schema.Struct
	if se.ConvertedType != nil && len(cd.Children) == 1 {
		switch *se.ConvertedType {
		case parquet.ConvertedType_MAP:
			f.Kind = schema.Map
		case parquet.ConvertedType_LIST:
			f.Kind = schema.List
		}
	}
	children, err := newFields(cd.Children)
	if err != nil {
		return nil, err
	}
	f.Children = children
	return f, nil
}

func newPrimitiveType(se *parquet.SchemaElement) (*schema.Type, error) {
	if se.IsSetLogicalType() && se.LogicalType.IsSetDECIMAL() ||
		se.GetConvertedType() == parquet.ConvertedType_DECIMAL {
		return nil, fmt.Errorf("%w: DECIMAL", ErrUnsupportedColumn)
	}
	t := &schema.Type{}
	switch *se.Type {
	case parquet.Type_BOOLEAN:
		t.Physical = schema.Boolean
	case parquet.Type_INT32:
		t.Physical = schema.Int32
	case parquet.Type_INT64:
		t.Physical = schema.Int64
	case parquet.Type_FLOAT:
		t.Physical = schema.Float
	case parquet.Type_DOUBLE:
		t.Physical = schema.Double
	case parquet.Type_BYTE_ARRAY:
		t.Physical = schema.ByteArray
	case parquet.Type_FIXED_LEN_BYTE_ARRAY:
		t.Physical = schema.FixedLenByteArray
		t.Length = int(se.GetTypeLength())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedColumn, se.Type)
	}
	if l := se.LogicalType; l != nil {
		switch {
		case l.IsSetSTRING():
			t.Logical = schema.String
		case l.IsSetINTEGER():
			t.Logical = schema.Integer
			t.BitWidth = int(l.INTEGER.BitWidth)
			t.Signed = l.INTEGER.IsSigned
		case l.IsSetTIMESTAMP() && l.TIMESTAMP.IsSetUnit():
			t.Logical = schema.Timestamp
			switch u := l.TIMESTAMP.Unit; {
			case u.IsSetMILLIS():
				t.Unit = schema.Millis
			case u.IsSetMICROS():
				t.Unit = schema.Micros
			default:
				t.Unit = schema.Nanos
			}
		}
		return t, nil
	}
	if se.IsSetConvertedType() {
		switch *se.ConvertedType {
		case parquet.ConvertedType_UTF8:
			t.Logical = schema.String
		case parquet.ConvertedType_INT_8, parquet.ConvertedType_INT_16, parquet.ConvertedType_INT_32, parquet.ConvertedType_INT_64,
			parquet.ConvertedType_UINT_8, parquet.ConvertedType_UINT_16, parquet.ConvertedType_UINT_32, parquet.ConvertedType_UINT_64:
			t.Logical = schema.Integer
			t.BitWidth, t.Signed = convertedIntWidth(*se.ConvertedType)
		case parquet.ConvertedType_TIMESTAMP_MILLIS:
			t.Logical, t.Unit = schema.Timestamp, schema.Millis
		case parquet.ConvertedType_TIMESTAMP_MICROS:
			t.Logical, t.Unit = schema.Timestamp, schema.Micros
		}
	}
	return t, nil
}

func convertedIntWidth(c parquet.ConvertedType) (int, bool) {
	switch c {
	case parquet.ConvertedType_INT_8:
		return 8, true
	case parquet.ConvertedType_INT_16:
		return 16, true
	case parquet.ConvertedType_INT_32:
		return 32, true
	case parquet.ConvertedType_INT_64:
		return 64, true
	case parquet.ConvertedType_UINT_8:
		return 8, false
	case parquet.ConvertedType_UINT_16:
		return 16, false
	case parquet.ConvertedType_UINT_32:
		return 32, false
	}
	return 64, false
}
