package parquetio

import (
	"fmt"
	"math"

	"github.com/brimdata/parq/schema"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
)

var (
	repetitionRequired = parquet.FieldRepetitionTypePtr(parquet.FieldRepetitionType_REQUIRED)
	repetitionOptional = parquet.FieldRepetitionTypePtr(parquet.FieldRepetitionType_OPTIONAL)
	repetitionRepeated = parquet.FieldRepetitionTypePtr(parquet.FieldRepetitionType_REPEATED)

	convertedUTF8        = parquet.ConvertedTypePtr(parquet.ConvertedType_UTF8)
	convertedMap         = parquet.ConvertedTypePtr(parquet.ConvertedType_MAP)
	convertedMapKeyValue = parquet.ConvertedTypePtr(parquet.ConvertedType_MAP_KEY_VALUE)
	convertedList        = parquet.ConvertedTypePtr(parquet.ConvertedType_LIST)

	logicalString = &parquet.LogicalType{STRING: &parquet.StringType{}}
	logicalMap    = &parquet.LogicalType{MAP: &parquet.MapType{}}
	logicalList   = &parquet.LogicalType{LIST: &parquet.ListType{}}

	timeUnitMillis = &parquet.TimeUnit{MILLIS: &parquet.MilliSeconds{}}
	timeUnitMicros = &parquet.TimeUnit{MICROS: &parquet.MicroSeconds{}}
	timeUnitNanos  = &parquet.TimeUnit{NANOS: &parquet.NanoSeconds{}}
)

// NewSchemaDefinition renders s as a schema definition, whose String method
// gives the schema in Parquet message syntax.
func NewSchemaDefinition(s *schema.Schema) (*parquetschema.SchemaDefinition, error) {
	children, err := newColumnDefinitions(s.Root.Children)
	if err != nil {
		return nil, err
	}
	sd := &parquetschema.SchemaDefinition{
		RootColumn: &parquetschema.ColumnDefinition{
			Children: children,
			SchemaElement: &parquet.SchemaElement{
				Name:        s.Root.Name,
				NumChildren: int32Ptr(len(children)),
			},
		},
	}
	return sd, sd.ValidateStrict()
}

func newColumnDefinitions(fields []*schema.Field) ([]*parquetschema.ColumnDefinition, error) {
	var children []*parquetschema.ColumnDefinition
	for _, f := range fields {
		c, err := newColumnDefinition(f)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

func fieldRepetition(f *schema.Field) *parquet.FieldRepetitionType {
	switch {
	case f.Repeated:
		return repetitionRepeated
	case f.Nullable:
		return repetitionOptional
	}
	return repetitionRequired
}

func newColumnDefinition(f *schema.Field) (*parquetschema.ColumnDefinition, error) {
	if f.Kind == schema.Primitive {
		return newPrimitiveColumnDefinition(f)
	}
	children, err := newColumnDefinitions(f.Children)
	if err != nil {
		return nil, err
	}
	se := &parquet.SchemaElement{
		RepetitionType: fieldRepetition(f),
		Name:           f.Name,
		NumChildren:    int32Ptr(len(children)),
	}
	switch f.Kind {
	case schema.List:
		se.ConvertedType = convertedList
		se.LogicalType = logicalList
	case schema.Map:
		se.ConvertedType = convertedMap
		se.LogicalType = logicalMap
		if len(children) == 1 {
			children[0].SchemaElement.ConvertedType = convertedMapKeyValue
		}
	}
	return &parquetschema.ColumnDefinition{
		Children:      children,
		SchemaElement: se,
	}, nil
}

func newPrimitiveColumnDefinition(f *schema.Field) (*parquetschema.ColumnDefinition, error) {
	t := f.Type
	se := &parquet.SchemaElement{
		RepetitionType: fieldRepetition(f),
		Name:           f.Name,
	}
	switch t.Physical {
	case schema.Boolean:
		se.Type = parquet.TypePtr(parquet.Type_BOOLEAN)
	case schema.Int32:
		se.Type = parquet.TypePtr(parquet.Type_INT32)
	case schema.Int64:
		se.Type = parquet.TypePtr(parquet.Type_INT64)
	case schema.Float:
		se.Type = parquet.TypePtr(parquet.Type_FLOAT)
	case schema.Double:
		se.Type = parquet.TypePtr(parquet.Type_DOUBLE)
	case schema.ByteArray:
		se.Type = parquet.TypePtr(parquet.Type_BYTE_ARRAY)
	case schema.FixedLenByteArray:
		se.Type = parquet.TypePtr(parquet.Type_FIXED_LEN_BYTE_ARRAY)
		se.TypeLength = int32Ptr(t.Length)
	default:
		return nil, fmt.Errorf("%s: %w: %s", f.Name, ErrUnsupportedColumn, t.Physical)
	}
	switch t.Logical {
	case schema.String:
		se.ConvertedType = convertedUTF8
		se.LogicalType = logicalString
	case schema.Integer:
		se.ConvertedType = convertedInt(t.BitWidth, t.Signed)
		se.LogicalType = &parquet.LogicalType{INTEGER: &parquet.IntType{BitWidth: int8(t.BitWidth), IsSigned: t.Signed}}
	case schema.Timestamp:
		unit := timeUnitNanos
		switch t.Unit {
		case schema.Micros:
			unit = timeUnitMicros
		case schema.Millis:
			unit = timeUnitMillis
		}
		se.LogicalType = &parquet.LogicalType{TIMESTAMP: &parquet.TimestampType{IsAdjustedToUTC: true, Unit: unit}}
	}
	return &parquetschema.ColumnDefinition{SchemaElement: se}, nil
}

func convertedInt(bits int, signed bool) *parquet.ConvertedType {
	var c parquet.ConvertedType
	switch {
	case bits == 8 && signed:
		c = parquet.ConvertedType_INT_8
	case bits == 16 && signed:
		c = parquet.ConvertedType_INT_16
	case bits == 32 && signed:
		c = parquet.ConvertedType_INT_32
	case signed:
		c = parquet.ConvertedType_INT_64
	case bits == 8:
		c = parquet.ConvertedType_UINT_8
	case bits == 16:
		c = parquet.ConvertedType_UINT_16
	case bits == 32:
		c = parquet.ConvertedType_UINT_32
	default:
		c = parquet.ConvertedType_UINT_64
	}
	return parquet.ConvertedTypePtr(c)
}

func int32Ptr(i int) *int32 {
	if i > math.MaxInt32 || i < math.MinInt32 {
		panic(i)
	}
	i32 := int32(i)
	return &i32
}
